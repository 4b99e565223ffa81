package exec

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codepair/backend/internal/domain/session"
)

// blockingExecutor parks until released, to simulate a long run.
type blockingExecutor struct {
	started chan struct{}
	release chan struct{}
}

func newBlockingExecutor() *blockingExecutor {
	return &blockingExecutor{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (b *blockingExecutor) Execute(ctx context.Context, source string) (*Result, error) {
	close(b.started)
	<-b.release
	return &Result{Stdout: "done"}, nil
}

func TestRunUnknownLanguage(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Run(context.Background(), "caller", session.LangPython, "print(1)")
	assert.ErrorIs(t, err, ErrUnknownLanguage)
}

func TestRunRejectsConcurrentRunsPerCaller(t *testing.T) {
	registry := NewRegistry()
	blocking := newBlockingExecutor()
	registry.Register(session.LangJavaScript, blocking)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		result, err := registry.Run(context.Background(), "caller", session.LangJavaScript, "")
		assert.NoError(t, err)
		assert.Equal(t, "done", result.Stdout)
	}()

	<-blocking.started

	// Same caller: rejected, not queued.
	_, err := registry.Run(context.Background(), "caller", session.LangJavaScript, "")
	assert.ErrorIs(t, err, ErrBusy)

	close(blocking.release)
	wg.Wait()

	// Slot freed after completion.
	registry.Register(session.LangJavaScript, instantExecutor{})
	_, err = registry.Run(context.Background(), "caller", session.LangJavaScript, "")
	assert.NoError(t, err)
}

func TestRunDifferentCallersDoNotBlockEachOther(t *testing.T) {
	registry := NewRegistry()
	blocking := newBlockingExecutor()
	registry.Register(session.LangJavaScript, blocking)
	registry.Register(session.LangPython, instantExecutor{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		registry.Run(context.Background(), "caller-a", session.LangJavaScript, "")
	}()
	<-blocking.started

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := registry.Run(context.Background(), "caller-b", session.LangPython, "")
		assert.NoError(t, err)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("independent caller was blocked")
	}

	close(blocking.release)
	wg.Wait()
}

type instantExecutor struct{}

func (instantExecutor) Execute(ctx context.Context, source string) (*Result, error) {
	return &Result{}, nil
}

func TestRegisterReplaces(t *testing.T) {
	registry := NewRegistry()
	registry.Register(session.LangPython, instantExecutor{})

	ex, ok := registry.Get(session.LangPython)
	require.True(t, ok)
	assert.NotNil(t, ex)

	_, ok = registry.Get(session.LangJavaScript)
	assert.False(t, ok)
}
