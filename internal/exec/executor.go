// Package exec defines the sandboxed execution boundary.
//
// An Executor runs untrusted source text and returns captured output.
// A failing program is a normal result whose failure text lands in
// Result.Stderr; the error return is reserved for faults of the
// executor itself (missing interpreter, cancelled context). Nothing a
// submitted program does may crash the host process.
package exec

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/codepair/backend/internal/domain/session"
)

var (
	// ErrUnknownLanguage means no executor is registered for the
	// requested language.
	ErrUnknownLanguage = errors.New("unknown execution language")

	// ErrBusy means the caller already has an execution in flight.
	// Runs are rejected, not queued.
	ErrBusy = errors.New("execution already in flight")
)

// Result holds captured execution output.
type Result struct {
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	Duration time.Duration `json:"-"`

	// Failed marks a program that raised or exited nonzero. The
	// failure text is in Stderr.
	Failed bool `json:"-"`
}

// Executor runs source text in one language.
type Executor interface {
	Execute(ctx context.Context, source string) (*Result, error)
}

// Registry maps languages to executors and serializes runs per caller:
// at most one execution in flight for a given caller key.
type Registry struct {
	mu        sync.RWMutex
	executors map[session.Language]Executor
	inflight  sync.Map // caller key -> struct{}
}

// NewRegistry creates an empty executor registry.
func NewRegistry() *Registry {
	return &Registry{
		executors: make(map[session.Language]Executor),
	}
}

// Register binds an executor to a language, replacing any previous one.
func (r *Registry) Register(lang session.Language, ex Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[lang] = ex
}

// Get returns the executor for a language.
func (r *Registry) Get(lang session.Language) (Executor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ex, ok := r.executors[lang]
	return ex, ok
}

// Run executes source for the given caller key. A second run for the
// same key while one is outstanding returns ErrBusy.
func (r *Registry) Run(ctx context.Context, key string, lang session.Language, source string) (*Result, error) {
	ex, ok := r.Get(lang)
	if !ok {
		return nil, ErrUnknownLanguage
	}

	if _, loaded := r.inflight.LoadOrStore(key, struct{}{}); loaded {
		return nil, ErrBusy
	}
	defer r.inflight.Delete(key)

	return ex.Execute(ctx, source)
}
