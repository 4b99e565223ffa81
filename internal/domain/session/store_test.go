package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDefaults(t *testing.T) {
	store := NewStore()

	snap := store.Create()
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, "", snap.Code)
	assert.Equal(t, LangJavaScript, snap.Language)
	assert.Empty(t, snap.Participants)

	got, ok := store.Get(snap.ID)
	require.True(t, ok)
	assert.Equal(t, snap, got)
}

func TestCreateUniqueIDs(t *testing.T) {
	store := NewStore()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		snap := store.Create()
		assert.False(t, seen[snap.ID], "duplicate session id %s", snap.ID)
		seen[snap.ID] = true
	}
	assert.Equal(t, 100, store.Count())
}

func TestGetUnknown(t *testing.T) {
	store := NewStore()

	_, ok := store.Get("no-such-session")
	assert.False(t, ok)
}

func TestSetCodeLastWriteWins(t *testing.T) {
	store := NewStore()
	snap := store.Create()

	require.True(t, store.SetCode(snap.ID, "first"))
	require.True(t, store.SetCode(snap.ID, "second"))

	got, ok := store.Get(snap.ID)
	require.True(t, ok)
	assert.Equal(t, "second", got.Code)
}

func TestSetCodeUnknownIsNoOp(t *testing.T) {
	store := NewStore()
	snap := store.Create()

	assert.False(t, store.SetCode("missing", "x"))
	assert.False(t, store.SetLanguage("missing", LangPython))

	got, _ := store.Get(snap.ID)
	assert.Equal(t, "", got.Code)
	assert.Equal(t, LangJavaScript, got.Language)
}

func TestSetLanguage(t *testing.T) {
	store := NewStore()
	snap := store.Create()

	require.True(t, store.SetLanguage(snap.ID, LangPython))

	got, _ := store.Get(snap.ID)
	assert.Equal(t, LangPython, got.Language)
}

func TestLanguageValid(t *testing.T) {
	assert.True(t, LangJavaScript.Valid())
	assert.True(t, LangPython.Valid())
	assert.False(t, Language("").Valid())
	assert.False(t, Language("rust").Valid())
}

func TestParticipantsIdempotent(t *testing.T) {
	store := NewStore()
	snap := store.Create()

	require.True(t, store.AddParticipant(snap.ID, "conn-1"))
	require.True(t, store.AddParticipant(snap.ID, "conn-1"))
	require.True(t, store.AddParticipant(snap.ID, "conn-2"))

	got, _ := store.Get(snap.ID)
	assert.Equal(t, []string{"conn-1", "conn-2"}, got.Participants)

	require.True(t, store.RemoveParticipant(snap.ID, "conn-1"))
	require.True(t, store.RemoveParticipant(snap.ID, "conn-1"))

	got, _ = store.Get(snap.ID)
	assert.Equal(t, []string{"conn-2"}, got.Participants)
}

func TestRemoveParticipantAll(t *testing.T) {
	store := NewStore()
	a := store.Create()
	b := store.Create()
	c := store.Create()

	store.AddParticipant(a.ID, "conn-1")
	store.AddParticipant(b.ID, "conn-1")
	store.AddParticipant(c.ID, "conn-2")

	affected := store.RemoveParticipantAll("conn-1")
	assert.ElementsMatch(t, []string{a.ID, b.ID}, affected)

	got, _ := store.Get(a.ID)
	assert.Empty(t, got.Participants)
	got, _ = store.Get(c.ID)
	assert.Equal(t, []string{"conn-2"}, got.Participants)

	// Nothing left to remove.
	assert.Empty(t, store.RemoveParticipantAll("conn-1"))
}

func TestSnapshotIsolation(t *testing.T) {
	store := NewStore()
	snap := store.Create()
	store.AddParticipant(snap.ID, "conn-1")

	got, _ := store.Get(snap.ID)
	got.Participants[0] = "mutated"
	got.Code = "mutated"

	fresh, _ := store.Get(snap.ID)
	assert.Equal(t, []string{"conn-1"}, fresh.Participants)
	assert.Equal(t, "", fresh.Code)
}

func TestConcurrentMutations(t *testing.T) {
	store := NewStore()
	snap := store.Create()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			connID := fmt.Sprintf("conn-%d", n)
			store.AddParticipant(snap.ID, connID)
			store.SetCode(snap.ID, fmt.Sprintf("code-%d", n))
			store.Get(snap.ID)
			store.RemoveParticipant(snap.ID, connID)
		}(i)
	}
	wg.Wait()

	got, ok := store.Get(snap.ID)
	require.True(t, ok)
	assert.Empty(t, got.Participants)
	assert.Contains(t, got.Code, "code-")
}
