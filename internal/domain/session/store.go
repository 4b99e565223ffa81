package session

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Language identifies an execution language for the shared buffer.
type Language string

const (
	LangJavaScript Language = "javascript"
	LangPython     Language = "python"
)

// Valid reports whether l is one of the supported languages.
func (l Language) Valid() bool {
	switch l {
	case LangJavaScript, LangPython:
		return true
	}
	return false
}

// Languages returns the supported language set.
func Languages() []Language {
	return []Language{LangJavaScript, LangPython}
}

// record is the mutable session state guarded by the store mutex.
type record struct {
	id           string
	code         string
	language     Language
	participants map[string]struct{}
}

// Snapshot is an immutable copy of a session handed to callers.
type Snapshot struct {
	ID           string   `json:"id"`
	Code         string   `json:"code"`
	Language     Language `json:"language"`
	Participants []string `json:"participants"`
}

// Store owns all session records for the process lifetime.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*record
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*record),
	}
}

// Create allocates a fresh session with an empty buffer and the default
// language. It never fails; identifiers are never reused.
func (s *Store) Create() Snapshot {
	rec := &record{
		id:           uuid.New().String(),
		code:         "",
		language:     LangJavaScript,
		participants: make(map[string]struct{}),
	}

	s.mu.Lock()
	s.sessions[rec.id] = rec
	s.mu.Unlock()

	return rec.snapshot()
}

// Get returns a copy of the session, or false if the id is unknown.
func (s *Store) Get(id string) (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.sessions[id]
	if !ok {
		return Snapshot{}, false
	}
	return rec.snapshot(), true
}

// SetCode replaces the buffer wholesale. Last write wins; unknown ids
// report false and mutate nothing.
func (s *Store) SetCode(id, code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[id]
	if !ok {
		return false
	}
	rec.code = code
	return true
}

// SetLanguage replaces the selected language. Unknown ids report false.
func (s *Store) SetLanguage(id string, lang Language) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[id]
	if !ok {
		return false
	}
	rec.language = lang
	return true
}

// AddParticipant records a connection as joined. Idempotent.
func (s *Store) AddParticipant(id, connID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[id]
	if !ok {
		return false
	}
	rec.participants[connID] = struct{}{}
	return true
}

// RemoveParticipant removes a connection from one session. Idempotent.
func (s *Store) RemoveParticipant(id, connID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[id]
	if !ok {
		return false
	}
	delete(rec.participants, connID)
	return true
}

// RemoveParticipantAll removes a connection from every session it joined
// and returns the affected session ids. Used on disconnect.
func (s *Store) RemoveParticipantAll(connID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var affected []string
	for id, rec := range s.sessions {
		if _, ok := rec.participants[connID]; ok {
			delete(rec.participants, connID)
			affected = append(affected, id)
		}
	}
	return affected
}

// Count returns the number of sessions in the store.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (r *record) snapshot() Snapshot {
	participants := make([]string, 0, len(r.participants))
	for id := range r.participants {
		participants = append(participants, id)
	}
	sort.Strings(participants)

	return Snapshot{
		ID:           r.id,
		Code:         r.code,
		Language:     r.language,
		Participants: participants,
	}
}
