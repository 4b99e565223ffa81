// Package session provides the authoritative in-memory session model.
//
// A session is the shared unit of collaboration: one code buffer, one
// selected language, and the set of connections currently joined. The
// Store owns every session record for the process lifetime and is the
// single source of truth for the protocol handler and the HTTP API.
//
// Semantics:
//   - Create never fails and always yields a fresh UUID identifier
//   - Code and language are last-write-wins by arrival order
//   - Participant membership is a set; add/remove are idempotent
//   - Mutations against an unknown id report false and change nothing
//
// The Store is an explicitly owned value passed to its consumers. There
// is no package-level state, so tests can run independent instances.
//
// Example Usage:
//
//	store := session.NewStore()
//	snap := store.Create()
//	store.SetCode(snap.ID, "x = 1")
package session
