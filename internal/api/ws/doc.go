// Package ws implements the real-time session protocol over WebSocket.
//
// Connections upgrade from HTTP inside a gin route and then exchange
// JSON envelopes of the form {"type": ..., "payload": ...}. Each event
// type has a fixed payload schema; malformed payloads are rejected with
// an error event instead of being trusted, and never kill the handler.
//
// Message Types (Client → Server):
//   - join-session: join a session room
//   - code-change: replace the shared buffer
//   - language-change: switch the session language
//   - cursor-position: ephemeral cursor relay
//   - ping: keep-alive ping
//
// Message Types (Server → Client):
//   - session-state: full {code, language} reply to a joiner
//   - code-update: buffer replacement, fanned out to the rest of the room
//   - language-update: language switch, fanned out to the whole room
//   - user-joined / user-left: presence notifications
//   - cursor-update: relayed cursor position
//   - system: connection banner
//   - error: user-visible failure
//
// Fan-out is partitioned into rooms, one per session id. A slow client
// whose send buffer fills is dropped rather than allowed to stall the
// room.
//
// Example Usage:
//
//	handler := ws.NewHandler(store, hub, logger, metrics)
//	router.GET("/ws", handler.HandleConnection)
package ws
