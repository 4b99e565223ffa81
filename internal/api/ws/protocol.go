package ws

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/codepair/backend/internal/domain/session"
)

// Event names on the wire.
const (
	EventJoinSession    = "join-session"
	EventSessionState   = "session-state"
	EventUserJoined     = "user-joined"
	EventUserLeft       = "user-left"
	EventCodeChange     = "code-change"
	EventCodeUpdate     = "code-update"
	EventLanguageChange = "language-change"
	EventLanguageUpdate = "language-update"
	EventCursorPosition = "cursor-position"
	EventCursorUpdate   = "cursor-update"
	EventPing           = "ping"
	EventPong           = "pong"
	EventSystem         = "system"
	EventError          = "error"
)

// ErrMalformed marks an event whose payload failed validation.
var ErrMalformed = errors.New("malformed event")

// Envelope is the wire frame for every protocol event.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// JoinPayload asks to join a session room.
type JoinPayload struct {
	SessionID string `json:"sessionId"`
}

// StatePayload carries the full session view sent to a joiner.
type StatePayload struct {
	Code     string           `json:"code"`
	Language session.Language `json:"language"`
}

// PresencePayload announces a participant joining or leaving.
type PresencePayload struct {
	UserID string `json:"userId"`
}

// CodeChangePayload replaces the shared buffer.
type CodeChangePayload struct {
	SessionID string `json:"sessionId"`
	Code      string `json:"code"`
}

// CodeUpdatePayload fans a buffer replacement out to the room.
type CodeUpdatePayload struct {
	Code string `json:"code"`
}

// LanguageChangePayload switches the session language.
type LanguageChangePayload struct {
	SessionID string           `json:"sessionId"`
	Language  session.Language `json:"language"`
}

// LanguageUpdatePayload fans a language switch out to the room.
type LanguageUpdatePayload struct {
	Language session.Language `json:"language"`
}

// CursorPayload is an ephemeral cursor position report.
type CursorPayload struct {
	SessionID string `json:"sessionId"`
	Position  int    `json:"position"`
}

// CursorUpdatePayload relays a cursor position to the room.
type CursorUpdatePayload struct {
	UserID   string `json:"userId"`
	Position int    `json:"position"`
}

// SystemPayload is an informational server message.
type SystemPayload struct {
	Message string `json:"message"`
}

// ErrorPayload is a user-visible failure.
type ErrorPayload struct {
	Message string `json:"message"`
}

// decodeEnvelope parses a raw frame into an envelope.
func decodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	return env, nil
}

// decodeJoin validates a join-session payload.
func decodeJoin(payload json.RawMessage) (JoinPayload, error) {
	var p JoinPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return p, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if p.SessionID == "" {
		return p, fmt.Errorf("%w: join-session requires sessionId", ErrMalformed)
	}
	return p, nil
}

// decodeCodeChange validates a code-change payload. An empty code string
// is a legal buffer state; only the session id is required.
func decodeCodeChange(payload json.RawMessage) (CodeChangePayload, error) {
	var p CodeChangePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return p, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if p.SessionID == "" {
		return p, fmt.Errorf("%w: code-change requires sessionId", ErrMalformed)
	}
	return p, nil
}

// decodeLanguageChange validates a language-change payload, including
// membership in the supported language set.
func decodeLanguageChange(payload json.RawMessage) (LanguageChangePayload, error) {
	var p LanguageChangePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return p, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if p.SessionID == "" {
		return p, fmt.Errorf("%w: language-change requires sessionId", ErrMalformed)
	}
	if !p.Language.Valid() {
		return p, fmt.Errorf("%w: unsupported language %q", ErrMalformed, p.Language)
	}
	return p, nil
}

// decodeCursor validates a cursor-position payload.
func decodeCursor(payload json.RawMessage) (CursorPayload, error) {
	var p CursorPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return p, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if p.SessionID == "" {
		return p, fmt.Errorf("%w: cursor-position requires sessionId", ErrMalformed)
	}
	if p.Position < 0 {
		return p, fmt.Errorf("%w: negative cursor position", ErrMalformed)
	}
	return p, nil
}

// Encode builds a wire frame for an event and payload. Payload marshal
// failures cannot happen for the fixed payload types, so Encode panics
// on them to surface programming errors early.
func Encode(eventType string, payload interface{}) []byte {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			panic(fmt.Sprintf("ws: encode %s: %v", eventType, err))
		}
		raw = data
	}
	data, err := json.Marshal(Envelope{Type: eventType, Payload: raw})
	if err != nil {
		panic(fmt.Sprintf("ws: encode %s: %v", eventType, err))
	}
	return data
}
