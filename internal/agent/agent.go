// Package agent implements the client side of the session protocol.
//
// An Agent mirrors local edits to the server and applies remote updates
// to its local view of the session: the code buffer and language track
// whatever the server last broadcast. The read loop runs on its own
// goroutine, so the view stays current while the caller is busy, for
// example while it has an execution in flight.
//
// The integration tests drive real servers through this package; it is
// equally usable by bots or terminal frontends.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/codepair/backend/internal/api/ws"
	"github.com/codepair/backend/internal/domain/session"
)

// ErrClosed is returned when the connection has gone away.
var ErrClosed = errors.New("agent connection closed")

// eventBuffer bounds how many unconsumed events an agent holds before
// NextEvent callers start missing them.
const eventBuffer = 256

// Event is one received protocol frame.
type Event struct {
	Type    string
	Payload json.RawMessage
}

// Agent is one connected participant.
type Agent struct {
	conn *websocket.Conn

	mu       sync.RWMutex
	code     string
	language session.Language

	events chan Event
	done   chan struct{}

	writeMu sync.Mutex
}

// Dial connects to a server's WebSocket endpoint. url should look like
// "ws://host:port/ws".
func Dial(ctx context.Context, url string) (*Agent, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}

	a := &Agent{
		conn:     conn,
		language: session.LangJavaScript,
		events:   make(chan Event, eventBuffer),
		done:     make(chan struct{}),
	}
	go a.readLoop()
	return a, nil
}

// Join enters a session room and waits for the server's state reply.
// The local view is primed from that reply. A server-side rejection,
// such as joining a session that does not exist, comes back as an error.
func (a *Agent) Join(ctx context.Context, sessionID string) error {
	if err := a.send(ws.EventJoinSession, ws.JoinPayload{SessionID: sessionID}); err != nil {
		return err
	}

	for {
		ev, err := a.NextEvent(ctx)
		if err != nil {
			return err
		}
		switch ev.Type {
		case ws.EventSessionState:
			return nil
		case ws.EventError:
			var p ws.ErrorPayload
			if err := json.Unmarshal(ev.Payload, &p); err != nil {
				return fmt.Errorf("join rejected: unreadable error payload")
			}
			return fmt.Errorf("join rejected: %s", p.Message)
		default:
			// Banner or presence noise; keep waiting.
		}
	}
}

// SendCode mirrors a local edit to the server.
func (a *Agent) SendCode(sessionID, code string) error {
	a.mu.Lock()
	a.code = code
	a.mu.Unlock()
	return a.send(ws.EventCodeChange, ws.CodeChangePayload{SessionID: sessionID, Code: code})
}

// SendLanguage requests a language switch. The local view is not
// updated here; the server's language-update broadcast is authoritative
// and comes back to the sender too.
func (a *Agent) SendLanguage(sessionID string, lang session.Language) error {
	return a.send(ws.EventLanguageChange, ws.LanguageChangePayload{SessionID: sessionID, Language: lang})
}

// SendCursor reports an ephemeral cursor position.
func (a *Agent) SendCursor(sessionID string, position int) error {
	return a.send(ws.EventCursorPosition, ws.CursorPayload{SessionID: sessionID, Position: position})
}

// Code returns the current local view of the shared buffer.
func (a *Agent) Code() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.code
}

// Language returns the current local view of the session language.
func (a *Agent) Language() session.Language {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.language
}

// NextEvent returns the next received frame in arrival order.
func (a *Agent) NextEvent(ctx context.Context) (Event, error) {
	select {
	case ev, ok := <-a.events:
		if !ok {
			return Event{}, ErrClosed
		}
		return ev, nil
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

// Close tears the connection down and stops the read loop.
func (a *Agent) Close() error {
	err := a.conn.Close()
	<-a.done
	return err
}

func (a *Agent) send(eventType string, payload interface{}) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	if err := a.conn.WriteMessage(websocket.TextMessage, ws.Encode(eventType, payload)); err != nil {
		return fmt.Errorf("failed to send %s: %w", eventType, err)
	}
	return nil
}

// readLoop applies remote updates to the local view and forwards every
// frame to NextEvent consumers. It exits when the connection closes.
func (a *Agent) readLoop() {
	defer close(a.done)
	defer close(a.events)

	for {
		_, data, err := a.conn.ReadMessage()
		if err != nil {
			return
		}

		var env ws.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}

		a.apply(env)

		select {
		case a.events <- Event{Type: env.Type, Payload: env.Payload}:
		default:
			// Consumer is behind; the state view stays correct.
		}
	}
}

// apply folds a server frame into the local {code, language} view.
func (a *Agent) apply(env ws.Envelope) {
	switch env.Type {
	case ws.EventSessionState:
		var p ws.StatePayload
		if json.Unmarshal(env.Payload, &p) == nil {
			a.mu.Lock()
			a.code = p.Code
			a.language = p.Language
			a.mu.Unlock()
		}
	case ws.EventCodeUpdate:
		var p ws.CodeUpdatePayload
		if json.Unmarshal(env.Payload, &p) == nil {
			a.mu.Lock()
			a.code = p.Code
			a.mu.Unlock()
		}
	case ws.EventLanguageUpdate:
		var p ws.LanguageUpdatePayload
		if json.Unmarshal(env.Payload, &p) == nil {
			a.mu.Lock()
			a.language = p.Language
			a.mu.Unlock()
		}
	}
}
