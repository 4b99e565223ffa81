package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/codepair/backend/internal/domain/session"
	"github.com/codepair/backend/internal/infrastructure/logging"
	"github.com/codepair/backend/internal/infrastructure/monitoring"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // Origin policy is enforced upstream
	},
}

// Handler runs the session protocol state machine for every connection.
type Handler struct {
	store   *session.Store
	hub     *Hub
	log     *logging.Logger
	metrics *monitoring.Metrics
}

// NewHandler creates a protocol handler bound to a store and hub.
func NewHandler(store *session.Store, hub *Hub, log *logging.Logger, metrics *monitoring.Metrics) *Handler {
	if log == nil {
		log = logging.NewNop()
	}
	return &Handler{
		store:   store,
		hub:     hub,
		log:     log,
		metrics: metrics,
	}
}

// HandleConnection upgrades the request and drives the event loop until
// the peer goes away. Each connection gets a UUID that doubles as its
// participant id.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	cl := newClient(uuid.New().String(), conn)
	go cl.writePump()

	if h.metrics != nil {
		h.metrics.WSConnections.Inc()
	}
	h.log.Info("client connected", zap.String("conn_id", cl.id))

	cl.trySend(Encode(EventSystem, SystemPayload{Message: "Connected to codepair"}))

	h.readLoop(cl)
	h.disconnect(cl)
}

// readLoop dispatches inbound frames until the connection errors out.
// A malformed frame earns an error event, never a dropped connection.
func (h *Handler) readLoop(cl *client) {
	for {
		_, data, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("websocket read error", zap.String("conn_id", cl.id), zap.Error(err))
			}
			return
		}

		env, err := decodeEnvelope(data)
		if err != nil {
			h.sendError(cl, "malformed event")
			continue
		}

		if h.metrics != nil {
			h.metrics.WSEvents.WithLabelValues(env.Type).Inc()
		}

		switch env.Type {
		case EventJoinSession:
			h.handleJoin(cl, env)
		case EventCodeChange:
			h.handleCodeChange(cl, env)
		case EventLanguageChange:
			h.handleLanguageChange(cl, env)
		case EventCursorPosition:
			h.handleCursor(cl, env)
		case EventPing:
			cl.trySend(Encode(EventPong, nil))
		default:
			h.sendError(cl, "unknown event type")
		}
	}
}

// handleJoin registers membership and replies with the current state.
// Joining a session that does not exist is the one lifecycle event that
// surfaces an error to the caller.
func (h *Handler) handleJoin(cl *client, env Envelope) {
	p, err := decodeJoin(env.Payload)
	if err != nil {
		h.sendError(cl, "malformed event")
		return
	}

	snap, ok := h.store.Get(p.SessionID)
	if !ok {
		h.sendError(cl, "Session not found")
		return
	}

	h.hub.Join(p.SessionID, cl)
	h.store.AddParticipant(p.SessionID, cl.id)

	h.log.Info("client joined session",
		zap.String("conn_id", cl.id),
		zap.String("session_id", p.SessionID),
	)

	cl.trySend(Encode(EventSessionState, StatePayload{
		Code:     snap.Code,
		Language: snap.Language,
	}))
	h.hub.Broadcast(p.SessionID, Encode(EventUserJoined, PresencePayload{UserID: cl.id}), cl)
}

// handleCodeChange applies a last-write-wins buffer replacement and fans
// it out to everyone else in the room. The sender already sees its own
// edit, so re-delivering would only cause echo. A change against an
// unknown session is silently dropped; only join surfaces an error.
func (h *Handler) handleCodeChange(cl *client, env Envelope) {
	p, err := decodeCodeChange(env.Payload)
	if err != nil {
		h.sendError(cl, "malformed event")
		return
	}

	if !h.store.SetCode(p.SessionID, p.Code) {
		return
	}
	h.hub.Broadcast(p.SessionID, Encode(EventCodeUpdate, CodeUpdatePayload{Code: p.Code}), cl)
}

// handleLanguageChange switches the session language and confirms it to
// the whole room, sender included: the selector UI is distinct from the
// editor and needs the authoritative confirmation too.
func (h *Handler) handleLanguageChange(cl *client, env Envelope) {
	p, err := decodeLanguageChange(env.Payload)
	if err != nil {
		h.sendError(cl, "malformed event")
		return
	}

	if !h.store.SetLanguage(p.SessionID, p.Language) {
		return
	}
	h.hub.BroadcastAll(p.SessionID, Encode(EventLanguageUpdate, LanguageUpdatePayload{Language: p.Language}))
}

// handleCursor relays a cursor position to the rest of the room. Cursor
// state is ephemeral and never touches the store.
func (h *Handler) handleCursor(cl *client, env Envelope) {
	p, err := decodeCursor(env.Payload)
	if err != nil {
		h.sendError(cl, "malformed event")
		return
	}

	h.hub.Broadcast(p.SessionID, Encode(EventCursorUpdate, CursorUpdatePayload{
		UserID:   cl.id,
		Position: p.Position,
	}), cl)
}

// disconnect tears down membership for a departed connection and tells
// the remaining members of every affected room.
func (h *Handler) disconnect(cl *client) {
	affected := h.store.RemoveParticipantAll(cl.id)
	h.hub.LeaveAll(cl)
	cl.close()

	for _, room := range affected {
		h.hub.BroadcastAll(room, Encode(EventUserLeft, PresencePayload{UserID: cl.id}))
	}

	if h.metrics != nil {
		h.metrics.WSConnections.Dec()
	}
	h.log.Info("client disconnected",
		zap.String("conn_id", cl.id),
		zap.Int("sessions_left", len(affected)),
	)
}

func (h *Handler) sendError(cl *client, msg string) {
	cl.trySend(Encode(EventError, ErrorPayload{Message: msg}))
}
