package ws

import (
	"sync"

	"go.uber.org/zap"

	"github.com/codepair/backend/internal/infrastructure/logging"
)

// Hub partitions connected clients into rooms, one room per session id,
// and fans events out to room members. Membership here mirrors the
// participant sets in the session store; the store stays authoritative.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*client]struct{}
	log   *logging.Logger
}

// NewHub creates an empty hub.
func NewHub(log *logging.Logger) *Hub {
	if log == nil {
		log = logging.NewNop()
	}
	return &Hub{
		rooms: make(map[string]map[*client]struct{}),
		log:   log,
	}
}

// Join adds a client to a room, creating the room on first use.
func (h *Hub) Join(room string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
}

// Leave removes a client from one room. Empty rooms are pruned so the
// hub does not accumulate map entries for idle sessions.
func (h *Hub) Leave(room string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(room, c)
}

// LeaveAll removes a client from every room it is in.
func (h *Hub) LeaveAll(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for room, members := range h.rooms {
		if _, ok := members[c]; ok {
			h.leaveLocked(room, c)
		}
	}
}

func (h *Hub) leaveLocked(room string, c *client) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// Broadcast queues a frame for every room member except the sender.
// Pass a nil sender to reach the whole room. Clients whose buffers are
// full are disconnected; a stalled peer must not hold the room back.
func (h *Hub) Broadcast(room string, data []byte, except *client) {
	var stalled []*client

	h.mu.RLock()
	for c := range h.rooms[room] {
		if c == except {
			continue
		}
		if !c.trySend(data) {
			stalled = append(stalled, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stalled {
		h.log.Warn("dropping slow client",
			zap.String("conn_id", c.id),
			zap.String("room", room),
		)
		h.LeaveAll(c)
		c.close()
	}
}

// BroadcastAll queues a frame for every member of a room, sender
// included.
func (h *Hub) BroadcastAll(room string, data []byte) {
	h.Broadcast(room, data, nil)
}

// RoomSize returns the number of clients in a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
