package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"messaging/internal/events"
)

// Hub is the process-scoped registry of active clients keyed by user id.
// It implements events.Sink: the bus drains into Deliver, which fans the
// event out to every registered client of each target user. Users with no
// open connection simply miss the event; there is no offline queue.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}
	log     *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[int64]map[*Client]struct{}),
		log:     log,
	}
}

var _ events.Sink = (*Hub)(nil)

// Register adds a client for its user and reports whether this took the
// user from offline to online. Registering the same client twice is a
// no-op.
func (h *Hub) Register(c *Client) (cameOnline bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.clients[c.UserID]
	if set == nil {
		set = make(map[*Client]struct{})
		h.clients[c.UserID] = set
	}
	if _, ok := set[c]; ok {
		return false
	}
	set[c] = struct{}{}
	return len(set) == 1
}

// Unregister removes a client and reports whether its user went offline.
// Unregistering twice is a no-op.
func (h *Hub) Unregister(c *Client) (wentOffline bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.UserID]
	if !ok {
		return false
	}
	if _, ok := set[c]; !ok {
		return false
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.UserID)
		return true
	}
	return false
}

// Online reports whether the user has at least one registered client.
func (h *Hub) Online(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// OnlineUserIDs returns the ids of all currently connected users.
func (h *Hub) OnlineUserIDs() []int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]int64, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	return ids
}

type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Deliver pushes the event to every registered client of each target user.
// A nil target list broadcasts to everyone. Clients that cannot keep up are
// closed; delivery failures never propagate.
func (h *Hub) Deliver(ev events.Event) {
	payload, err := json.Marshal(envelope{Type: ev.Type, Payload: ev.Payload})
	if err != nil {
		h.log.Error("marshal event", zap.String("type", ev.Type), zap.Error(err))
		return
	}

	h.mu.RLock()
	var targets []*Client
	if ev.TargetUserIDs == nil {
		for _, set := range h.clients {
			for c := range set {
				targets = append(targets, c)
			}
		}
	} else {
		for _, uid := range ev.TargetUserIDs {
			for c := range h.clients[uid] {
				targets = append(targets, c)
			}
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if !c.Enqueue(payload) {
			h.Unregister(c)
			h.log.Debug("dropped slow client",
				zap.String("client", c.ID),
				zap.Int64("user_id", c.UserID))
		}
	}
}
