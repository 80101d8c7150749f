package chat

import "sync"

// Subscriber is an opaque handle the hub delivers payloads to.
// Deliver must never block; it reports false when the subscriber can
// no longer accept payloads and should be dropped from the room.
type Subscriber interface {
	ID() string
	Deliver(payload []byte) bool
}

// Hub is the fan-out core: one index entry per room, one handle per
// live session. Room sets carry their own mutex so unrelated rooms
// never contend; the hub mutex only guards the index itself.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*roomSet
}

type roomSet struct {
	mu      sync.Mutex
	members map[string]Subscriber
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]*roomSet)}
}

// Join registers the handle under the room. Re-joining with the same
// session ID is a no-op.
func (h *Hub) Join(room string, sub Subscriber) {
	h.mu.Lock()
	rs, ok := h.rooms[room]
	if !ok {
		rs = &roomSet{members: make(map[string]Subscriber)}
		h.rooms[room] = rs
	}
	rs.mu.Lock()
	rs.members[sub.ID()] = sub
	rs.mu.Unlock()
	h.mu.Unlock()
}

// Leave removes the handle. When the last member leaves, the room's
// index entry is pruned; this frees hub memory only and never touches
// the durable room record.
func (h *Hub) Leave(room string, sub Subscriber) {
	h.mu.RLock()
	rs := h.rooms[room]
	h.mu.RUnlock()
	if rs == nil {
		return
	}

	rs.mu.Lock()
	delete(rs.members, sub.ID())
	empty := len(rs.members) == 0
	rs.mu.Unlock()

	if !empty {
		return
	}
	h.mu.Lock()
	if cur := h.rooms[room]; cur == rs {
		cur.mu.Lock()
		if len(cur.members) == 0 {
			delete(h.rooms, room)
		}
		cur.mu.Unlock()
	}
	h.mu.Unlock()
}

// Broadcast delivers the payload to every handle registered under the
// room at the moment of the call. Delivery is fire-and-forget per
// handle: the member set is snapshotted, no lock is held while
// sending, and a handle that refuses delivery is dropped without
// affecting the remaining recipients.
func (h *Hub) Broadcast(room string, payload []byte) {
	h.mu.RLock()
	rs := h.rooms[room]
	h.mu.RUnlock()
	if rs == nil {
		return
	}

	rs.mu.Lock()
	subs := make([]Subscriber, 0, len(rs.members))
	for _, sub := range rs.members {
		subs = append(subs, sub)
	}
	rs.mu.Unlock()

	var dropped []Subscriber
	for _, sub := range subs {
		if !sub.Deliver(payload) {
			dropped = append(dropped, sub)
		}
	}
	for _, sub := range dropped {
		h.Leave(room, sub)
	}
}

// Occupancy reports how many handles are registered under the room.
func (h *Hub) Occupancy(room string) int {
	h.mu.RLock()
	rs := h.rooms[room]
	h.mu.RUnlock()
	if rs == nil {
		return 0
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.members)
}
