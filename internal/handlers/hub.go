// internal/handlers/hub.go
package handlers

import (
	"sync"

	"github.com/jason-s-yu/beergame/internal/game"
)

// Hub fans session changes out to the sockets watching each room. Notifications carry no
// payload: a subscriber rebuilds its own view, so a slow socket only ever misses
// intermediate states, never the latest one.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[*Subscription]struct{}
}

// Subscription is one socket's interest in a room.
type Subscription struct {
	// C receives a value whenever the room changed since the last receive.
	C <-chan struct{}

	c    chan struct{}
	room string
	hub  *Hub
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*Subscription]struct{})}
}

// Subscribe starts watching roomCode.
func (h *Hub) Subscribe(roomCode string) *Subscription {
	c := make(chan struct{}, 1)
	sub := &Subscription{C: c, c: c, room: roomCode, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[roomCode] == nil {
		h.subs[roomCode] = make(map[*Subscription]struct{})
	}
	h.subs[roomCode][sub] = struct{}{}
	return sub
}

// Close stops the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	h := s.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[s.room]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.subs, s.room)
		}
	}
}

// Notify marks ev's room as changed for every subscriber. It never blocks, so it can run
// under the session lock.
func (h *Hub) Notify(ev game.GameEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[ev.RoomCode] {
		select {
		case sub.c <- struct{}{}:
		default:
		}
	}
}

// Count returns the number of subscribers watching roomCode.
func (h *Hub) Count(roomCode string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[roomCode])
}
