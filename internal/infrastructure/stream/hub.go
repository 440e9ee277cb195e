// Package stream fans status events out to live-view websocket subscribers.
// Subscribers join a room keyed by route id; publishing never blocks, slow
// subscribers lose events instead.
package stream

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/rotafacil/fleet-engine/internal/api/metrics"
	"github.com/rotafacil/fleet-engine/internal/core/domain"
)

const subscriberBuffer = 32

// Subscription is one subscriber's view of a route room. Events arrive on C;
// the channel is closed when the subscription is cancelled.
type Subscription struct {
	C       chan domain.StatusEvent
	routeID string
	once    sync.Once
}

// Hub is an in-process fan-out of status events, one room per route.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Subscription]struct{}
	log   zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		rooms: make(map[string]map[*Subscription]struct{}),
		log:   log,
	}
}

// Subscribe joins the room for routeID. The caller must Unsubscribe when done.
func (h *Hub) Subscribe(routeID string) *Subscription {
	sub := &Subscription{
		C:       make(chan domain.StatusEvent, subscriberBuffer),
		routeID: routeID,
	}

	h.mu.Lock()
	room, ok := h.rooms[routeID]
	if !ok {
		room = make(map[*Subscription]struct{})
		h.rooms[routeID] = room
	}
	room[sub] = struct{}{}
	h.mu.Unlock()

	metrics.StreamSubscribers.Inc()
	return sub
}

// Unsubscribe removes the subscription from its room and closes its channel.
// Safe to call more than once.
func (h *Hub) Unsubscribe(sub *Subscription) {
	sub.once.Do(func() {
		h.mu.Lock()
		if room, ok := h.rooms[sub.routeID]; ok {
			delete(room, sub)
			if len(room) == 0 {
				delete(h.rooms, sub.routeID)
			}
		}
		h.mu.Unlock()

		close(sub.C)
		metrics.StreamSubscribers.Dec()
	})
}

// Publish delivers the event to every subscriber of its route room. Slow
// subscribers have the event dropped rather than blocking the caller.
func (h *Hub) Publish(e domain.StatusEvent) {
	h.mu.RLock()
	room := h.rooms[e.RouteID]
	for sub := range room {
		select {
		case sub.C <- e:
		default:
			metrics.StreamDroppedTotal.Inc()
			h.log.Warn().
				Str("route_id", e.RouteID).
				Str("event_type", string(e.Type)).
				Msg("dropped event on slow subscriber")
		}
	}
	h.mu.RUnlock()
}

// Subscribers returns the number of live subscribers for a route.
func (h *Hub) Subscribers(routeID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[routeID])
}
