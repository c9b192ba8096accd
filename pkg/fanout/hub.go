package fanout

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/fleetlive/fleetlive/pkg/transit"
	"github.com/rs/zerolog/log"
)

const sendBufferSize = 64

// Connection is the transport-side handle for one subscriber. Send must be
// safe to call from the hub's writer goroutine.
type Connection interface {
	Send(payload []byte) error
	Close() error
}

// Snapshotter provides the point-in-time live vehicle view sent to viewers
// on request.
type Snapshotter interface {
	LatestForActiveVehicles(ctx context.Context, routeRef string) ([]transit.LiveVehicle, error)
}

// Metrics is an optional hook for delivery counters.
type Metrics interface {
	EventDelivered()
	EventDropped()
	SubscribersSet(count int)
}

type Subscription struct {
	RouteRef string

	send chan []byte
}

// Envelope is the wire shape of every message pushed to a subscriber.
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type snapshotPayload struct {
	Vehicles  []transit.LiveVehicle `json:"vehicles"`
	Timestamp time.Time             `json:"timestamp"`
}

// Hub tracks the currently-connected viewer sessions and fans events out to
// them. Each subscription gets a buffered send channel drained by its own
// writer goroutine, so one slow or dead connection never delays the others.
type Hub struct {
	snapshots Snapshotter
	metrics   Metrics

	mu            sync.RWMutex
	subscriptions map[Connection]*Subscription
}

func NewHub(snapshots Snapshotter, metrics Metrics) *Hub {
	return &Hub{
		snapshots: snapshots,
		metrics:   metrics,

		subscriptions: map[Connection]*Subscription{},
	}
}

// Subscribe registers a connection for event delivery. An empty routeRef
// subscribes to events for all routes.
func (h *Hub) Subscribe(connection Connection, routeRef string) *Subscription {
	subscription := &Subscription{
		RouteRef: routeRef,

		send: make(chan []byte, sendBufferSize),
	}

	h.mu.Lock()
	h.subscriptions[connection] = subscription
	subscriberCount := len(h.subscriptions)
	h.mu.Unlock()

	go h.writePump(connection, subscription)

	h.subscribersChanged(subscriberCount)

	return subscription
}

// Unsubscribe removes a connection; subsequent publishes never reach it.
// Safe to call more than once.
func (h *Hub) Unsubscribe(connection Connection) {
	h.mu.Lock()
	subscription, exists := h.subscriptions[connection]
	if exists {
		delete(h.subscriptions, connection)
		close(subscription.send)
	}
	subscriberCount := len(h.subscriptions)
	h.mu.Unlock()

	if exists {
		h.subscribersChanged(subscriberCount)
	}
}

// Publish delivers an event to every subscription matching its route
// filter. Delivery is best-effort: a subscriber with a full send buffer has
// the event dropped rather than delaying anyone else.
func (h *Hub) Publish(event transit.Event) {
	payload, err := json.Marshal(Envelope{
		Type: string(event.Type),
		Data: eventData(event),
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, subscription := range h.subscriptions {
		if subscription.RouteRef != "" && subscription.RouteRef != event.RouteRef {
			continue
		}

		select {
		case subscription.send <- payload:
			if h.metrics != nil {
				h.metrics.EventDelivered()
			}
		default:
			if h.metrics != nil {
				h.metrics.EventDropped()
			}
			log.Warn().Str("route", subscription.RouteRef).Msg("Subscriber send buffer full, dropping event")
		}
	}
}

// SnapshotTo sends the current live vehicle view to one connection only.
func (h *Hub) SnapshotTo(ctx context.Context, connection Connection, routeRef string) error {
	liveVehicles, err := h.snapshots.LatestForActiveVehicles(ctx, routeRef)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(Envelope{
		Type: "vehicles:list",
		Data: snapshotPayload{
			Vehicles:  liveVehicles,
			Timestamp: time.Now().UTC(),
		},
	})
	if err != nil {
		return err
	}

	h.mu.RLock()
	subscription, exists := h.subscriptions[connection]
	if exists {
		// queued behind pending events so the connection sees a consistent order
		select {
		case subscription.send <- payload:
		default:
			log.Warn().Msg("Subscriber send buffer full, dropping snapshot")
		}
		h.mu.RUnlock()
		return nil
	}
	h.mu.RUnlock()

	return connection.Send(payload)
}

func (h *Hub) writePump(connection Connection, subscription *Subscription) {
	broken := false

	for payload := range subscription.send {
		if broken {
			continue
		}

		if err := connection.Send(payload); err != nil {
			log.Debug().Err(err).Msg("Dropping broken subscriber connection")
			broken = true

			connection.Close()

			// closes the channel, ending this loop once drained
			go h.Unsubscribe(connection)
		}
	}
}

func (h *Hub) subscribersChanged(count int) {
	if h.metrics != nil {
		h.metrics.SubscribersSet(count)
	}
}

func eventData(event transit.Event) interface{} {
	switch event.Type {
	case transit.EventTypeVehicleUpdate:
		return event.Update
	case transit.EventTypeVehicleStatus:
		return event.StatusChange
	}

	return nil
}
