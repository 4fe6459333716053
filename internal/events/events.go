package events

import (
	"encoding/json"
	"sync"
	"time"
)

// Change-event types delivered by the backend's push channel. Payload shape
// does not matter to the console: any recognized type triggers a full
// refresh, never a delta.
const (
	EventReservationCreated = "reservation.created"
	EventReservationUpdated = "reservation.updated"
	EventReservationDeleted = "reservation.deleted"
)

// Internal console events.
const (
	EventSnapshotRefreshed = "snapshot.refreshed"
	EventActionSucceeded   = "action.succeeded"
	EventActionFailed      = "action.failed"
)

// IsChangeEvent reports whether the type is one of the backend change events.
func IsChangeEvent(eventType string) bool {
	switch eventType {
	case EventReservationCreated, EventReservationUpdated, EventReservationDeleted:
		return true
	}
	return false
}

// SnapshotPayload describes a completed refresh for event consumers.
type SnapshotPayload struct {
	Count      int       `json:"count"`
	FetchedAt  time.Time `json:"fetched_at"`
	DurationMS int64     `json:"duration_ms"`
}

// ActionPayload describes a row-action outcome (SMS, receipt, calendar sync,
// status change, delete).
type ActionPayload struct {
	Action        string `json:"action"`
	ReservationID string `json:"reservation_id"`
	Message       string `json:"message,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
