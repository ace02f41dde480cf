package events

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const (
	EventBookingCreated      = "booking_created"
	EventBookingEdited       = "booking_edited"
	EventBookingCancelled    = "booking_cancelled"
	EventClientsMerged       = "clients_merged"
	EventClientsDeduplicated = "clients_deduplicated"
)

// BookingEventPayload describes the booking snapshot for event consumers.
type BookingEventPayload struct {
	BookingID   int64  `json:"booking_id"`
	RoomNumber  int    `json:"room_number"`
	Date        string `json:"date"`
	BookingType string `json:"booking_type"`
	StartHour   int    `json:"start_hour"`
	Duration    int    `json:"duration"`
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name"`
	Price       int    `json:"price"`
}

type CancellationEventPayload struct {
	CancellationID int64     `json:"cancellation_id"`
	BookingID      int64     `json:"booking_id"`
	RoomNumber     int       `json:"room_number"`
	Date           string    `json:"date"`
	UserID         string    `json:"user_id"`
	Price          int       `json:"price"`
	CancelledAt    time.Time `json:"cancelled_at"`
}

type MergeEventPayload struct {
	SourceUserID  string `json:"source_user_id"`
	TargetUserID  string `json:"target_user_id"`
	Bookings      int64  `json:"bookings"`
	Cancellations int64  `json:"cancellations"`
}

type DedupEventPayload struct {
	Rewritten int64 `json:"rewritten"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
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
	seq         atomic.Int64
	logger      *zerolog.Logger
}

// NewEventBus constructs an empty bus. Handler errors are logged when logger is set.
func NewEventBus(logger *zerolog.Logger) *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler), logger: logger}
}

// Subscribe registers a handler for the given event types.
func (b *EventBus) Subscribe(handler EventHandler, eventTypes ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range eventTypes {
		b.subscribers[t] = append(b.subscribers[t], handler)
	}
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.ID == 0 {
		event.ID = b.seq.Add(1)
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		if err := handler(event); err != nil && b.logger != nil {
			b.logger.Warn().Err(err).Str("event", event.Type).Int64("event_id", event.ID).Msg("event handler failed")
		}
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

// LogHandler writes every event it receives to the logger at info level.
func LogHandler(logger *zerolog.Logger) EventHandler {
	return func(event *Event) error {
		logger.Info().
			Int64("event_id", event.ID).
			Str("event", event.Type).
			RawJSON("payload", event.Payload).
			Msg("domain event")
		return nil
	}
}

// AllTypes lists every event type the booking engine emits.
func AllTypes() []string {
	return []string{
		EventBookingCreated,
		EventBookingEdited,
		EventBookingCancelled,
		EventClientsMerged,
		EventClientsDeduplicated,
	}
}
