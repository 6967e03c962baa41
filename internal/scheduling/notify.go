package scheduling

import "context"

// EventType identifies which lifecycle transition produced an event.
type EventType string

const (
	EventBooked      EventType = "booked"
	EventConfirmed   EventType = "confirmed"
	EventCancelled   EventType = "cancelled"
	EventRescheduled EventType = "rescheduled"
	EventCompleted   EventType = "completed"
)

// Event describes a lifecycle transition for notification purposes.
type Event struct {
	AppointmentID   string
	RecipientUserID string
	Type            EventType
	Payload         map[string]string
}

// NotificationTrigger consumes lifecycle transition events,
// fire-and-forget. Implementations must not block the caller and must
// swallow delivery failures; the triggering transition never fails
// because a notification could not be sent.
type NotificationTrigger interface {
	Notify(ctx context.Context, event Event)
}

// NopTrigger discards all events.
type NopTrigger struct{}

func (NopTrigger) Notify(context.Context, Event) {}
