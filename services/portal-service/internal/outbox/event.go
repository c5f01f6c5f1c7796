package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event is the envelope written to the outbox table.
// The Kafka topic name equals EventType.
type Event struct {
	EventID       string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

const (
	EventAppointmentBooked = "portal.appointment.booked.v1"
	EventBookingConflict   = "portal.booking.conflict.v1"
)

// BookingPayload is the body of both booking events.
type BookingPayload struct {
	AppointmentID string    `json:"appointment_id,omitempty"`
	UserID        string    `json:"user_id"`
	DoctorID      string    `json:"doctor_id"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func NewBookingEvent(eventType string, p BookingPayload) (Event, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return Event{}, err
	}
	return Event{
		EventID:       uuid.NewString(),
		AggregateType: "doctor",
		AggregateID:   p.DoctorID,
		EventType:     eventType,
		Payload:       raw,
	}, nil
}

// Recorder stores events for later publication.
type Recorder interface {
	Record(ctx context.Context, evt Event) error
}

// Discard is the Recorder used when no database is configured.
type Discard struct{}

func (Discard) Record(context.Context, Event) error { return nil }
