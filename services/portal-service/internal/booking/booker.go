package booking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/availability"
	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/medapi"
	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/outbox"
	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/session"
)

type AppointmentAPI interface {
	AppointmentSource
	CreateAppointment(ctx context.Context, token string, req medapi.CreateAppointmentRequest) (medapi.Appointment, error)
}

// Booker submits appointment creation requests. The remote API is authoritative;
// the check made here only spares a round trip for slots that are visibly taken.
type Booker struct {
	api    AppointmentAPI
	events outbox.Recorder
	logger *slog.Logger
	now    func() time.Time
}

// NewBooker builds a Booker. events may be nil.
func NewBooker(api AppointmentAPI, events outbox.Recorder, logger *slog.Logger) *Booker {
	if events == nil {
		events = outbox.Discard{}
	}
	return &Booker{api: api, events: events, logger: logger, now: time.Now}
}

// Book reserves label on date. A slot found taken, before or at submission, yields
// ErrSlotUnavailable. Book never retries.
func (b *Booker) Book(ctx context.Context, sess session.Session, doctorID string, date time.Time, label string) (medapi.Appointment, error) {
	if doctorID == "" || date.IsZero() || sess.Token == "" || sess.User.ID == "" {
		return medapi.Appointment{}, ErrMissingContext
	}
	slot, err := availability.ParseLabel(label)
	if err != nil {
		return medapi.Appointment{}, err
	}
	day := date.Format(DateLayout)

	appts, err := b.api.DoctorAppointments(ctx, sess.Token, doctorID)
	if err != nil {
		return medapi.Appointment{}, fmt.Errorf("check slot: %w", err)
	}
	for _, a := range appts {
		if isCancelled(a) || !strings.HasPrefix(a.Date, day) {
			continue
		}
		if taken, err := availability.ParseLabel(a.Time); err == nil && taken == slot {
			b.record(ctx, outbox.EventBookingConflict, sess, doctorID, day, slot.Label(), "", "taken before submission")
			return medapi.Appointment{}, ErrSlotUnavailable
		}
	}

	created, err := b.api.CreateAppointment(ctx, sess.Token, medapi.CreateAppointmentRequest{
		UserID:        sess.User.ID,
		DoctorID:      doctorID,
		Date:          day,
		Time:          slot.Label(),
		Status:        medapi.StatusScheduled,
		PaymentStatus: medapi.PaymentPending,
	})
	if err != nil {
		if medapi.IsRejection(err) {
			b.record(ctx, outbox.EventBookingConflict, sess, doctorID, day, slot.Label(), "", err.Error())
			return medapi.Appointment{}, fmt.Errorf("%w: %v", ErrSlotUnavailable, err)
		}
		return medapi.Appointment{}, fmt.Errorf("create appointment: %w", err)
	}

	b.record(ctx, outbox.EventAppointmentBooked, sess, doctorID, day, slot.Label(), created.ID, "")
	b.logger.Info("appointment booked", "appointment_id", created.ID, "doctor_id", doctorID, "date", day, "time", slot.Label())
	return created, nil
}

func (b *Booker) record(ctx context.Context, eventType string, sess session.Session, doctorID, day, label, appointmentID, reason string) {
	evt, err := outbox.NewBookingEvent(eventType, outbox.BookingPayload{
		AppointmentID: appointmentID,
		UserID:        sess.User.ID,
		DoctorID:      doctorID,
		Date:          day,
		Time:          label,
		Reason:        reason,
		OccurredAt:    b.now().UTC(),
	})
	if err == nil {
		err = b.events.Record(ctx, evt)
	}
	if err != nil {
		b.logger.Warn("booking event not recorded", "event_type", eventType, "err", err)
	}
}
