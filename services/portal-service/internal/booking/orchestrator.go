package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/availability"
	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/medapi"
	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/session"
)

var (
	ErrMissingContext  = errors.New("doctor, date and session are required")
	ErrUnknownDoctor   = errors.New("doctor not found")
	ErrSlotUnavailable = errors.New("slot is no longer available")
)

// DateLayout is the ISO date used on the wire.
const DateLayout = "2006-01-02"

type AppointmentSource interface {
	DoctorAppointments(ctx context.Context, token, doctorID string) ([]medapi.Appointment, error)
}

type DoctorFinder interface {
	Find(ctx context.Context, token, doctorID string) (medapi.Doctor, bool, error)
}

// Orchestrator computes the free slots of a doctor on a date.
type Orchestrator struct {
	appointments AppointmentSource
	doctors      DoctorFinder
	slotLength   time.Duration
	logger       *slog.Logger
}

func NewOrchestrator(appointments AppointmentSource, doctors DoctorFinder, slotLength time.Duration, logger *slog.Logger) *Orchestrator {
	if slotLength <= 0 {
		slotLength = availability.DefaultSlotLength
	}
	return &Orchestrator{
		appointments: appointments,
		doctors:      doctors,
		slotLength:   slotLength,
		logger:       logger,
	}
}

// ComputeFreeSlots returns the free slot labels in chronological order.
// Missing context and every fetch failure yield an empty list.
func (o *Orchestrator) ComputeFreeSlots(ctx context.Context, sess session.Session, doctorID string, date time.Time) []string {
	labels, err := o.FreeSlots(ctx, sess, doctorID, date)
	if err != nil {
		if !errors.Is(err, ErrMissingContext) {
			o.logger.Warn("availability fetch failed", "doctor_id", doctorID, "date", date.Format(DateLayout), "err", err)
		}
		return []string{}
	}
	return labels
}

// FreeSlots is ComputeFreeSlots with the failure reported to the caller.
func (o *Orchestrator) FreeSlots(ctx context.Context, sess session.Session, doctorID string, date time.Time) ([]string, error) {
	if doctorID == "" || date.IsZero() || sess.Token == "" {
		return []string{}, ErrMissingContext
	}

	doc, ok, err := o.doctors.Find(ctx, sess.Token, doctorID)
	if err != nil {
		return []string{}, fmt.Errorf("load doctors: %w", err)
	}
	if !ok {
		return []string{}, ErrMissingContext
	}

	appts, err := o.appointments.DoctorAppointments(ctx, sess.Token, doctorID)
	if err != nil {
		return []string{}, fmt.Errorf("load appointments: %w", err)
	}

	booked := o.bookedIntervals(appts, doctorID, date)
	candidates := availability.SortUnique(availability.GenerateSlots(o.workingHours(doc, date.Weekday()), o.slotLength))
	return availability.Labels(availability.FilterAvailable(candidates, booked)), nil
}

func (o *Orchestrator) bookedIntervals(appts []medapi.Appointment, doctorID string, date time.Time) []availability.Interval {
	day := date.Format(DateLayout)
	var booked []availability.Interval
	for _, a := range appts {
		if !strings.HasPrefix(a.Date, day) || isCancelled(a) {
			continue
		}
		iv, err := availability.ParseLabel(a.Time)
		if err != nil {
			o.logger.Warn("skipping malformed booked interval", "doctor_id", doctorID, "appointment_id", a.ID, "err", err)
			continue
		}
		booked = append(booked, iv)
	}
	return booked
}

func (o *Orchestrator) workingHours(doc medapi.Doctor, weekday time.Weekday) []availability.WorkingHoursEntry {
	ranges := hoursForWeekday(doc.AvailableHours, availability.WeekdayName(weekday))
	entries := make([]availability.WorkingHoursEntry, 0, len(ranges))
	for _, r := range ranges {
		start, err := availability.ParseClock(r.Start)
		if err != nil {
			o.logger.Warn("skipping malformed working hours", "doctor_id", doc.ID, "err", err)
			continue
		}
		end, err := availability.ParseClock(r.End)
		if err != nil {
			o.logger.Warn("skipping malformed working hours", "doctor_id", doc.ID, "err", err)
			continue
		}
		entries = append(entries, availability.WorkingHoursEntry{Start: start, End: end})
	}
	return entries
}

// AvailableDays lists the selectable dates of month for a doctor.
func (o *Orchestrator) AvailableDays(ctx context.Context, sess session.Session, doctorID string, month time.Time) ([]string, error) {
	if doctorID == "" || month.IsZero() || sess.Token == "" {
		return []string{}, ErrMissingContext
	}
	doc, ok, err := o.doctors.Find(ctx, sess.Token, doctorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnknownDoctor
	}
	days := availability.AvailableDays(month, doc.AvailableDays)
	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, d.Format(DateLayout))
	}
	return out, nil
}

// hoursForWeekday tolerates "Monday" style keys.
func hoursForWeekday(hours map[string][]medapi.HoursRange, weekday string) []medapi.HoursRange {
	if r, ok := hours[weekday]; ok {
		return r
	}
	for k, r := range hours {
		if strings.EqualFold(strings.TrimSpace(k), weekday) {
			return r
		}
	}
	return nil
}

func isCancelled(a medapi.Appointment) bool {
	return strings.EqualFold(a.Status, medapi.StatusCancelled)
}
