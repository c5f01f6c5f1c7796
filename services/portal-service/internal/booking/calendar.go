package booking

import (
	"strings"
	"time"

	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/availability"
	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/medapi"
)

// CalendarEvent is one appointment laid out for a month or week calendar.
// Start and End are local wall-clock times without a zone, "2006-01-02T15:04".
type CalendarEvent struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Status    string `json:"status"`
	Specialty string `json:"specialty,omitempty"`
	Time      string `json:"time"`
}

const genderFemale = "femenino"

// CalendarEvents maps appointments to calendar events in input order.
// Records whose date or time label cannot be read are left out.
func CalendarEvents(appts []medapi.Appointment) []CalendarEvent {
	out := make([]CalendarEvent, 0, len(appts))
	for _, a := range appts {
		if len(a.Date) < len(DateLayout) {
			continue
		}
		day, err := time.Parse(DateLayout, a.Date[:len(DateLayout)])
		if err != nil {
			continue
		}
		iv, err := availability.ParseLabel(a.Time)
		if err != nil {
			continue
		}
		prefix := day.Format(DateLayout) + "T"
		evt := CalendarEvent{
			ID:     a.ID,
			Start:  prefix + iv.Start.String(),
			End:    prefix + iv.End.String(),
			Status: a.Status,
			Time:   iv.Label(),
		}
		if a.Doctor != nil {
			evt.Title = doctorTitle(*a.Doctor)
			evt.Specialty = a.Doctor.Specialty
		}
		out = append(out, evt)
	}
	return out
}

func doctorTitle(d medapi.DoctorSummary) string {
	if strings.EqualFold(strings.TrimSpace(d.Gender), genderFemale) {
		return "Dra. " + d.Name
	}
	return "Dr. " + d.Name
}
