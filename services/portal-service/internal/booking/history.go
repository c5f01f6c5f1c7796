package booking

import (
	"strings"

	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/medapi"
)

// History keeps completed appointments matching the doctor specialty ("" or "all" for any)
// and whose doctor name contains query.
func History(appts []medapi.Appointment, specialty, query string) []medapi.Appointment {
	specialty = strings.TrimSpace(specialty)
	if strings.EqualFold(specialty, "all") {
		specialty = ""
	}
	query = strings.ToLower(strings.TrimSpace(query))

	out := make([]medapi.Appointment, 0, len(appts))
	for _, a := range appts {
		if !strings.EqualFold(a.Status, medapi.StatusCompleted) {
			continue
		}
		var doc medapi.DoctorSummary
		if a.Doctor != nil {
			doc = *a.Doctor
		}
		if specialty != "" && !strings.EqualFold(doc.Specialty, specialty) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(doc.Name), query) {
			continue
		}
		out = append(out, a)
	}
	return out
}
