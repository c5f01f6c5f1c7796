package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/medportal/libs/httpx"
	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/booking"
	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/directory"
)

type slotsResponse struct {
	DoctorID string   `json:"doctor_id"`
	Date     string   `json:"date"`
	Seq      uint64   `json:"seq"`
	Stale    bool     `json:"stale"`
	Degraded bool     `json:"degraded,omitempty"`
	Slots    []string `json:"slots"`
}

type daysResponse struct {
	DoctorID string   `json:"doctor_id"`
	Month    string   `json:"month"`
	Days     []string `json:"days"`
}

func (h *PortalHandler) Doctors(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}
	sess := sessionFrom(r.Context())
	doctors, err := h.dir.Doctors(r.Context(), sess.Token)
	if err != nil {
		h.writeUpstreamError(w, r, "doctors", err)
		return
	}
	q := r.URL.Query()
	httpx.WriteJSON(w, http.StatusOK, directory.Filter(doctors, q.Get("specialty"), q.Get("q")))
}

func (h *PortalHandler) Specialties(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}
	sess := sessionFrom(r.Context())
	doctors, err := h.dir.Doctors(r.Context(), sess.Token)
	if err != nil {
		h.writeUpstreamError(w, r, "specialties", err)
		return
	}
	specialties := directory.Specialties(doctors)
	if specialties == nil {
		specialties = []string{}
	}
	httpx.WriteJSON(w, http.StatusOK, specialties)
}

func (h *PortalHandler) Days(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}
	sess := sessionFrom(r.Context())
	doctorID := strings.TrimSpace(r.URL.Query().Get("doctor_id"))
	rawMonth := strings.TrimSpace(r.URL.Query().Get("month"))
	month, err := time.ParseInLocation("2006-01", rawMonth, time.Local)
	if err != nil {
		http.Error(w, "month must be yyyy-MM", http.StatusBadRequest)
		return
	}

	days, err := h.orch.AvailableDays(r.Context(), sess, doctorID, month)
	switch {
	case errors.Is(err, booking.ErrMissingContext):
		http.Error(w, "doctor_id required", http.StatusBadRequest)
		return
	case errors.Is(err, booking.ErrUnknownDoctor):
		http.Error(w, "doctor not found", http.StatusNotFound)
		return
	case err != nil:
		h.writeUpstreamError(w, r, "days", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, daysResponse{DoctorID: doctorID, Month: rawMonth, Days: days})
}

// Slots answers the free slots of the selection. A selection superseded by a
// newer request of the same session while this one ran comes back stale and empty.
func (h *PortalHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}
	sess := sessionFrom(r.Context())
	doctorID := strings.TrimSpace(r.URL.Query().Get("doctor_id"))
	rawDate := strings.TrimSpace(r.URL.Query().Get("date"))

	var date time.Time
	if rawDate != "" {
		var err error
		date, err = time.ParseInLocation(booking.DateLayout, rawDate, time.Local)
		if err != nil {
			http.Error(w, "date must be yyyy-MM-dd", http.StatusBadRequest)
			return
		}
	}

	ticket := h.tracker.Begin(sess.ID, booking.SelectionKey(doctorID, date))
	resp := slotsResponse{DoctorID: doctorID, Date: rawDate, Seq: ticket.Seq, Slots: []string{}}

	slots, err := h.orch.FreeSlots(r.Context(), sess, doctorID, date)
	switch {
	case err == nil:
		resp.Slots = slots
	case errors.Is(err, booking.ErrMissingContext):
	default:
		h.logger.Warn("availability fetch failed", "doctor_id", doctorID, "date", rawDate, "err", err)
		resp.Degraded = true
	}

	if !h.tracker.Current(ticket) {
		resp.Stale = true
		resp.Slots = []string{}
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}
