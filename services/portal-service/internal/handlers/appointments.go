package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/medportal/libs/httpx"
	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/availability"
	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/booking"
	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/medapi"
)

type bookRequest struct {
	DoctorID string `json:"doctor_id"`
	Date     string `json:"date"`
	Time     string `json:"time"`
}

type appointmentRequest struct {
	AppointmentID string `json:"appointment_id"`
}

func (h *PortalHandler) Book(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPost) {
		return
	}
	var req bookRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	date, err := time.ParseInLocation(booking.DateLayout, strings.TrimSpace(req.Date), time.Local)
	if err != nil {
		http.Error(w, "date must be yyyy-MM-dd", http.StatusBadRequest)
		return
	}

	sess := sessionFrom(r.Context())
	appt, err := h.booker.Book(r.Context(), sess, strings.TrimSpace(req.DoctorID), date, req.Time)
	switch {
	case err == nil:
		httpx.WriteJSON(w, http.StatusCreated, appt)
	case errors.Is(err, booking.ErrSlotUnavailable):
		http.Error(w, "the selected slot is no longer available, please pick another one", http.StatusConflict)
	case errors.Is(err, booking.ErrMissingContext):
		http.Error(w, "doctor_id, date and time required", http.StatusBadRequest)
	case errors.Is(err, availability.ErrInvalidLabel):
		http.Error(w, "time must be HH:MM - HH:MM", http.StatusBadRequest)
	default:
		h.writeUpstreamError(w, r, "book", err)
	}
}

func (h *PortalHandler) Appointments(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}
	appts, ok := h.userAppointments(w, r)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, appts)
}

// Calendar lays the patient's appointments out as calendar events.
func (h *PortalHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}
	appts, ok := h.userAppointments(w, r)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, booking.CalendarEvents(appts))
}

func (h *PortalHandler) History(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}
	appts, ok := h.userAppointments(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	httpx.WriteJSON(w, http.StatusOK, booking.History(appts, q.Get("specialty"), q.Get("q")))
}

func (h *PortalHandler) userAppointments(w http.ResponseWriter, r *http.Request) ([]medapi.Appointment, bool) {
	sess := sessionFrom(r.Context())
	appts, err := h.api.UserAppointments(r.Context(), sess.Token, sess.User.ID)
	if err != nil {
		h.writeUpstreamError(w, r, "appointments", err)
		return nil, false
	}
	if appts == nil {
		appts = []medapi.Appointment{}
	}
	return appts, true
}

func (h *PortalHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPost) {
		return
	}
	id, ok := decodeAppointmentID(w, r)
	if !ok {
		return
	}
	sess := sessionFrom(r.Context())
	if err := h.api.CancelAppointment(r.Context(), sess.Token, id, sess.User.ID, sess.User.Role); err != nil {
		h.writeUpstreamError(w, r, "cancel", err)
		return
	}
	h.logger.Info("appointment cancelled", "appointment_id", id, "user_id", sess.User.ID)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"appointment_id": id, "status": medapi.StatusCancelled})
}

func (h *PortalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPost) {
		return
	}
	id, ok := decodeAppointmentID(w, r)
	if !ok {
		return
	}
	sess := sessionFrom(r.Context())
	if err := h.api.DeleteAppointment(r.Context(), sess.Token, id); err != nil {
		h.writeUpstreamError(w, r, "delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeAppointmentID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req appointmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return "", false
	}
	id := strings.TrimSpace(req.AppointmentID)
	if id == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return "", false
	}
	return id, true
}
