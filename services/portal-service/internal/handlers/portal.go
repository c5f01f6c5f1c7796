package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/medportal/libs/auth"
	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/booking"
	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/directory"
	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/medapi"
	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/session"
)

// RemoteAPI is the part of the medical API the handlers call directly.
type RemoteAPI interface {
	Login(ctx context.Context, email, password string) (medapi.LoginResult, error)
	Register(ctx context.Context, req medapi.RegisterRequest) error
	Me(ctx context.Context, token string) (medapi.User, error)
	UserAppointments(ctx context.Context, token, userID string) ([]medapi.Appointment, error)
	CancelAppointment(ctx context.Context, token, appointmentID, requesterID, requesterRole string) error
	DeleteAppointment(ctx context.Context, token, appointmentID string) error
	GetUser(ctx context.Context, token, userID string) (medapi.User, error)
	UpdateUser(ctx context.Context, token, userID string, update medapi.ProfileUpdate) error
	DeleteUser(ctx context.Context, token, userID string) error
}

type Deps struct {
	API           RemoteAPI
	Sessions      session.Store
	Directory     *directory.Directory
	Orchestrator  *booking.Orchestrator
	Booker        *booking.Booker
	Tracker       *booking.Tracker
	Logger        *slog.Logger
	SessionMaxTTL time.Duration
}

type PortalHandler struct {
	api      RemoteAPI
	sessions session.Store
	dir      *directory.Directory
	orch     *booking.Orchestrator
	booker   *booking.Booker
	tracker  *booking.Tracker
	logger   *slog.Logger
	maxTTL   time.Duration
	now      func() time.Time
}

func NewPortalHandler(d Deps) *PortalHandler {
	if d.SessionMaxTTL <= 0 {
		d.SessionMaxTTL = 12 * time.Hour
	}
	if d.Tracker == nil {
		d.Tracker = booking.NewTracker()
	}
	return &PortalHandler{
		api:      d.API,
		sessions: d.Sessions,
		dir:      d.Directory,
		orch:     d.Orchestrator,
		booker:   d.Booker,
		tracker:  d.Tracker,
		logger:   d.Logger,
		maxTTL:   d.SessionMaxTTL,
		now:      time.Now,
	}
}

// Register mounts every portal route on mux.
func (h *PortalHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/auth/login", h.Login)
	mux.HandleFunc("/api/v1/auth/register", h.RegisterUser)
	mux.Handle("/api/v1/auth/logout", h.requireSession(h.Logout))
	mux.Handle("/api/v1/auth/me", h.requireSession(h.Me))

	mux.Handle("/api/v1/doctors", h.requireSession(h.Doctors))
	mux.Handle("/api/v1/specialties", h.requireSession(h.Specialties))
	mux.Handle("/api/v1/availability/days", h.requireSession(h.Days))
	mux.Handle("/api/v1/availability/slots", h.requireSession(h.Slots))

	mux.Handle("/api/v1/appointments", h.requireSession(h.Appointments))
	mux.Handle("/api/v1/appointments/book", h.requireSession(h.Book))
	mux.Handle("/api/v1/appointments/history", h.requireSession(h.History))
	mux.Handle("/api/v1/appointments/calendar", h.requireSession(h.Calendar))
	mux.Handle("/api/v1/appointments/cancel", h.requireSession(h.Cancel))
	mux.Handle("/api/v1/appointments/delete", h.requireSession(h.Delete))

	mux.Handle("/api/v1/profile", h.requireSession(h.Profile))
	mux.HandleFunc("/api/v1/services", h.Services)
}

type ctxKey int

const ctxKeySession ctxKey = iota

func sessionFrom(ctx context.Context) session.Session {
	s, _ := ctx.Value(ctxKeySession).(session.Session)
	return s
}

func (h *PortalHandler) requireSession(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.BearerToken(r)
		if !ok {
			http.Error(w, "missing session", http.StatusUnauthorized)
			return
		}
		sess, err := h.sessions.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				http.Error(w, "session expired", http.StatusUnauthorized)
				return
			}
			h.logger.Error("session lookup failed", "err", err)
			http.Error(w, "session store unavailable", http.StatusServiceUnavailable)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeySession, sess)))
	})
}

// writeUpstreamError maps a medical API failure to the portal reply.
func (h *PortalHandler) writeUpstreamError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, medapi.ErrUnauthorized):
		http.Error(w, "not authorized by the medical api", http.StatusUnauthorized)
	case errors.Is(err, medapi.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.Warn("medical api timed out", "op", op, "err", err)
		http.Error(w, "medical api timed out", http.StatusGatewayTimeout)
	default:
		var se *medapi.StatusError
		if errors.As(err, &se) && se.StatusCode < 500 {
			msg := se.Message
			if msg == "" {
				msg = http.StatusText(se.StatusCode)
			}
			http.Error(w, msg, se.StatusCode)
			return
		}
		h.logger.Error("medical api call failed", "op", op, "path", r.URL.Path, "err", err)
		http.Error(w, "medical api unavailable", http.StatusBadGateway)
	}
}

func methodAllowed(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}
