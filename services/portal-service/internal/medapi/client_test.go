package medapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/md-rashed-zaman/medportal/libs/httpx"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL + "/", Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestNewClientRejectsBadURL(t *testing.T) {
	if _, err := NewClient(Config{BaseURL: "not a url"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestDoctorsAcceptsBothShapes(t *testing.T) {
	for name, body := range map[string]string{
		"array":    `[{"id":"d1","name":"Ana","specialty":"Cardiología","availableDays":["monday"]}]`,
		"envelope": `{"doctors":[{"id":"d1","name":"Ana","specialty":"Cardiología","availableDays":["monday"]}]}`,
	} {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/doctor" {
				t.Fatalf("unexpected path %s", r.URL.Path)
			}
			if r.Header.Get("Authorization") != "Bearer tok" {
				t.Fatalf("missing bearer token")
			}
			_, _ = w.Write([]byte(body))
		}))
		doctors, err := c.Doctors(context.Background(), "tok")
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if len(doctors) != 1 || doctors[0].ID != "d1" || doctors[0].AvailableDays[0] != "monday" {
			t.Fatalf("%s: unexpected doctors %+v", name, doctors)
		}
	}
}

func TestCreateAppointmentPayload(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/appointment/" {
			t.Fatalf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var got map[string]string
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got["status"] != "scheduled" || got["paymentStatus"] != "pending" || got["time"] != "10:00 - 10:30" {
			t.Fatalf("unexpected payload %v", got)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"a1","date":"2026-10-19","time":"10:00 - 10:30","status":"scheduled"}`))
	}))
	appt, err := c.CreateAppointment(context.Background(), "tok", CreateAppointmentRequest{
		UserID: "u1", DoctorID: "d1", Date: "2026-10-19", Time: "10:00 - 10:30",
		Status: StatusScheduled, PaymentStatus: PaymentPending,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if appt.ID != "a1" {
		t.Fatalf("unexpected appointment %+v", appt)
	}
}

func TestStatusErrors(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/me":
			http.Error(w, `{"message":"invalid token"}`, http.StatusUnauthorized)
		case "/api/doctor/missing":
			w.WriteHeader(http.StatusNotFound)
		default:
			http.Error(w, `{"error":"slot taken"}`, http.StatusConflict)
		}
	}))
	ctx := context.Background()

	_, err := c.Me(ctx, "tok")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Message != "invalid token" {
		t.Fatalf("expected message from body, got %v", err)
	}

	if _, err := c.Doctor(ctx, "tok", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	_, err = c.CreateAppointment(ctx, "tok", CreateAppointmentRequest{})
	if !errors.Is(err, ErrConflict) || !IsRejection(err) {
		t.Fatalf("expected conflict rejection, got %v", err)
	}
}

func TestRequestIDForwarded(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get(httpx.RequestIDHeader); got != "req-1" {
			t.Fatalf("expected request id, got %q", got)
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	ctx := httpx.ContextWithRequestID(context.Background(), "req-1")
	if _, err := c.UserAppointments(ctx, "tok", "u1"); err != nil {
		t.Fatalf("list: %v", err)
	}
}

func TestCancelSendsRequester(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/appointment/a1/cancel" {
			t.Fatalf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var got map[string]string
		_ = json.NewDecoder(r.Body).Decode(&got)
		if got["requesterId"] != "u1" || got["requesterRole"] != "user" {
			t.Fatalf("unexpected payload %v", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	if err := c.CancelAppointment(context.Background(), "tok", "a1", "u1", "user"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
}

func TestRateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()
	c, err := NewClient(Config{BaseURL: srv.URL, RatePerSecond: 0.001, Burst: 1})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := c.DoctorAppointments(context.Background(), "tok", "d1"); err != nil {
		t.Fatalf("first call: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.DoctorAppointments(ctx, "tok", "d1"); err == nil {
		t.Fatal("expected the second call to be rate limited")
	}
}

func TestStatusErrorKeepsValidUTF8(t *testing.T) {
	long := strings.Repeat("a", maxMessageLen-1) + "ñandú"
	body, _ := json.Marshal(map[string]string{"message": long})
	se := statusError(http.StatusBadRequest, body)
	if !utf8.ValidString(se.Message) || len(se.Message) > maxMessageLen {
		t.Fatalf("unexpected message %q", se.Message)
	}
	if se.Message != strings.Repeat("a", maxMessageLen-1) {
		t.Fatalf("expected the split rune to be dropped, got %q", se.Message)
	}

	if got := truncateMessage("cita no disponible", maxMessageLen); got != "cita no disponible" {
		t.Fatalf("short message changed: %q", got)
	}
}

func TestUserLifecycle(t *testing.T) {
	var gotUpdate map[string]any
	deleted := false
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/user/u1" {
			http.NotFound(w, r)
			return
		}
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(User{ID: "u1", Name: "Eva", Phone: "600000000"})
		case http.MethodPut:
			_ = json.NewDecoder(r.Body).Decode(&gotUpdate)
			w.WriteHeader(http.StatusNoContent)
		case http.MethodDelete:
			deleted = true
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	ctx := context.Background()

	u, err := c.GetUser(ctx, "tok", "u1")
	if err != nil || u.Phone != "600000000" {
		t.Fatalf("get user: %+v (%v)", u, err)
	}
	city := "Sevilla"
	if err := c.UpdateUser(ctx, "tok", "u1", ProfileUpdate{City: &city}); err != nil {
		t.Fatalf("update user: %v", err)
	}
	if len(gotUpdate) != 1 || gotUpdate["city"] != "Sevilla" {
		t.Fatalf("expected only city to be sent, got %v", gotUpdate)
	}
	if err := c.DeleteUser(ctx, "tok", "u1"); err != nil || !deleted {
		t.Fatalf("delete user: deleted=%v err=%v", deleted, err)
	}
	if _, err := c.GetUser(ctx, "tok", "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
