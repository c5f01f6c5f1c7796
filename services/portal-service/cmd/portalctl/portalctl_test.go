package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/medapi"
)

func remoteAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/doctor", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]medapi.Doctor{{
			ID: "d1", Name: "Ana Pérez", Specialty: "Cardiología",
			AvailableDays:  []string{"monday"},
			AvailableHours: map[string][]medapi.HoursRange{"monday": {{Start: "09:00", End: "10:30"}}},
		}})
	})
	mux.HandleFunc("/api/appointment/doctor/d1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]medapi.Appointment{
			{ID: "a1", Date: "2026-10-19T00:00:00.000Z", Time: "09:30 - 10:00", Status: "scheduled"},
		})
	})
	mux.HandleFunc("/api/appointment/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(medapi.Appointment{ID: "a2", Date: "2026-10-19", Time: "09:00 - 09:30", Status: "scheduled"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSlotsCommand(t *testing.T) {
	srv := remoteAPI(t)
	out, err := run(t, "slots", "--base-url", srv.URL, "--token", "tok", "--doctor", "d1", "--date", "2026-10-19")
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	want := "09:00 - 09:30\n10:00 - 10:30\n"
	if out != want {
		t.Fatalf("expected %q, got %q", want, out)
	}
}

func TestSlotsCommandWithoutToken(t *testing.T) {
	t.Setenv("MEDPORTAL_TOKEN", "")
	_, err := run(t, "slots", "--base-url", "http://127.0.0.1:1", "--doctor", "d1", "--date", "2026-10-19")
	if err == nil || !strings.Contains(err.Error(), "no token") {
		t.Fatalf("expected missing token error, got %v", err)
	}
}

func TestBookCommandReadsEnv(t *testing.T) {
	srv := remoteAPI(t)
	t.Setenv("MEDPORTAL_BASE_URL", srv.URL)
	t.Setenv("MEDPORTAL_TOKEN", "tok")
	t.Setenv("MEDPORTAL_USER_ID", "u1")

	out, err := run(t, "book", "--doctor", "d1", "--date", "2026-10-19", "--time", "09:00 - 09:30")
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if !strings.HasPrefix(out, "booked a2 ") {
		t.Fatalf("unexpected output %q", out)
	}

	if _, err := run(t, "book", "--doctor", "d1", "--date", "2026-10-19", "--time", "09:30 - 10:00"); err == nil {
		t.Fatalf("expected a taken slot to be refused")
	}
}

func TestDaysCommand(t *testing.T) {
	srv := remoteAPI(t)
	out, err := run(t, "days", "--base-url", srv.URL, "--token", "tok", "--doctor", "d1", "--month", "2026-10")
	if err != nil {
		t.Fatalf("days: %v", err)
	}
	lines := strings.Fields(out)
	if len(lines) == 0 {
		t.Fatalf("expected at least one monday")
	}
	for _, l := range lines {
		if !strings.HasPrefix(l, "2026-10-") {
			t.Fatalf("unexpected day %q", l)
		}
	}
}

func TestServicesCommand(t *testing.T) {
	out, err := run(t, "services", "--specialty", "Laboratorio")
	if err != nil {
		t.Fatalf("services: %v", err)
	}
	if !strings.Contains(out, "Hemograma Completo") || strings.Contains(out, "Consulta General") {
		t.Fatalf("unexpected catalog output %q", out)
	}
}
