package runtime

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestReadyzReportsFailures(t *testing.T) {
	mux := NewBaseMuxWithReady(
		ReadyCheck{Name: "redis", Check: func(context.Context) error { return nil }},
		ReadyCheck{Name: "medapi", Check: func(context.Context) error { return errors.New("connection refused") }},
	)

	rw := httptest.NewRecorder()
	mux.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rw.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rw.Code)
	}
	if !strings.Contains(rw.Body.String(), "medapi") || strings.Contains(rw.Body.String(), "redis") {
		t.Fatalf("unexpected body: %s", rw.Body.String())
	}
}

func TestReadyzWithoutChecks(t *testing.T) {
	mux := NewBaseMuxWithReady()
	rw := httptest.NewRecorder()
	mux.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
}
