package config

import (
	"testing"
	"time"
)

func TestPort(t *testing.T) {
	t.Setenv("PORTAL_PORT", "8090")
	if p, err := Port("PORTAL_PORT", "1"); err != nil || p != "8090" {
		t.Fatalf("expected 8090, got %q (%v)", p, err)
	}
	t.Setenv("PORTAL_PORT", "99999")
	if _, err := Port("PORTAL_PORT", "1"); err == nil {
		t.Fatal("expected error for out of range port")
	}
}

func TestRequiredString(t *testing.T) {
	t.Setenv("MEDAPI_BASE_URL", "  ")
	if _, err := RequiredString("MEDAPI_BASE_URL"); err == nil {
		t.Fatal("expected blank value to be rejected")
	}
	t.Setenv("MEDAPI_BASE_URL", "http://api.local")
	if v, err := RequiredString("MEDAPI_BASE_URL"); err != nil || v != "http://api.local" {
		t.Fatalf("unexpected value %q (%v)", v, err)
	}
}

func TestDurationsAndFlags(t *testing.T) {
	t.Setenv("TIMEOUT_SECONDS", "7")
	t.Setenv("TTL_MINUTES", "-3")
	t.Setenv("FLAG", "yes")
	if got := Seconds("TIMEOUT_SECONDS", time.Second); got != 7*time.Second {
		t.Fatalf("expected 7s, got %s", got)
	}
	if got := Minutes("TTL_MINUTES", time.Hour); got != time.Hour {
		t.Fatalf("expected fallback for negative value, got %s", got)
	}
	if !Bool("FLAG", false) {
		t.Fatal("expected yes to be truthy")
	}
	if Bool("UNSET_FLAG", false) {
		t.Fatal("expected fallback for unset flag")
	}
}

func TestList(t *testing.T) {
	t.Setenv("ORIGINS", " http://a.local, ,http://b.local ")
	got := List("ORIGINS", "")
	if len(got) != 2 || got[0] != "http://a.local" || got[1] != "http://b.local" {
		t.Fatalf("unexpected list: %#v", got)
	}
}

func TestMalformedNumbersFallBack(t *testing.T) {
	t.Setenv("SLOT_LENGTH_MINUTES", "half an hour")
	t.Setenv("DB_MAX_CONNS", "10x")
	if got := Minutes("SLOT_LENGTH_MINUTES", 30*time.Minute); got != 30*time.Minute {
		t.Fatalf("expected fallback for malformed minutes, got %s", got)
	}
	if got := Int("DB_MAX_CONNS", 5); got != 5 {
		t.Fatalf("expected fallback for malformed int, got %d", got)
	}
}
