package directory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/medapi"
)

type fakeSource struct {
	calls   int
	doctors []medapi.Doctor
	err     error
}

func (f *fakeSource) Doctors(context.Context, string) ([]medapi.Doctor, error) {
	f.calls++
	return f.doctors, f.err
}

var testDoctors = []medapi.Doctor{
	{ID: "d1", Name: "Ana Pérez", Specialty: "Cardiología"},
	{ID: "d2", Name: "Luis Gómez", Specialty: "Dermatología"},
	{ID: "d3", Name: "Ana Ruiz", Specialty: "Dermatología"},
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDirectoryCachesDoctors(t *testing.T) {
	src := &fakeSource{doctors: testDoctors}
	dir := New(src, NewMemoryCache(time.Minute), discard())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := dir.Doctors(ctx, "tok"); err != nil {
			t.Fatalf("doctors: %v", err)
		}
	}
	if src.calls != 1 {
		t.Fatalf("expected one remote call, got %d", src.calls)
	}

	dir.Invalidate(ctx)
	doc, ok, err := dir.Find(ctx, "tok", "d2")
	if err != nil || !ok || doc.Name != "Luis Gómez" {
		t.Fatalf("unexpected %+v %v %v", doc, ok, err)
	}
	if src.calls != 2 {
		t.Fatalf("expected a refetch after invalidation, got %d calls", src.calls)
	}
}

func TestDirectoryPropagatesErrors(t *testing.T) {
	dir := New(&fakeSource{err: errors.New("boom")}, nil, discard())
	if _, _, err := dir.Find(context.Background(), "tok", "d1"); err == nil {
		t.Fatal("expected error")
	}
}

func TestFilterAndSpecialties(t *testing.T) {
	if got := Filter(testDoctors, "dermatología", "ana"); len(got) != 1 || got[0].ID != "d3" {
		t.Fatalf("unexpected %+v", got)
	}
	if got := Filter(testDoctors, AllSpecialties, ""); len(got) != 3 {
		t.Fatalf("expected all doctors, got %d", len(got))
	}
	specs := Specialties(testDoctors)
	if len(specs) != 2 || specs[0] != "Cardiología" {
		t.Fatalf("unexpected specialties %v", specs)
	}
}

func TestServicesCatalog(t *testing.T) {
	if got := Services("", ""); len(got) != 7 {
		t.Fatalf("expected 7 services, got %d", len(got))
	}
	if got := Services(SpecialtyLaboratory, "perfil"); len(got) != 1 || got[0].ID != "7" {
		t.Fatalf("unexpected %+v", got)
	}
}

func TestMemoryCacheExpires(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }
	c.Set(context.Background(), testDoctors)
	if _, ok := c.Get(context.Background()); !ok {
		t.Fatal("expected hit")
	}
	now = now.Add(2 * time.Minute)
	if _, ok := c.Get(context.Background()); ok {
		t.Fatal("expected miss after ttl")
	}
}
