package directory

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/medapi"
)

type Source interface {
	Doctors(ctx context.Context, token string) ([]medapi.Doctor, error)
}

// Cache holds the full doctor list. The list is the same for every patient.
type Cache interface {
	Get(ctx context.Context) ([]medapi.Doctor, bool)
	Set(ctx context.Context, doctors []medapi.Doctor)
	Invalidate(ctx context.Context) error
}

// Directory is the doctor collection the booking flow selects from.
type Directory struct {
	source Source
	cache  Cache
	logger *slog.Logger
}

// New builds a directory. cache may be nil.
func New(source Source, cache Cache, logger *slog.Logger) *Directory {
	return &Directory{source: source, cache: cache, logger: logger}
}

func (d *Directory) Doctors(ctx context.Context, token string) ([]medapi.Doctor, error) {
	if d.cache != nil {
		if doctors, ok := d.cache.Get(ctx); ok {
			return doctors, nil
		}
	}
	doctors, err := d.source.Doctors(ctx, token)
	if err != nil {
		return nil, err
	}
	if d.cache != nil {
		d.cache.Set(ctx, doctors)
	}
	return doctors, nil
}

// Find looks a doctor up in the loaded collection.
func (d *Directory) Find(ctx context.Context, token, doctorID string) (medapi.Doctor, bool, error) {
	doctors, err := d.Doctors(ctx, token)
	if err != nil {
		return medapi.Doctor{}, false, err
	}
	for _, doc := range doctors {
		if doc.ID == doctorID {
			return doc, true, nil
		}
	}
	return medapi.Doctor{}, false, nil
}

func (d *Directory) Invalidate(ctx context.Context) {
	if d.cache == nil {
		return
	}
	if err := d.cache.Invalidate(ctx); err != nil {
		d.logger.Warn("doctor cache invalidation failed", "err", err)
	}
}

// AllSpecialties is the selector value that disables specialty filtering.
const AllSpecialties = "all"

// Filter keeps doctors of specialty whose name contains query, case-insensitively.
// An empty specialty or AllSpecialties matches every doctor.
func Filter(doctors []medapi.Doctor, specialty, query string) []medapi.Doctor {
	specialty = normalizeSpecialty(specialty)
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]medapi.Doctor, 0, len(doctors))
	for _, doc := range doctors {
		if specialty != "" && !strings.EqualFold(doc.Specialty, specialty) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(doc.Name), query) {
			continue
		}
		out = append(out, doc)
	}
	return out
}

// Specialties returns the distinct specialties, sorted.
func Specialties(doctors []medapi.Doctor) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, doc := range doctors {
		s := strings.TrimSpace(doc.Specialty)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func normalizeSpecialty(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, AllSpecialties) {
		return ""
	}
	return s
}
