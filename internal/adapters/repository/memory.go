package repository

import (
	"context"
	"sort"
	"time"

	"github.com/okian/devstats/internal/domain/model"
	"github.com/okian/devstats/pkg/metrics"
)

// MemoryStore is an immutable, in-memory Store. Distinct continents,
// countries and years are computed once at construction, so reads take no
// locks and are safe from any number of goroutines.
type MemoryStore struct {
	rows       []model.Row
	continents []string
	countries  []string
	years      []int
	source     string
	loadedAt   time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore copies rows into a new store and publishes its shape metrics.
func NewMemoryStore(rows []model.Row, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		rows:     append([]model.Row(nil), rows...),
		source:   "memory",
		loadedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	seen := make(map[string]struct{})
	countries := make(map[string]struct{})
	years := make(map[int]struct{})
	for _, r := range s.rows {
		if _, ok := seen[r.Continent]; !ok {
			seen[r.Continent] = struct{}{}
			s.continents = append(s.continents, r.Continent)
		}
		countries[r.Country] = struct{}{}
		years[r.Year] = struct{}{}
	}
	s.countries = sortedKeys(countries)
	s.years = make([]int, 0, len(years))
	for y := range years {
		s.years = append(s.years, y)
	}
	sort.Ints(s.years)

	metrics.UpdateDatasetShape(len(s.rows), len(s.countries), len(s.continents))
	return s
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Rows returns the backing slice without copying.
func (s *MemoryStore) Rows(_ context.Context) []model.Row { return s.rows }

// Continents returns a copy of the continent list in first-appearance order.
func (s *MemoryStore) Continents(_ context.Context) []string {
	return append([]string(nil), s.continents...)
}

// Countries returns a copy of the sorted country list.
func (s *MemoryStore) Countries(_ context.Context) []string {
	return append([]string(nil), s.countries...)
}

// Years returns a copy of the ascending year list.
func (s *MemoryStore) Years(_ context.Context) []int {
	return append([]int(nil), s.years...)
}

// YearBounds implements Store.
func (s *MemoryStore) YearBounds(_ context.Context) (int, int, error) {
	if len(s.years) == 0 {
		return 0, 0, ErrEmptyDataset
	}
	return s.years[0], s.years[len(s.years)-1], nil
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) int { return len(s.rows) }

// Source implements Store.
func (s *MemoryStore) Source() string { return s.source }

// LoadedAt implements Store.
func (s *MemoryStore) LoadedAt() time.Time { return s.loadedAt }
