// Package repository holds the in-memory indicators dataset and its loaders.
package repository

import (
	"context"
	"time"

	"github.com/okian/devstats/internal/domain/model"
)

// Store provides read-only access to the loaded dataset.
type Store interface {
	// Rows returns every row in file order. Callers must not modify the slice.
	Rows(ctx context.Context) []model.Row

	// Continents returns the distinct continents in order of first appearance.
	// The first one is the dashboard's default selection.
	Continents(ctx context.Context) []string

	// Countries returns the distinct countries, sorted.
	Countries(ctx context.Context) []string

	// YearBounds returns the smallest and largest year in the dataset.
	// Returns ErrEmptyDataset when no rows are loaded.
	YearBounds(ctx context.Context) (minYear, maxYear int, err error)

	// Years returns the distinct years, ascending.
	Years(ctx context.Context) []int

	// Count returns the number of rows.
	Count(ctx context.Context) int

	// Source names where the rows were loaded from.
	Source() string

	// LoadedAt is when loading the rows began.
	LoadedAt() time.Time
}
