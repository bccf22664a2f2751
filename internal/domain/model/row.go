// Package model contains domain models passed between layers.
package model

import (
	"math"
)

// Row is one country-year record of the indicators dataset.
// Rows are built once at load time and never modified afterwards.
type Row struct {
	Country   string
	Continent string
	Year      int
	values    [indicatorCount]float64
}

// NewRow builds a Row with every indicator missing.
func NewRow(country, continent string, year int) Row {
	r := Row{Country: country, Continent: continent, Year: year}
	for i := range r.values {
		r.values[i] = math.NaN()
	}
	return r
}

// WithValue returns a copy of r with the indicator set.
func (r Row) WithValue(ind Indicator, v float64) Row {
	r.values[ind] = v
	return r
}

// Value returns the indicator value, NaN when the source cell was empty.
// An out-of-range indicator panics.
func (r Row) Value(ind Indicator) float64 {
	return r.values[ind]
}

// Has reports whether the indicator value is present.
func (r Row) Has(ind Indicator) bool {
	return !math.IsNaN(r.values[ind])
}
