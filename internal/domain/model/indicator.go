package model

import (
	"fmt"
	"strings"
)

// Indicator enumerates the numeric metrics a user can select.
type Indicator int

// Supported indicators. The order matches the dashboard radio buttons.
const (
	LifeExpectancy Indicator = iota
	Population
	GDP
	Schooling

	indicatorCount = iota
)

var indicatorLabels = [indicatorCount]string{
	LifeExpectancy: "Life expectancy",
	Population:     "Population",
	GDP:            "GDP",
	Schooling:      "Schooling",
}

var indicatorKeys = [indicatorCount]string{
	LifeExpectancy: "life_expectancy",
	Population:     "population",
	GDP:            "gdp",
	Schooling:      "schooling",
}

// Indicators returns all indicators in display order.
func Indicators() []Indicator {
	out := make([]Indicator, indicatorCount)
	for i := range out {
		out[i] = Indicator(i)
	}
	return out
}

// Valid reports whether i is a known indicator.
func (i Indicator) Valid() bool {
	return i >= 0 && i < indicatorCount
}

// Label is the dataset column name, also used as the chart axis title.
func (i Indicator) Label() string {
	if !i.Valid() {
		return fmt.Sprintf("Indicator(%d)", int(i))
	}
	return indicatorLabels[i]
}

// Key is the machine-friendly name used in query strings.
func (i Indicator) Key() string {
	if !i.Valid() {
		return ""
	}
	return indicatorKeys[i]
}

func (i Indicator) String() string { return i.Label() }

// ParseIndicator accepts a label ("Life expectancy") or a key ("life_expectancy"),
// case-insensitively.
func ParseIndicator(s string) (Indicator, error) {
	norm := normalizeName(s)
	for i := Indicator(0); i < indicatorCount; i++ {
		if norm == normalizeName(indicatorLabels[i]) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownIndicator, s)
}

// MarshalText encodes the indicator by label.
func (i Indicator) MarshalText() ([]byte, error) {
	if !i.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownIndicator, int(i))
	}
	return []byte(i.Label()), nil
}

// UnmarshalText decodes a label or key.
func (i *Indicator) UnmarshalText(b []byte) error {
	v, err := ParseIndicator(string(b))
	if err != nil {
		return err
	}
	*i = v
	return nil
}

// normalizeName lowercases and folds underscores and repeated spaces, so
// "Life expectancy ", "life_expectancy" and "LIFE  EXPECTANCY" compare equal.
func normalizeName(s string) string {
	s = strings.ToLower(strings.ReplaceAll(s, "_", " "))
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeColumn applies the same folding to a CSV header cell.
func NormalizeColumn(s string) string {
	return normalizeName(s)
}
