// Package pipeline filters the indicators dataset by a user selection and
// derives the three dashboard views from the filtered subset.
//
// Every function is pure: it reads the rows it is given and returns freshly
// allocated results, so callers may share one immutable dataset across
// concurrent requests.
package pipeline

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/okian/devstats/internal/domain/model"
)

// ContinentSet is the continent filter. A nil or empty set matches nothing.
type ContinentSet map[string]struct{}

// NormalizeContinents turns a single value or a collection into a set.
// Values are trimmed and comma-separated lists are split, so
// NormalizeContinents("Europe") equals NormalizeContinents("Europe,") and
// NormalizeContinents("Europe", "Asia") equals NormalizeContinents("Europe,Asia").
func NormalizeContinents(values ...string) ContinentSet {
	set := make(ContinentSet, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				set[part] = struct{}{}
			}
		}
	}
	return set
}

// Contains reports whether continent is selected.
func (s ContinentSet) Contains(continent string) bool {
	_, ok := s[continent]
	return ok
}

// Sorted returns the selected continents in lexical order.
func (s ContinentSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// ContinentSelection decodes a JSON continent selection that is either a
// single string or an array of strings.
type ContinentSelection []string

// UnmarshalJSON accepts "Europe", ["Europe","Asia"] and null.
func (c *ContinentSelection) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*c = nil
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = ContinentSelection{s}
		return nil
	case len(b) > 0 && b[0] == '[':
		var list []string
		if err := json.Unmarshal(b, &list); err != nil {
			return err
		}
		*c = ContinentSelection(list)
		return nil
	}
	return fmt.Errorf("%w: continents must be a string or an array of strings", ErrInvalidSelection)
}

// Set normalizes the selection.
func (c ContinentSelection) Set() ContinentSet {
	return NormalizeContinents(c...)
}

// YearRange is an inclusive [From, To] bound on the year column.
type YearRange struct {
	From int
	To   int
}

// Contains reports From <= year <= To. An inverted range contains nothing.
func (r YearRange) Contains(year int) bool {
	return r.From <= year && year <= r.To
}

// Query is one user selection of the three dashboard controls.
type Query struct {
	Continents ContinentSet
	Years      YearRange
	Indicator  model.Indicator
}

// Validate fails only for an indicator outside the fixed set. Empty continent
// sets and inverted ranges are legal and select nothing.
func (q Query) Validate() error {
	if !q.Indicator.Valid() {
		return fmt.Errorf("%w: %d", model.ErrUnknownIndicator, int(q.Indicator))
	}
	return nil
}
