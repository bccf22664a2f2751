package probe

import (
	"fmt"
	"reflect"

	"github.com/okian/devstats/internal/domain/types"
)

// verifyViews checks the invariants every /api/views response must hold for
// sel and returns one message per violation.
func verifyViews(sel Selection, topN int, v types.Views) []string {
	var out []string
	bad := func(format string, args ...any) {
		out = append(out, fmt.Sprintf(format, args...))
	}

	inSet := make(map[string]struct{}, len(sel.Continents))
	for _, c := range sel.Continents {
		inSet[c] = struct{}{}
	}
	inRange := func(year int) bool { return year >= sel.From && year <= sel.To }

	if len(inSet) == 0 || sel.From > sel.To {
		if v.TimeSeries.Rows != 0 || len(v.TimeSeries.Series) != 0 {
			bad("expected empty time series, got %d rows", v.TimeSeries.Rows)
		}
		if len(v.Top.Entries) != 0 {
			bad("expected empty top view, got %d entries", len(v.Top.Entries))
		}
		if v.Histogram.Count != 0 || len(v.Histogram.Values) != 0 {
			bad("expected empty histogram, got count %d", v.Histogram.Count)
		}
	}

	if v.Selection.From != sel.From || v.Selection.To != sel.To {
		bad("selection echo %d-%d, sent %d-%d", v.Selection.From, v.Selection.To, sel.From, sel.To)
	}
	if got := v.Selection.Indicator.Label(); got != sel.Indicator {
		bad("selection echo indicator %q, sent %q", got, sel.Indicator)
	}

	for _, s := range v.TimeSeries.Series {
		if _, ok := inSet[s.Continent]; !ok {
			bad("series %s has continent %q outside the selection", s.Country, s.Continent)
		}
		for i, p := range s.Points {
			if !inRange(p.Year) {
				bad("series %s has year %d outside %d-%d", s.Country, p.Year, sel.From, sel.To)
			}
			if i > 0 && p.Year < s.Points[i-1].Year {
				bad("series %s points are not in year order", s.Country)
			}
		}
	}

	if len(v.Top.Entries) > topN {
		bad("top view has %d entries, limit is %d", len(v.Top.Entries), topN)
	}
	for i, e := range v.Top.Entries {
		if _, ok := inSet[e.Continent]; !ok {
			bad("top entry %s has continent %q outside the selection", e.Country, e.Continent)
		}
		if i > 0 && e.Value > v.Top.Entries[i-1].Value {
			bad("top entries are not sorted: %s (%g) after %s (%g)",
				e.Country, e.Value, v.Top.Entries[i-1].Country, v.Top.Entries[i-1].Value)
		}
	}

	h := v.Histogram
	if h.Count != v.TimeSeries.Rows {
		bad("histogram count %d differs from time series rows %d", h.Count, v.TimeSeries.Rows)
	}
	if len(h.Values)+h.Missing != h.Count {
		bad("histogram values %d + missing %d != count %d", len(h.Values), h.Missing, h.Count)
	}
	binned := 0
	for _, b := range h.Bins {
		binned += b.Count
	}
	if binned != len(h.Values) {
		bad("histogram bins hold %d values, expected %d", binned, len(h.Values))
	}
	return out
}

// verifyEquivalent reports a violation when two encodings of the same
// selection produced different views.
func verifyEquivalent(form string, want, got types.Views) []string {
	if reflect.DeepEqual(want, got) {
		return nil
	}
	return []string{fmt.Sprintf("%s form returned different views than the array form", form)}
}
