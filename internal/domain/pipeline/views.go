package pipeline

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/devstats/internal/domain/model"
	"github.com/okian/devstats/internal/domain/types"
)

// Chart titles and axis labels.
const (
	timeSeriesTitle = "Dynamics by country"
	histogramTitle  = "Histogram of selected indicator"
	yearLabel       = "Year"
	countryLabel    = "Country"
	countLabel      = "Count"
)

// TimeSeries groups rows by country, one series per country in order of first
// appearance, with points ordered by year. Rows missing the indicator are
// left out of the series but still counted in Rows.
func TimeSeries(rows []model.Row, ind model.Indicator) types.TimeSeries {
	out := types.TimeSeries{
		Figure:    types.Figure{Title: timeSeriesTitle, XLabel: yearLabel, YLabel: ind.Label()},
		Indicator: ind,
		Series:    make([]types.Series, 0),
		Rows:      len(rows),
	}

	index := make(map[string]int)
	for _, r := range rows {
		i, ok := index[r.Country]
		if !ok {
			i = len(out.Series)
			index[r.Country] = i
			out.Series = append(out.Series, types.Series{
				Country:   r.Country,
				Continent: r.Continent,
				Points:    make([]types.Point, 0),
			})
		}
		if !r.Has(ind) {
			continue
		}
		out.Series[i].Points = append(out.Series[i].Points, types.Point{Year: r.Year, Value: r.Value(ind)})
	}

	for i := range out.Series {
		pts := out.Series[i].Points
		sort.SliceStable(pts, func(a, b int) bool { return pts[a].Year < pts[b].Year })
	}
	return out
}

// TopN sums the indicator per country and keeps the n largest sums, sorted
// descending. The sort is stable over first appearance in rows, so equal sums
// keep insertion order. Missing values are skipped by the sum.
func TopN(rows []model.Row, ind model.Indicator, n int) (types.TopCountries, error) {
	if n < 1 {
		return types.TopCountries{}, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}
	out := types.TopCountries{
		Figure:    types.Figure{Title: fmt.Sprintf("Top %d countries by selected indicator", n), XLabel: countryLabel, YLabel: ind.Label()},
		Indicator: ind,
		Entries:   make([]types.Entry, 0, n),
	}

	index := make(map[string]int)
	groups := make([]types.Entry, 0)
	for _, r := range rows {
		i, ok := index[r.Country]
		if !ok {
			i = len(groups)
			index[r.Country] = i
			groups = append(groups, types.Entry{Country: r.Country, Continent: r.Continent})
		}
		if r.Has(ind) {
			groups[i].Value += r.Value(ind)
		}
	}

	sort.SliceStable(groups, func(a, b int) bool { return groups[a].Value > groups[b].Value })
	if len(groups) > n {
		groups = groups[:n]
	}
	assignRanksWithTies(groups)
	out.Entries = append(out.Entries, groups...)
	return out, nil
}

// assignRanksWithTies gives equal values the same rank; the next distinct
// value takes the next consecutive rank. Entries must be sorted descending.
func assignRanksWithTies(entries []types.Entry) {
	rank := 0
	for i := range entries {
		if i == 0 || entries[i].Value != entries[i-1].Value {
			rank++
		}
		entries[i].Rank = rank
	}
}

// Histogram returns the indicator distribution of rows without aggregation,
// plus equal-width bins over [min, max] of the present values.
func Histogram(rows []model.Row, ind model.Indicator, bins int) (types.Histogram, error) {
	if bins < 1 {
		return types.Histogram{}, fmt.Errorf("%w: %d", ErrInvalidBins, bins)
	}
	out := types.Histogram{
		Figure:    types.Figure{Title: histogramTitle, XLabel: ind.Label(), YLabel: countLabel},
		Indicator: ind,
		Values:    make([]float64, 0, len(rows)),
		Bins:      make([]types.Bin, 0),
		Count:     len(rows),
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range rows {
		if !r.Has(ind) {
			out.Missing++
			continue
		}
		v := r.Value(ind)
		out.Values = append(out.Values, v)
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if len(out.Values) == 0 {
		return out, nil
	}

	// A single distinct value gets one degenerate bin, and so does a span
	// too wide to divide in float64.
	width := (hi - lo) / float64(bins)
	if lo == hi || math.IsInf(width, 0) || math.IsNaN(width) || width == 0 {
		out.Bins = append(out.Bins, types.Bin{Lower: lo, Upper: hi, Count: len(out.Values)})
		return out, nil
	}

	for i := 0; i < bins; i++ {
		out.Bins = append(out.Bins, types.Bin{
			Lower: lo + float64(i)*width,
			Upper: lo + float64(i+1)*width,
		})
	}
	out.Bins[bins-1].Upper = hi
	for _, v := range out.Values {
		out.Bins[binIndex(v, lo, width, bins)].Count++
	}
	return out, nil
}

// binIndex clamps the position of v to [0, bins-1] before converting, since
// converting a NaN or out-of-range float to int is implementation-defined.
func binIndex(v, lo, width float64, bins int) int {
	f := math.Floor((v - lo) / width)
	switch {
	case math.IsNaN(f) || f < 0:
		return 0
	case f >= float64(bins):
		return bins - 1
	default:
		return int(f)
	}
}

// Compute filters once and derives all three views from the same subset.
func Compute(rows []model.Row, q Query, topN, bins int) (types.Views, error) {
	if err := q.Validate(); err != nil {
		return types.Views{}, err
	}
	filtered := Filter(rows, q)

	top, err := TopN(filtered, q.Indicator, topN)
	if err != nil {
		return types.Views{}, err
	}
	hist, err := Histogram(filtered, q.Indicator, bins)
	if err != nil {
		return types.Views{}, err
	}

	return types.Views{
		Selection:  SelectionOf(q),
		TimeSeries: TimeSeries(filtered, q.Indicator),
		Top:        top,
		Histogram:  hist,
	}, nil
}

// SelectionOf echoes a query in payload form.
func SelectionOf(q Query) types.Selection {
	return types.Selection{
		Continents: q.Continents.Sorted(),
		From:       q.Years.From,
		To:         q.Years.To,
		Indicator:  q.Indicator,
	}
}
