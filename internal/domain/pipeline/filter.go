package pipeline

import "github.com/okian/devstats/internal/domain/model"

// Filter returns the rows whose continent is selected and whose year lies in
// the inclusive range, in dataset order. The input slice is never modified.
func Filter(rows []model.Row, q Query) []model.Row {
	out := make([]model.Row, 0)
	if len(q.Continents) == 0 || q.Years.From > q.Years.To {
		return out
	}
	for _, r := range rows {
		if q.Continents.Contains(r.Continent) && q.Years.Contains(r.Year) {
			out = append(out, r)
		}
	}
	return out
}
