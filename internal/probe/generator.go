package probe

import (
	"math/rand/v2"

	"github.com/okian/devstats/internal/domain/types"
)

// generator draws random selections within the bounds /api/options reports.
type generator struct {
	rnd  *rand.Rand
	opts types.Options
}

func newGenerator(seed uint64, opts types.Options) *generator {
	return &generator{
		rnd:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		opts: opts,
	}
}

// generateSelections returns n selections. The first few are fixed edge
// cases; the rest are random.
func (g *generator) generateSelections(n int) []Selection {
	sels := make([]Selection, 0, n)
	for _, s := range g.edgeCases() {
		if len(sels) == n {
			return sels
		}
		sels = append(sels, s)
	}
	for len(sels) < n {
		sels = append(sels, g.next())
	}
	return sels
}

func (g *generator) edgeCases() []Selection {
	o := g.opts
	all := append([]string{}, o.Continents...)
	ind := g.indicator()
	cases := []Selection{
		{Continents: all, From: o.MinYear, To: o.MaxYear, Indicator: ind},
		{Continents: []string{}, From: o.MinYear, To: o.MaxYear, Indicator: ind},
		{Continents: all, From: o.MaxYear, To: o.MinYear, Indicator: ind},
		{Continents: all, From: o.MaxYear, To: o.MaxYear, Indicator: ind},
	}
	for _, c := range o.Continents {
		cases = append(cases, Selection{Continents: []string{c}, From: o.MinYear, To: o.MaxYear, Indicator: ind})
	}
	return cases
}

func (g *generator) next() Selection {
	o := g.opts
	sel := Selection{Continents: g.continents(), Indicator: g.indicator()}

	span := o.MaxYear - o.MinYear + 1
	if span < 1 {
		span = 1
	}
	a := o.MinYear + g.rnd.IntN(span)
	b := o.MinYear + g.rnd.IntN(span)
	switch {
	case g.percent(singleYearPercent):
		sel.From, sel.To = a, a
	case g.percent(invertedRangePercent):
		sel.From, sel.To = max(a, b), min(a, b)
	default:
		sel.From, sel.To = min(a, b), max(a, b)
	}
	return sel
}

// continents returns a random non-nil subset of the known continents.
func (g *generator) continents() []string {
	out := []string{}
	if g.percent(emptyContinentsPercent) || len(g.opts.Continents) == 0 {
		return out
	}
	for _, c := range g.opts.Continents {
		if g.rnd.IntN(2) == 0 {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		out = append(out, g.opts.Continents[g.rnd.IntN(len(g.opts.Continents))])
	}
	return out
}

func (g *generator) indicator() string {
	if len(g.opts.Indicators) == 0 {
		return g.opts.Defaults.Indicator.Label()
	}
	return g.opts.Indicators[g.rnd.IntN(len(g.opts.Indicators))].Label
}

func (g *generator) percent(p int) bool {
	return g.rnd.IntN(PercentageMultiplier) < p
}
