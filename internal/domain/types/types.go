// Package types contains the chart payloads shared by the service and the HTTP API.
package types

import "github.com/okian/devstats/internal/domain/model"

// Figure carries the labels a chart needs besides its data.
type Figure struct {
	Title  string `json:"title"`
	XLabel string `json:"x_label"`
	YLabel string `json:"y_label"`
}

// Point is one (year, value) sample of a time series.
type Point struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// Series is one country's line in the time-series chart.
type Series struct {
	Country   string  `json:"country"`
	Continent string  `json:"continent"`
	Points    []Point `json:"points"`
}

// TimeSeries is the line-chart view: one series per country.
type TimeSeries struct {
	Figure
	Indicator model.Indicator `json:"indicator"`
	Series    []Series        `json:"series"`
	Rows      int             `json:"rows"`
}

// Entry is a ranked country in the top view.
type Entry struct {
	Rank      int     `json:"rank"`
	Country   string  `json:"country"`
	Continent string  `json:"continent"`
	Value     float64 `json:"value"`
}

// TopCountries is the bar-chart view.
type TopCountries struct {
	Figure
	Indicator model.Indicator `json:"indicator"`
	Entries   []Entry         `json:"entries"`
}

// Bin is one histogram bucket. Lower is inclusive, Upper is exclusive except
// for the last bin.
type Bin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Histogram is the distribution view. Count is the filtered row count;
// Missing counts rows without a value for the indicator.
type Histogram struct {
	Figure
	Indicator model.Indicator `json:"indicator"`
	Values    []float64       `json:"values"`
	Bins      []Bin           `json:"bins"`
	Count     int             `json:"count"`
	Missing   int             `json:"missing"`
}

// Views bundles the three views computed from one selection.
type Views struct {
	Selection  Selection    `json:"selection"`
	TimeSeries TimeSeries   `json:"timeseries"`
	Top        TopCountries `json:"top"`
	Histogram  Histogram    `json:"histogram"`
}

// Selection echoes the resolved control values back to the client.
type Selection struct {
	Continents []string        `json:"continents"`
	From       int             `json:"from"`
	To         int             `json:"to"`
	Indicator  model.Indicator `json:"indicator"`
}

// IndicatorOption is one radio button of the indicator selector.
type IndicatorOption struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Options describes the dashboard controls built from the dataset.
type Options struct {
	Continents []string          `json:"continents"`
	MinYear    int               `json:"min_year"`
	MaxYear    int               `json:"max_year"`
	Marks      []int             `json:"marks"`
	Indicators []IndicatorOption `json:"indicators"`
	Defaults   Selection         `json:"defaults"`
}
