package repository

import (
	"context"
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/okian/devstats/internal/domain/model"
	"github.com/okian/devstats/pkg/metrics"
)

//go:embed data/world_indicators.csv
var sampleFS embed.FS

const sampleFile = "data/world_indicators.csv"

// Normalized header names of the non-indicator columns.
const (
	colCountry   = "country"
	colContinent = "continent"
	colYear      = "year"
)

// missingTokens are cell values read as a missing indicator.
var missingTokens = map[string]struct{}{
	"":    {},
	"na":  {},
	"nan": {},
	"n/a": {},
}

// LoadSample builds a store from the dataset compiled into the binary.
func LoadSample(ctx context.Context) (*MemoryStore, error) {
	f, err := sampleFS.Open(sampleFile)
	if err != nil {
		return nil, fmt.Errorf("open sample dataset: %w", err)
	}
	defer f.Close()
	return LoadCSV(ctx, f, WithSource("embedded:"+sampleFile))
}

// LoadFile builds a store from a CSV file on disk.
func LoadFile(ctx context.Context, path string) (*MemoryStore, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("open dataset %q: %w", path, err)
	}
	defer f.Close()
	return LoadCSV(ctx, f, WithSource(path))
}

// LoadCSV parses an indicators CSV and returns a store over its rows.
//
// Headers are matched case-insensitively with underscores and spaces folded,
// so "Life expectancy" and "life_expectancy" are the same column. Extra
// columns are ignored. Empty or NA indicator cells load as missing values.
func LoadCSV(ctx context.Context, r io.Reader, opts ...Option) (*MemoryStore, error) {
	start := time.Now()

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyDataset
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrMalformedRow, err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var rows []model.Row
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedRow, err)
		}
		line, _ := cr.FieldPos(0)
		row, err := parseRow(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedRow, line, err)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyDataset
	}

	s := NewMemoryStore(rows, append([]Option{WithLoadedAt(start)}, opts...)...)
	metrics.RecordDatasetLoadDuration(float64(time.Since(start).Milliseconds()))
	return s, nil
}

// columns maps each field to its record index.
type columns struct {
	country    int
	continent  int
	year       int
	indicators map[model.Indicator]int
}

func mapColumns(header []string) (columns, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		name := model.NormalizeColumn(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	lookup := func(name string) (int, error) {
		i, ok := index[model.NormalizeColumn(name)]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
		return i, nil
	}

	c := columns{indicators: make(map[model.Indicator]int, len(model.Indicators()))}
	var err error
	if c.country, err = lookup(colCountry); err != nil {
		return c, err
	}
	if c.continent, err = lookup(colContinent); err != nil {
		return c, err
	}
	if c.year, err = lookup(colYear); err != nil {
		return c, err
	}
	for _, ind := range model.Indicators() {
		i, err := lookup(ind.Label())
		if err != nil {
			return c, err
		}
		c.indicators[ind] = i
	}
	return c, nil
}

func parseRow(rec []string, c columns) (model.Row, error) {
	country := strings.TrimSpace(rec[c.country])
	continent := strings.TrimSpace(rec[c.continent])
	if country == "" {
		return model.Row{}, errors.New("empty country")
	}
	if continent == "" {
		return model.Row{}, fmt.Errorf("empty continent for %q", country)
	}
	year, err := parseYear(rec[c.year])
	if err != nil {
		return model.Row{}, err
	}

	row := model.NewRow(country, continent, year)
	for _, ind := range model.Indicators() {
		v, err := parseValue(rec[c.indicators[ind]])
		if err != nil {
			return model.Row{}, fmt.Errorf("%s: %w", ind.Label(), err)
		}
		row = row.WithValue(ind, v)
	}
	return row, nil
}

// parseYear accepts integers and integral floats such as "2001.0".
func parseYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	if y, err := strconv.Atoi(s); err == nil {
		return y, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid year %q", s)
	}
	return int(f), nil
}

func parseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if _, ok := missingTokens[strings.ToLower(s)]; ok {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}
