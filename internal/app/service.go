// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/devstats/internal/adapters/repository"
	"github.com/okian/devstats/internal/domain/model"
	"github.com/okian/devstats/internal/domain/pipeline"
	"github.com/okian/devstats/internal/domain/types"
	"github.com/okian/devstats/pkg/logger"
	"github.com/okian/devstats/pkg/metrics"
)

// ErrNotStarted is returned by view methods before Start has loaded a dataset.
var ErrNotStarted = errors.New("service not started")

// View names used for metrics and logs.
const (
	viewAll        = "all"
	viewTimeSeries = "timeseries"
	viewTop        = "top"
	viewHistogram  = "histogram"
)

// Service implements the API dependencies for the indicators dashboard.
type Service struct {
	mu sync.RWMutex

	store repository.Store

	// Configuration
	datasetPath      string
	topN             int
	histogramBins    int
	defaultIndicator model.Indicator

	// State
	started bool
	served  atomic.Int64

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStore injects an already loaded dataset. Start skips loading when set.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithDatasetPath sets the CSV file loaded by Start. An empty path selects
// the embedded sample dataset.
func WithDatasetPath(path string) Option {
	return func(s *Service) {
		s.datasetPath = path
	}
}

// WithTopN sets how many countries the top view keeps.
func WithTopN(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topN = n
		}
	}
}

// WithHistogramBins sets the bin count used when a request does not name one.
func WithHistogramBins(bins int) Option {
	return func(s *Service) {
		if bins > 0 {
			s.histogramBins = bins
		}
	}
}

// WithDefaultIndicator sets the indicator preselected on the dashboard.
func WithDefaultIndicator(ind model.Indicator) Option {
	return func(s *Service) {
		if ind.Valid() {
			s.defaultIndicator = ind
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		topN:             3,
		histogramBins:    20,
		defaultIndicator: model.LifeExpectancy,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start loads the dataset unless one was injected. Calling Start twice is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting indicators service...")

	if s.store == nil {
		start := time.Now()
		var (
			store *repository.MemoryStore
			err   error
		)
		if s.datasetPath != "" {
			store, err = repository.LoadFile(ctx, s.datasetPath)
		} else {
			store, err = repository.LoadSample(ctx)
		}
		if err != nil {
			return fmt.Errorf("load dataset: %w", err)
		}
		s.store = store
		s.logger.Info(ctx, "dataset loaded",
			logger.String("source", store.Source()),
			logger.Bool("embedded", s.datasetPath == ""),
			logger.Int("rows", store.Count(ctx)),
			logger.Duration("took", time.Since(start)),
		)
	}

	s.logger = s.logger.With(logger.String("dataset", s.store.Source()))
	s.started = true
	s.logger.Info(ctx, "indicators service started",
		logger.Int("rows", s.store.Count(ctx)),
		logger.Int("continents", len(s.store.Continents(ctx))),
		logger.Int("topN", s.topN),
		logger.Int("histogramBins", s.histogramBins),
	)

	return nil
}

// Stop marks the service stopped. The dataset stays in memory so in-flight
// requests finish against it.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.started = false
	s.logger.Info(context.Background(), "indicators service stopped",
		logger.Any("requestsServed", s.served.Load()),
	)
}

func (s *Service) dataset() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started || s.store == nil {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// Options returns the dashboard control metadata built from the dataset.
func (s *Service) Options(ctx context.Context) (types.Options, error) {
	store, err := s.dataset()
	if err != nil {
		return types.Options{}, err
	}
	minYear, maxYear, err := store.YearBounds(ctx)
	if err != nil {
		return types.Options{}, err
	}

	inds := make([]types.IndicatorOption, 0, len(model.Indicators()))
	for _, ind := range model.Indicators() {
		inds = append(inds, types.IndicatorOption{Key: ind.Key(), Label: ind.Label()})
	}

	def, err := s.DefaultQuery(ctx)
	if err != nil {
		return types.Options{}, err
	}

	return types.Options{
		Continents: store.Continents(ctx),
		MinYear:    minYear,
		MaxYear:    maxYear,
		Marks:      store.Years(ctx),
		Indicators: inds,
		Defaults:   pipeline.SelectionOf(def),
	}, nil
}

// DefaultQuery is the initial dashboard selection: the first continent, the
// full year range and the configured indicator.
func (s *Service) DefaultQuery(ctx context.Context) (pipeline.Query, error) {
	store, err := s.dataset()
	if err != nil {
		return pipeline.Query{}, err
	}
	minYear, maxYear, err := store.YearBounds(ctx)
	if err != nil {
		return pipeline.Query{}, err
	}
	var first []string
	if c := store.Continents(ctx); len(c) > 0 {
		first = c[:1]
	}
	return pipeline.Query{
		Continents: pipeline.NormalizeContinents(first...),
		Years:      pipeline.YearRange{From: minYear, To: maxYear},
		Indicator:  s.defaultIndicator,
	}, nil
}

// HistogramBins is the bin count used when a request does not name one.
func (s *Service) HistogramBins() int { return s.histogramBins }

// Views computes all three dashboard views from one filter pass.
// bins <= 0 selects the configured default.
func (s *Service) Views(ctx context.Context, q pipeline.Query, bins int) (types.Views, error) {
	store, err := s.dataset()
	if err != nil {
		return types.Views{}, err
	}
	start := time.Now()
	views, err := pipeline.Compute(store.Rows(ctx), q, s.topN, s.binsOrDefault(bins))
	if err != nil {
		return types.Views{}, err
	}
	s.observe(ctx, viewAll, start, views.Histogram.Count)
	return views, nil
}

// TimeSeries computes the per-country line chart.
func (s *Service) TimeSeries(ctx context.Context, q pipeline.Query) (types.TimeSeries, error) {
	store, err := s.dataset()
	if err != nil {
		return types.TimeSeries{}, err
	}
	if err := q.Validate(); err != nil {
		return types.TimeSeries{}, err
	}
	start := time.Now()
	filtered := pipeline.Filter(store.Rows(ctx), q)
	ts := pipeline.TimeSeries(filtered, q.Indicator)
	s.observe(ctx, viewTimeSeries, start, len(filtered))
	return ts, nil
}

// TopCountries computes the top-N bar chart.
func (s *Service) TopCountries(ctx context.Context, q pipeline.Query) (types.TopCountries, error) {
	store, err := s.dataset()
	if err != nil {
		return types.TopCountries{}, err
	}
	if err := q.Validate(); err != nil {
		return types.TopCountries{}, err
	}
	start := time.Now()
	filtered := pipeline.Filter(store.Rows(ctx), q)
	top, err := pipeline.TopN(filtered, q.Indicator, s.topN)
	if err != nil {
		return types.TopCountries{}, err
	}
	s.observe(ctx, viewTop, start, len(filtered))
	return top, nil
}

// Histogram computes the indicator distribution. bins <= 0 selects the
// configured default.
func (s *Service) Histogram(ctx context.Context, q pipeline.Query, bins int) (types.Histogram, error) {
	store, err := s.dataset()
	if err != nil {
		return types.Histogram{}, err
	}
	if err := q.Validate(); err != nil {
		return types.Histogram{}, err
	}
	start := time.Now()
	filtered := pipeline.Filter(store.Rows(ctx), q)
	h, err := pipeline.Histogram(filtered, q.Indicator, s.binsOrDefault(bins))
	if err != nil {
		return types.Histogram{}, err
	}
	s.observe(ctx, viewHistogram, start, len(filtered))
	return h, nil
}

func (s *Service) binsOrDefault(bins int) int {
	if bins <= 0 {
		return s.histogramBins
	}
	return bins
}

func (s *Service) observe(ctx context.Context, view string, start time.Time, filtered int) {
	took := time.Since(start)
	s.served.Add(1)
	metrics.RecordViewComputed(view, float64(took.Microseconds())/1000)
	metrics.RecordFilteredRows(filtered)
	s.logger.Debug(ctx, "view computed",
		logger.String("view", view),
		logger.Int("filteredRows", filtered),
		logger.Duration("took", took),
	)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":        s.started,
		"topN":           s.topN,
		"histogramBins":  s.histogramBins,
		"requestsServed": s.served.Load(),
	}

	if s.started && s.store != nil {
		stats["rows"] = s.store.Count(ctx)
		stats["countries"] = len(s.store.Countries(ctx))
		stats["continents"] = s.store.Continents(ctx)
		if minYear, maxYear, err := s.store.YearBounds(ctx); err == nil {
			stats["minYear"] = minYear
			stats["maxYear"] = maxYear
		}
		stats["source"] = s.store.Source()
		stats["loadedAt"] = s.store.LoadedAt().UTC().Format(time.RFC3339)
	}

	return stats
}
