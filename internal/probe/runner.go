// Package probe drives a running devstats server with random selections and
// checks that every response keeps the dashboard's view invariants.
package probe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/okian/devstats/pkg/logger"
)

const (
	directoryPermission = 0750
	reportPermission    = 0600
)

// ErrVerificationFailed is returned by Run when at least one selection broke
// an invariant or could not be fetched.
var ErrVerificationFailed = errors.New("probe: verification failed")

// Run executes a complete probe against cfg.BaseURL.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	cfg = withDefaults(cfg)
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get().Named("probe")

	log.Info(ctx, "starting devstats probe",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("selections", cfg.Selections),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
		logger.Any("seed", cfg.Seed))

	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, client); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Fetch control options
	opts, err := client.fetchOptions(ctx)
	if err != nil {
		return stats, fmt.Errorf("options retrieval failed: %w", err)
	}
	log.Info(ctx, "dataset options",
		logger.Any("continents", opts.Continents),
		logger.Int("minYear", opts.MinYear),
		logger.Int("maxYear", opts.MaxYear))

	// Step 3: Generate selections
	sels := newGenerator(cfg.Seed, opts).generateSelections(cfg.Selections)
	stats.SelectionsGenerated = len(sels)

	// Step 4: Check selections concurrently
	results := checkSelections(ctx, cfg, client, sels, stats)

	// Step 5: Save report
	if cfg.OutputFile != "" {
		report := Report{BaseURL: cfg.BaseURL, Seed: cfg.Seed, Options: opts, Results: results}
		if err := saveReport(cfg.OutputFile, report); err != nil {
			log.Warn(ctx, "failed to save report", logger.Error(err))
		} else {
			log.Info(ctx, "report saved", logger.String("file", cfg.OutputFile))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)

	if stats.SelectionsFailed > 0 {
		for _, r := range results {
			if len(r.Violations) == 0 && r.Err == "" {
				continue
			}
			log.Error(ctx, "selection failed",
				logger.Any("selection", r.Selection),
				logger.String("error", r.Err),
				logger.Any("violations", r.Violations))
		}
		return stats, fmt.Errorf("%w: %d of %d selections", ErrVerificationFailed, stats.SelectionsFailed, len(results))
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}
	log.Info(ctx, "probe completed successfully")
	return stats, nil
}

func withDefaults(cfg *Config) *Config {
	c := *cfg
	if c.Selections <= 0 {
		c.Selections = DefaultSelections
	}
	if c.TopN <= 0 {
		c.TopN = DefaultTopN
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Seed == 0 {
		c.Seed = uint64(time.Now().UnixNano())
	}
	return &c
}

// checkServiceHealth verifies the service is running. /healthz serves
// Prometheus metrics, so any 200 counts as healthy.
func checkServiceHealth(ctx context.Context, client *HTTPClient) error {
	logger.Get().Info(ctx, "checking service health")
	if err := client.Get(ctx, "/healthz", nil); err != nil {
		return fmt.Errorf("failed to reach service: %w", err)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// checkSelections fans sels out to cfg.Workers workers and returns one
// result per selection in input order.
func checkSelections(ctx context.Context, cfg *Config, client *HTTPClient, sels []Selection, stats *Stats) []Result {
	results := make([]Result, len(sels))

	var (
		sent    int64
		passed  int64
		failed  int64
		reqErrs int64
		empty   int64
		done    int64
	)

	jobs := make(chan int, cfg.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}
				res, requests := checkSelection(ctx, cfg, client, sels[i])
				results[i] = res
				atomic.AddInt64(&sent, int64(requests))

				switch {
				case res.Err != "":
					atomic.AddInt64(&reqErrs, 1)
					atomic.AddInt64(&failed, 1)
				case len(res.Violations) > 0:
					atomic.AddInt64(&failed, 1)
				default:
					atomic.AddInt64(&passed, 1)
				}
				if res.Err == "" && res.Rows == 0 {
					atomic.AddInt64(&empty, 1)
				}

				if cfg.Verbose {
					logger.Get().Debug(ctx, "selection checked",
						logger.Any("selection", res.Selection),
						logger.Int("rows", res.Rows),
						logger.Int("violations", len(res.Violations)))
				}
				if n := atomic.AddInt64(&done, 1); n%progressEvery == 0 {
					logger.Get().Info(ctx, "progress",
						logger.Int("checked", int(n)),
						logger.Int("total", len(sels)),
						logger.Int("failed", int(atomic.LoadInt64(&failed))))
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range sels {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	wg.Wait()

	stats.RequestsSent = int(atomic.LoadInt64(&sent))
	stats.SelectionsPassed = int(atomic.LoadInt64(&passed))
	stats.SelectionsFailed = int(atomic.LoadInt64(&failed))
	stats.RequestErrors = int(atomic.LoadInt64(&reqErrs))
	stats.EmptySelections = int(atomic.LoadInt64(&empty))
	return results
}

// checkSelection fetches sel in every supported encoding, verifies the
// array-form response and compares the others against it.
func checkSelection(ctx context.Context, cfg *Config, client *HTTPClient, sel Selection) (Result, int) {
	res := Result{Selection: sel}
	requests := 1

	views, err := client.viewsByBody(ctx, sel)
	if err != nil {
		res.Err = err.Error()
		return res, requests
	}
	res.Rows = views.TimeSeries.Rows
	res.Violations = verifyViews(sel, cfg.TopN, views)

	requests++
	byQuery, err := client.viewsByQuery(ctx, sel)
	if err != nil {
		res.Err = err.Error()
		return res, requests
	}
	res.Violations = append(res.Violations, verifyEquivalent("query", views, byQuery)...)

	if len(sel.Continents) == 1 {
		requests++
		single, err := client.viewsBySingleContinent(ctx, sel)
		if err != nil {
			res.Err = err.Error()
			return res, requests
		}
		res.Violations = append(res.Violations, verifyEquivalent("single string", views, single)...)
	}
	return res, requests
}

// saveReport writes report as indented JSON, creating the parent directory.
func saveReport(filename string, report Report) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(filename, data, reportPermission); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// displayFinalStats logs the final probe statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var passRate, requestsPerSecond float64
	if stats.SelectionsGenerated > 0 {
		passRate = float64(stats.SelectionsPassed) / float64(stats.SelectionsGenerated) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		requestsPerSecond = float64(stats.RequestsSent) / stats.Duration.Seconds()
	}

	log.Info(ctx, "final statistics",
		logger.Int("selectionsGenerated", stats.SelectionsGenerated),
		logger.Int("requestsSent", stats.RequestsSent),
		logger.Int("selectionsPassed", stats.SelectionsPassed),
		logger.Int("selectionsFailed", stats.SelectionsFailed),
		logger.Int("requestErrors", stats.RequestErrors),
		logger.Int("emptySelections", stats.EmptySelections),
		logger.Duration("duration", stats.Duration),
		logger.Float64("passRate", passRate),
		logger.Float64("requestsPerSecond", requestsPerSecond))
}
