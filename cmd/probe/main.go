package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/devstats/internal/probe"
)

const (
	defaultWorkers   = 2 // multiplier for runtime.NumCPU()
	defaultRunBudget = 10 * time.Minute
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		baseURL    = flag.String("url", "http://localhost:8050", "Base URL of the service")
		selections = flag.Int("selections", probe.DefaultSelections, "Number of selections to check")
		topN       = flag.Int("top", probe.DefaultTopN, "Expected size limit of the top view")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", probe.DefaultTimeout, "HTTP request timeout")
		seed       = flag.Uint64("seed", 0, "Generator seed (0 picks one from the clock)")
		outputFile = flag.String("output", "", "JSON report file")
		logFile    = flag.String("log", "", "Log file")
		verbose    = flag.Bool("verbose", false, "Log every checked selection")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		probe.ShowHelp()
		return 0
	}

	closeLog, err := probe.SetupLogging(*logFile, *verbose)
	if err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return 1
	}
	defer func() { _ = closeLog() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunBudget)
	defer cancel()

	cfg := &probe.Config{
		BaseURL:    *baseURL,
		Selections: *selections,
		TopN:       *topN,
		Workers:    *workers,
		Timeout:    *timeout,
		Seed:       *seed,
		OutputFile: *outputFile,
		Verbose:    *verbose,
	}

	if _, err := probe.Run(ctx, cfg); err != nil {
		_, _ = os.Stderr.WriteString("Probe failed: " + err.Error() + "\n")
		return 1
	}
	return 0
}
