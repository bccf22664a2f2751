package probe

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/devstats/pkg/logger"
)

const logFilePermission = 0600

// SetupLogging initializes the logger to write to stdout and, when logFile
// is set, to that file as well. The returned func closes the file.
func SetupLogging(logFile string, verbose bool) (func() error, error) {
	var (
		out    io.Writer = os.Stdout
		closer           = func() error { return nil }
	)
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, file)
		closer = file.Close
	}

	if err := logger.Init(logger.WithOutput(out)); err != nil {
		_ = closer()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return closer, nil
}

// ShowHelp prints usage information for the probe tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`devstats probe
==============

Sends random dashboard selections to a running devstats server and checks
every response against the view invariants.

Usage:
  go run ./cmd/probe [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8050")
  -selections int
        Number of selections to check (default 500)
  -top int
        Expected size limit of the top view (default 3)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 10s)
  -seed uint
        Generator seed; 0 picks one from the clock
  -output string
        Write a JSON report of every checked selection to this file
  -log string
        Also write logs to this file
  -verbose
        Log every checked selection
  -help
        Show this help message

Examples:
  # Probe a local server with default settings
  go run ./cmd/probe

  # Reproduce an earlier run
  go run ./cmd/probe -seed 42 -selections 2000 -output probe.json
`)
}
