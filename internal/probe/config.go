package probe

import (
	"time"

	"github.com/okian/devstats/internal/domain/types"
)

// Config holds configuration for a probe run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Selections int           // Number of random selections to check
	TopN       int           // Expected size limit of the top view
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	Seed       uint64        // Seed for the selection generator; 0 picks one
	OutputFile string        // Report file; empty disables the report
	Verbose    bool          // Log every checked selection
}

// Selection is one request body sent to POST /api/views.
type Selection struct {
	Continents []string `json:"continents"`
	From       int      `json:"from"`
	To         int      `json:"to"`
	Indicator  string   `json:"indicator"`
}

// Result is the outcome of checking one selection.
type Result struct {
	Selection  Selection `json:"selection"`
	Rows       int       `json:"rows"`
	Violations []string  `json:"violations,omitempty"`
	Err        string    `json:"error,omitempty"`
}

// Stats holds probe statistics.
type Stats struct {
	SelectionsGenerated int
	RequestsSent        int
	SelectionsPassed    int
	SelectionsFailed    int
	RequestErrors       int
	EmptySelections     int
	StartTime           time.Time
	EndTime             time.Time
	Duration            time.Duration
}

// Report is written to Config.OutputFile after a run.
type Report struct {
	BaseURL string        `json:"base_url"`
	Seed    uint64        `json:"seed"`
	Options types.Options `json:"options"`
	Results []Result      `json:"results"`
}
