package probe

import "time"

// Default configuration constants.
const (
	DefaultSelections = 500
	DefaultTopN       = 3
	DefaultTimeout    = 10 * time.Second
)

// Generator tuning. Probabilities are out of 100.
const (
	emptyContinentsPercent = 5
	invertedRangePercent   = 5
	singleYearPercent      = 10
)

// Runner configuration constants.
const (
	WorkerChannelMultiplier = 2
	PercentageMultiplier    = 100
	progressEvery           = 100
)
