package pipeline

import "errors"

// Sentinel kinds for pipeline errors.
var (
	ErrInvalidLimit     = errors.New("invalid top-n limit")
	ErrInvalidBins      = errors.New("invalid histogram bin count")
	ErrInvalidSelection = errors.New("invalid selection")
)
