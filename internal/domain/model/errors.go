package model

import "errors"

// ErrUnknownIndicator is returned for indicator names outside the fixed set.
var ErrUnknownIndicator = errors.New("unknown indicator")
