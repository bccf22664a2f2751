package repository

import "errors"

// Sentinel kinds for dataset errors.
var (
	ErrEmptyDataset  = errors.New("dataset is empty")
	ErrMissingColumn = errors.New("missing dataset column")
	ErrMalformedRow  = errors.New("malformed dataset row")
)
