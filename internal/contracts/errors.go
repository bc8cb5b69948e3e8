package contracts

import "errors"

// Sentinel errors shared across the data pipeline.
var (
	// ErrDataUnavailable means every fetch strategy for a series was
	// exhausted without producing data.
	ErrDataUnavailable = errors.New("data unavailable: all fetch strategies failed")

	// ErrInsufficientOverlap means two or more series did not share
	// enough common dates for a derivation.
	ErrInsufficientOverlap = errors.New("insufficient overlapping dates")
)
