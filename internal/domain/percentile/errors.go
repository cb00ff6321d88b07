package percentile

import "errors"

// Sentinel kinds for profile registration errors.
var (
	ErrEmptyGameID      = errors.New("profile game id must not be empty")
	ErrInvalidStdDev    = errors.New("profile std dev must be finite and > 0")
	ErrInvalidMean      = errors.New("profile mean must be finite")
	ErrDuplicateProfile = errors.New("duplicate game profile")
)
