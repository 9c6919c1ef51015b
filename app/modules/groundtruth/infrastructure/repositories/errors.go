package groundtruthdb

import "errors"

// Sentinel errors for the repository layer.
var (
	// ErrNotFound indicates the requested ground truth version does not exist.
	ErrNotFound = errors.New("ground truth not found")

	// ErrNoActiveGroundTruth indicates no version is active.
	ErrNoActiveGroundTruth = errors.New("no active ground truth")
)
