package scoringdb

import "errors"

// ErrNotFound indicates the requested submission does not exist.
var ErrNotFound = errors.New("submission not found")
