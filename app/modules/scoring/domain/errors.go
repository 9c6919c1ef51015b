package scoringdomain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for a single scoring attempt. Every one of them is local to the
// attempt: it is reported to the caller and nothing is persisted.
var (
	// ErrNoGroundTruth indicates that no ground truth has ever been activated.
	ErrNoGroundTruth = errors.New("no ground truth available, contact admin")

	// ErrMalformedCSV indicates the upload could not be parsed as a table or is empty.
	ErrMalformedCSV = errors.New("malformed csv")

	// ErrColumnNotFound indicates neither the configured name nor any heuristic matched.
	ErrColumnNotFound = errors.New("column not found")

	// ErrNoValidData indicates every row was dropped by numeric coercion.
	ErrNoValidData = errors.New("no valid numeric values found in CSV files")

	// ErrRowCountMismatch indicates the prediction and ground truth have different row counts.
	ErrRowCountMismatch = errors.New("row count mismatch")

	// ErrUnknownMetric indicates a metric name outside rmse, mae and accuracy.
	ErrUnknownMetric = errors.New("unknown metric")
)

// TableSource names which side of a comparison a table came from.
type TableSource string

const (
	SourcePrediction  TableSource = "prediction"
	SourceGroundTruth TableSource = "ground truth"
)

// ColumnNotFoundError reports a failed column resolution and the columns that were available.
type ColumnNotFoundError struct {
	Source    TableSource
	Role      ColumnRole
	Available []string
}

func (e *ColumnNotFoundError) Error() string {
	available := strings.Join(e.Available, ", ")
	if e.Source == SourceGroundTruth {
		return fmt.Sprintf("could not find numeric column in ground truth. Available columns: %s", available)
	}
	return fmt.Sprintf("could not find numeric column for values. Available columns: %s", available)
}

func (e *ColumnNotFoundError) Unwrap() error { return ErrColumnNotFound }

// RowCountMismatchError carries the number of data rows on each side.
type RowCountMismatchError struct {
	Predicted int
	Truth     int
}

func (e *RowCountMismatchError) Error() string {
	return fmt.Sprintf("row count mismatch: %d predictions vs %d ground truth values", e.Predicted, e.Truth)
}

func (e *RowCountMismatchError) Unwrap() error { return ErrRowCountMismatch }

// ErrorKind is the stable, machine-readable name of a scoring failure.
type ErrorKind string

const (
	KindNoGroundTruth    ErrorKind = "no_ground_truth"
	KindMalformedCSV     ErrorKind = "malformed_csv"
	KindColumnNotFound   ErrorKind = "column_not_found"
	KindNoValidData      ErrorKind = "no_valid_data"
	KindRowCountMismatch ErrorKind = "row_count_mismatch"
	KindInvalidMetric    ErrorKind = "invalid_metric"
	KindStorageFailure   ErrorKind = "storage_failure"
)

// KindOf classifies err. Anything that is not a known scoring failure is a
// collaborator (storage) failure.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrNoGroundTruth):
		return KindNoGroundTruth
	case errors.Is(err, ErrMalformedCSV):
		return KindMalformedCSV
	case errors.Is(err, ErrColumnNotFound):
		return KindColumnNotFound
	case errors.Is(err, ErrNoValidData):
		return KindNoValidData
	case errors.Is(err, ErrRowCountMismatch):
		return KindRowCountMismatch
	case errors.Is(err, ErrUnknownMetric):
		return KindInvalidMetric
	default:
		return KindStorageFailure
	}
}

// IsScoringFailure reports whether err is a business failure of a scoring attempt
// rather than an infrastructure error.
func IsScoringFailure(err error) bool {
	return err != nil && KindOf(err) != KindStorageFailure
}
