// Package results holds the success/failure envelope returned by application services.
package results

// OperationResult carries either a success payload or a business failure.
// Infrastructure errors travel separately as a plain error.
type OperationResult[S any, F any] struct {
	Success *S
	Failure *F
}

// SuccessResult wraps a success payload.
func SuccessResult[S any, F any](success S) OperationResult[S, F] {
	return OperationResult[S, F]{Success: &success}
}

// FailureResult wraps a business failure.
func FailureResult[S any, F any](failure F) OperationResult[S, F] {
	return OperationResult[S, F]{Failure: &failure}
}

func (r OperationResult[S, F]) IsSuccess() bool { return r.Success != nil }

func (r OperationResult[S, F]) IsFailure() bool { return r.Failure != nil }

// Unwrap returns the success payload, the failure as an error, or err.
// It is the usual last step of a service method whose failures are errors.
func Unwrap[S any](r OperationResult[S, error], err error) (S, error) {
	var zero S
	if err != nil {
		return zero, err
	}
	if r.IsFailure() {
		return zero, *r.Failure
	}
	if r.Success == nil {
		return zero, nil
	}
	return *r.Success, nil
}
