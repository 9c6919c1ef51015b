package scoringdomain

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Metric is a scoring function name.
type Metric string

const (
	MetricRMSE     Metric = "rmse"
	MetricMAE      Metric = "mae"
	MetricAccuracy Metric = "accuracy"
)

// Direction says which way a metric improves.
type Direction int

const (
	LowerIsBetter Direction = iota
	HigherIsBetter
)

func (d Direction) String() string {
	if d == HigherIsBetter {
		return "higher_is_better"
	}
	return "lower_is_better"
}

// Better reports whether a strictly beats b.
func (d Direction) Better(a, b float64) bool {
	if d == HigherIsBetter {
		return a > b
	}
	return a < b
}

// ParseMetric accepts a metric name in any case.
func ParseMetric(name string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(name)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMetric, name)
	}
	return m, nil
}

func (m Metric) Valid() bool {
	switch m {
	case MetricRMSE, MetricMAE, MetricAccuracy:
		return true
	}
	return false
}

func (m Metric) String() string { return string(m) }

// Direction returns the improvement direction of m.
func (m Metric) Direction() Direction {
	if m == MetricAccuracy {
		return HigherIsBetter
	}
	return LowerIsBetter
}

// Keyed reports whether m aligns rows by id when ids are available.
func (m Metric) Keyed() bool { return m == MetricAccuracy }

// Evaluate scores positionally aligned values. Pairs where either side is not
// finite are dropped.
func Evaluate(m Metric, pred, truth []float64) (float64, error) {
	if !m.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, m)
	}
	if len(pred) != len(truth) {
		return 0, &RowCountMismatchError{Predicted: len(pred), Truth: len(truth)}
	}

	var sum float64
	n := 0
	for i := range pred {
		p, t := pred[i], truth[i]
		if !finite(p) || !finite(t) {
			continue
		}
		sum += pointLoss(m, p, t)
		n++
	}
	if n == 0 {
		return 0, ErrNoValidData
	}
	return finish(m, sum, n), nil
}

// EvaluateKeyed scores predictions keyed by id against truth keyed by id. The
// truth ids drive the comparison: a missing prediction counts as 0 for rmse and
// mae and as a miss for accuracy.
func EvaluateKeyed(m Metric, pred, truth map[string]float64) (float64, error) {
	if !m.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, m)
	}

	ids := make([]string, 0, len(truth))
	for id, t := range truth {
		if finite(t) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return 0, ErrNoValidData
	}
	sort.Strings(ids)

	var sum float64
	for _, id := range ids {
		t := truth[id]
		p, ok := pred[id]
		if !ok || !finite(p) {
			if m == MetricAccuracy {
				continue
			}
			p = 0
		}
		sum += pointLoss(m, p, t)
	}
	return finish(m, sum, len(ids)), nil
}

func pointLoss(m Metric, p, t float64) float64 {
	switch m {
	case MetricRMSE:
		d := p - t
		return d * d
	case MetricMAE:
		return math.Abs(p - t)
	default:
		if math.Round(p) == math.Round(t) {
			return 1
		}
		return 0
	}
}

func finish(m Metric, sum float64, n int) float64 {
	mean := sum / float64(n)
	if m == MetricRMSE {
		return math.Sqrt(mean)
	}
	return mean
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
