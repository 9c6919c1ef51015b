package scoringdomain

import (
	"strconv"
	"strings"
)

// Alignment records how prediction rows were paired with truth rows.
type Alignment string

const (
	AlignIDSorted         Alignment = "id_sorted"
	AlignDeclarationOrder Alignment = "declaration_order"
	AlignKeyed            Alignment = "keyed"
)

// ColumnPreferences are the configured column names. Either may be empty.
type ColumnPreferences struct {
	IDColumn    string
	ValueColumn string
}

// ResolvedColumns are the columns actually used on one side. ID is empty when no
// id column resolved.
type ResolvedColumns struct {
	ID    string `json:"id,omitempty"`
	Value string `json:"value"`
}

// Result is a successful score.
type Result struct {
	Metric            Metric          `json:"metric"`
	Score             float64         `json:"score"`
	Rows              int             `json:"rows"`
	Alignment         Alignment       `json:"alignment"`
	PredictionColumns ResolvedColumns `json:"prediction_columns"`
	TruthColumns      ResolvedColumns `json:"truth_columns"`
}

// Score compares a prediction table with a ground truth table.
//
// Value columns must resolve on both sides. When id columns resolve on both sides
// the tables are sorted by id first; an id column that cannot be ordered leaves
// the tables in declaration order. Accuracy with both ids available is computed
// by id instead of by position.
func Score(prediction, truth *Table, prefs ColumnPreferences, m Metric) (Result, error) {
	if !m.Valid() {
		_, err := ParseMetric(string(m))
		return Result{}, err
	}
	if prediction == nil || truth == nil {
		return Result{}, ErrMalformedCSV
	}

	predValue, ok := ResolveColumn(prediction, RoleValue, prefs.ValueColumn)
	if !ok {
		return Result{}, &ColumnNotFoundError{Source: SourcePrediction, Role: RoleValue, Available: prediction.Columns()}
	}
	truthValue, ok := ResolveColumn(truth, RoleValue, prefs.ValueColumn)
	if !ok {
		return Result{}, &ColumnNotFoundError{Source: SourceGroundTruth, Role: RoleValue, Available: truth.Columns()}
	}

	predID, predHasID := ResolveColumn(prediction, RoleID, prefs.IDColumn)
	truthID, truthHasID := ResolveColumn(truth, RoleID, prefs.IDColumn)
	bothIDs := predHasID && truthHasID

	result := Result{
		Metric:            m,
		PredictionColumns: ResolvedColumns{Value: predValue},
		TruthColumns:      ResolvedColumns{Value: truthValue},
	}
	if bothIDs {
		result.PredictionColumns.ID = predID
		result.TruthColumns.ID = truthID
	}

	if m.Keyed() && bothIDs {
		return scoreKeyed(result, prediction, truth)
	}

	result.Alignment = AlignDeclarationOrder
	if bothIDs {
		sortedPred, errPred := prediction.SortedBy(predID)
		sortedTruth, errTruth := truth.SortedBy(truthID)
		if errPred == nil && errTruth == nil {
			prediction, truth = sortedPred, sortedTruth
			result.Alignment = AlignIDSorted
		}
	}

	predCells, _ := prediction.Column(predValue)
	truthCells, _ := truth.Column(truthValue)
	pred, tru, err := alignPositional(predCells, truthCells)
	if err != nil {
		return Result{}, err
	}

	score, err := Evaluate(m, pred, tru)
	if err != nil {
		return Result{}, err
	}
	result.Score = score
	result.Rows = len(pred)
	return result, nil
}

// alignPositional pairs cells by position and drops a row when either side is
// missing. Columns of different lengths cannot be paired.
func alignPositional(predCells, truthCells []string) ([]float64, []float64, error) {
	if len(predCells) != len(truthCells) {
		return nil, nil, &RowCountMismatchError{Predicted: len(predCells), Truth: len(truthCells)}
	}

	pred := make([]float64, 0, len(predCells))
	tru := make([]float64, 0, len(truthCells))
	for i := range predCells {
		p, okP := ParseNumber(predCells[i])
		t, okT := ParseNumber(truthCells[i])
		if !okP || !okT {
			continue
		}
		pred = append(pred, p)
		tru = append(tru, t)
	}
	if len(pred) == 0 {
		return nil, nil, ErrNoValidData
	}
	return pred, tru, nil
}

func scoreKeyed(result Result, prediction, truth *Table) (Result, error) {
	pred := keyedValues(prediction, result.PredictionColumns)
	tru := keyedValues(truth, result.TruthColumns)
	if len(pred) == 0 || len(tru) == 0 {
		return Result{}, ErrNoValidData
	}

	score, err := EvaluateKeyed(result.Metric, pred, tru)
	if err != nil {
		return Result{}, err
	}
	result.Alignment = AlignKeyed
	result.Score = score
	result.Rows = len(tru)
	return result, nil
}

// keyedValues maps normalised id to numeric value. Rows with a blank id or a
// missing value are skipped and the first occurrence of an id wins.
func keyedValues(t *Table, cols ResolvedColumns) map[string]float64 {
	ids, _ := t.Column(cols.ID)
	values, _ := t.Column(cols.Value)
	out := make(map[string]float64, len(ids))
	for i := range ids {
		key, ok := normaliseID(ids[i])
		if !ok {
			continue
		}
		v, ok := ParseNumber(values[i])
		if !ok {
			continue
		}
		if _, dup := out[key]; dup {
			continue
		}
		out[key] = v
	}
	return out
}

// normaliseID makes "1", "1.0" and " 1 " the same key.
func normaliseID(cell string) (string, bool) {
	if v, ok := ParseNumber(cell); ok {
		return strconv.FormatFloat(v, 'g', -1, 64), true
	}
	trimmed := strings.TrimSpace(cell)
	return trimmed, trimmed != ""
}
