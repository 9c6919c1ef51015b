package scoringdomain

import "strings"

// ColumnRole is the part a column plays in scoring.
type ColumnRole string

const (
	RoleID    ColumnRole = "id"
	RoleValue ColumnRole = "value"
)

var (
	valueCandidates = []string{"prediction", "value", "output", "target", "y", "predictions", "values", "outputs"}
	idCandidates    = []string{"id", "index", "sample_id", "sample", "record_id", "idx"}
)

// Candidates returns the fallback names tried for role, in priority order.
func (r ColumnRole) Candidates() []string {
	switch r {
	case RoleID:
		return append([]string(nil), idCandidates...)
	case RoleValue:
		return append([]string(nil), valueCandidates...)
	default:
		return nil
	}
}

// ResolveColumn picks the column playing role in t. The preferred name wins when
// it is present verbatim, then the role's candidates are matched case-insensitively
// in order. As a last resort the value role takes the right-most fully numeric
// column and the id role takes the first column of a multi-column table.
func ResolveColumn(t *Table, role ColumnRole, preferred string) (string, bool) {
	if t == nil {
		return "", false
	}
	columns := t.names

	if preferred != "" {
		for _, name := range columns {
			if name == preferred {
				return name, true
			}
		}
	}

	for _, candidate := range role.Candidates() {
		for _, name := range columns {
			if strings.EqualFold(strings.TrimSpace(name), candidate) {
				return name, true
			}
		}
	}

	switch role {
	case RoleValue:
		for i := len(columns) - 1; i >= 0; i-- {
			if allNumeric(t.cells[i]) {
				return columns[i], true
			}
		}
	case RoleID:
		if len(columns) > 1 {
			return columns[0], true
		}
	}
	return "", false
}
