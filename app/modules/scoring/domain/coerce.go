package scoringdomain

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumber coerces a cell to a finite float. Blank, unparsable, NaN and
// infinite cells are reported as missing.
func ParseNumber(cell string) (float64, bool) {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// allNumeric reports whether every non-blank cell is numeric and at least one is.
func allNumeric(cells []string) bool {
	seen := false
	for _, cell := range cells {
		if strings.TrimSpace(cell) == "" {
			continue
		}
		if _, ok := ParseNumber(cell); !ok {
			return false
		}
		seen = true
	}
	return seen
}
