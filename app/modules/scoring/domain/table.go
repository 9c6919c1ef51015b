package scoringdomain

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Table is a parsed CSV upload: named columns of raw cells, all of the same length.
type Table struct {
	names []string
	cells [][]string // cells[column][row]
	rows  int
}

// NewTable builds a table from a header and row-major records. Short records are
// padded with blank cells; records longer than the header are rejected.
// Blank header names become "Unnamed: <index>" and duplicates get ".1", ".2" suffixes.
func NewTable(header []string, records [][]string) (*Table, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("%w: missing header row", ErrMalformedCSV)
	}

	t := &Table{
		names: dedupeHeader(header),
		cells: make([][]string, len(header)),
		rows:  len(records),
	}
	for c := range t.cells {
		t.cells[c] = make([]string, len(records))
	}

	for r, record := range records {
		if len(record) > len(header) {
			return nil, fmt.Errorf("%w: line %d has %d fields, header has %d", ErrMalformedCSV, r+2, len(record), len(header))
		}
		for c, cell := range record {
			t.cells[c][r] = cell
		}
	}
	return t, nil
}

// ParseTable parses comma-delimited text with a header row. Empty input, a header
// without data rows, and unparsable CSV all fail with ErrMalformedCSV.
func ParseTable(text string) (*Table, error) {
	text = strings.TrimPrefix(text, "\ufeff")
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: file is empty", ErrMalformedCSV)
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1

	var records [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
		}
		if isBlankRecord(record) {
			continue
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrMalformedCSV)
	}
	if len(records) == 1 {
		return nil, fmt.Errorf("%w: no data rows below the header", ErrMalformedCSV)
	}
	return NewTable(records[0], records[1:])
}

// Columns returns the column names in declaration order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Len returns the number of data rows.
func (t *Table) Len() int { return t.rows }

// Column returns the cells of the named column.
func (t *Table) Column(name string) ([]string, bool) {
	idx := t.index(name)
	if idx < 0 {
		return nil, false
	}
	return t.cells[idx], true
}

// SortedBy returns a copy of the table stably sorted by the named column. Numeric
// columns sort numerically and blank cells sort last. Any other column, including
// one mixing numbers and text, sorts lexicographically.
func (t *Table) SortedBy(name string) (*Table, error) {
	idx := t.index(name)
	if idx < 0 {
		return nil, fmt.Errorf("sort: column %q not in table", name)
	}

	keys := sortKeysFor(t.cells[idx])

	order := make([]int, t.rows)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return keys[order[i]].less(keys[order[j]])
	})

	sorted := &Table{
		names: t.names,
		cells: make([][]string, len(t.cells)),
		rows:  t.rows,
	}
	for c, column := range t.cells {
		permuted := make([]string, len(column))
		for to, from := range order {
			permuted[to] = column[from]
		}
		sorted.cells[c] = permuted
	}
	return sorted, nil
}

func (t *Table) index(name string) int {
	for i, n := range t.names {
		if n == name {
			return i
		}
	}
	return -1
}

type sortKey struct {
	missing bool
	numeric bool
	num     float64
	text    string
}

func (a sortKey) less(b sortKey) bool {
	if a.missing || b.missing {
		return !a.missing && b.missing
	}
	if a.numeric {
		return a.num < b.num
	}
	return a.text < b.text
}

// sortKeysFor reads a column as numbers when every non-blank cell parses as
// one. A column mixing numbers and text is compared as text.
func sortKeysFor(cells []string) []sortKey {
	keys := make([]sortKey, len(cells))
	var sawNumber, sawText bool
	for i, cell := range cells {
		trimmed := strings.TrimSpace(cell)
		if trimmed == "" {
			keys[i] = sortKey{missing: true}
			continue
		}
		keys[i] = sortKey{text: trimmed}
		if v, err := strconv.ParseFloat(trimmed, 64); err == nil {
			keys[i].numeric = true
			keys[i].num = v
			sawNumber = true
			continue
		}
		sawText = true
	}
	if sawNumber && sawText {
		for i := range keys {
			keys[i].numeric = false
		}
	}
	return keys
}

func dedupeHeader(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, raw := range header {
		name := raw
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if strings.TrimSpace(name) == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if n, dup := seen[name]; dup {
			candidate := name
			for {
				n++
				candidate = name + "." + strconv.Itoa(n)
				if _, taken := seen[candidate]; !taken {
					break
				}
			}
			seen[name] = n
			name = candidate
		}
		seen[name] = 0
		names[i] = name
	}
	return names
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
