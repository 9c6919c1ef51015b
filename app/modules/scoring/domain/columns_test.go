package scoringdomain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTable(t *testing.T, text string) *Table {
	t.Helper()
	tbl, err := ParseTable(text)
	require.NoError(t, err)
	return tbl
}

func TestResolveColumn(t *testing.T) {
	tests := []struct {
		name      string
		csv       string
		role      ColumnRole
		preferred string
		want      string
		wantOK    bool
	}{
		{
			name:      "configured value column present verbatim",
			csv:       "id,score,prediction\n1,0.5,3\n",
			role:      RoleValue,
			preferred: "score",
			want:      "score",
			wantOK:    true,
		},
		{
			name:      "exact match is case sensitive",
			csv:       "id,Score,value\n1,0.5,3\n",
			role:      RoleValue,
			preferred: "score",
			want:      "value",
			wantOK:    true,
		},
		{
			name:      "prediction matched in any case",
			csv:       "id,PREDICTION\n1,2\n",
			role:      RoleValue,
			preferred: "value",
			want:      "PREDICTION",
			wantOK:    true,
		},
		{
			name:      "candidate order beats column order",
			csv:       "target,prediction\n1,2\n",
			role:      RoleValue,
			preferred: "",
			want:      "prediction",
			wantOK:    true,
		},
		{
			name:      "rightmost numeric column as last resort",
			csv:       "name,a,b,label\nx,1,2,z\ny,3,4,w\n",
			role:      RoleValue,
			preferred: "value",
			want:      "b",
			wantOK:    true,
		},
		{
			name:      "blank cells do not disqualify a numeric column",
			csv:       "name,a\nx,1\ny,\n",
			role:      RoleValue,
			preferred: "value",
			want:      "a",
			wantOK:    true,
		},
		{
			name:      "only non-numeric columns",
			csv:       "name,label\nx,z\ny,w\n",
			role:      RoleValue,
			preferred: "value",
			wantOK:    false,
		},
		{
			name:      "id candidates matched in any case",
			csv:       "Sample_ID,value\n1,2\n",
			role:      RoleID,
			preferred: "id",
			want:      "Sample_ID",
			wantOK:    true,
		},
		{
			name:      "first column assumed to be the id",
			csv:       "row,value\n1,2\n",
			role:      RoleID,
			preferred: "id",
			want:      "row",
			wantOK:    true,
		},
		{
			name:      "single column table has no id",
			csv:       "value\n1\n",
			role:      RoleID,
			preferred: "id",
			wantOK:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := mustTable(t, tt.csv)
			got, ok := ResolveColumn(tbl, tt.role, tt.preferred)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveColumnDoesNotMutateTable(t *testing.T) {
	tbl := mustTable(t, "a,b\n1,2\n")
	before := tbl.Columns()
	_, _ = ResolveColumn(tbl, RoleValue, "missing")
	_, _ = ResolveColumn(tbl, RoleID, "missing")
	assert.Equal(t, before, tbl.Columns())
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		cell   string
		want   float64
		wantOK bool
	}{
		{"1.5", 1.5, true},
		{"  -2 ", -2, true},
		{"1e3", 1000, true},
		{"", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"inf", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.cell)
		assert.Equal(t, tt.wantOK, ok, tt.cell)
		assert.Equal(t, tt.want, got, tt.cell)
	}
}
