package groundtruthdomain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	scoringdomain "github.com/predict-it/predict-it/app/modules/scoring/domain"
)

// GroundTruth is one uploaded version of the reference answers. Versions are never
// deleted; at most one is active.
type GroundTruth struct {
	ID        int64     `json:"id"`
	Filename  string    `json:"filename"`
	Data      string    `json:"-"`
	Rows      int       `json:"rows"`
	Columns   []string  `json:"columns"`
	CreatedAt time.Time `json:"created_at"`
	IsActive  bool      `json:"is_active"`
}

// Table parses the stored CSV text.
func (g GroundTruth) Table() (*scoringdomain.Table, error) {
	return scoringdomain.ParseTable(g.Data)
}

// Summary is the public view of a ground truth version.
type Summary struct {
	ID        int64     `json:"id"`
	Filename  string    `json:"filename"`
	Rows      int       `json:"rows"`
	CreatedAt time.Time `json:"created_at"`
	IsActive  bool      `json:"is_active"`
}

func (g GroundTruth) Summary() Summary {
	return Summary{ID: g.ID, Filename: g.Filename, Rows: g.Rows, CreatedAt: g.CreatedAt, IsActive: g.IsActive}
}

// StoredFilename is the name a ground truth upload is kept under.
func StoredFilename(at time.Time) string {
	return fmt.Sprintf("ground_truth_%s.csv", at.UTC().Format("20060102_150405"))
}

var (
	// ErrInvalidColumnSettings indicates a missing value column name.
	ErrInvalidColumnSettings = errors.New("value column name is required")
)

// Setting keys for the column configuration.
const (
	SettingIDColumn    = "id_column"
	SettingValueColumn = "value_column"
)

// ColumnSettings names the columns scoring should look for first.
type ColumnSettings struct {
	IDColumn    string `json:"id_column"`
	ValueColumn string `json:"value_column"`
}

// DefaultColumnSettings apply until an admin configures columns.
func DefaultColumnSettings() ColumnSettings {
	return ColumnSettings{IDColumn: "id", ValueColumn: "value"}
}

// Normalize trims both names and defaults a blank id column to "id".
// A blank value column is an error.
func (c ColumnSettings) Normalize() (ColumnSettings, error) {
	out := ColumnSettings{
		IDColumn:    strings.TrimSpace(c.IDColumn),
		ValueColumn: strings.TrimSpace(c.ValueColumn),
	}
	if out.ValueColumn == "" {
		return ColumnSettings{}, ErrInvalidColumnSettings
	}
	if out.IDColumn == "" {
		out.IDColumn = DefaultColumnSettings().IDColumn
	}
	return out, nil
}

// Preferences converts the settings for the scorer.
func (c ColumnSettings) Preferences() scoringdomain.ColumnPreferences {
	return scoringdomain.ColumnPreferences{IDColumn: c.IDColumn, ValueColumn: c.ValueColumn}
}

// SettingsFromMap fills missing keys with defaults.
func SettingsFromMap(values map[string]string) ColumnSettings {
	out := DefaultColumnSettings()
	if v, ok := values[SettingIDColumn]; ok && v != "" {
		out.IDColumn = v
	}
	if v, ok := values[SettingValueColumn]; ok && v != "" {
		out.ValueColumn = v
	}
	return out
}
