package groundtruthdb

import (
	"time"

	"github.com/uptrace/bun"

	groundtruthdomain "github.com/predict-it/predict-it/app/modules/groundtruth/domain"
)

// GroundTruth is a stored ground truth version.
type GroundTruth struct {
	bun.BaseModel `bun:"table:ground_truths,alias:gt"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Filename  string    `bun:"filename,notnull"`
	Data      string    `bun:"data,notnull"`
	Rows      int       `bun:"row_count,notnull"`
	Columns   []string  `bun:"columns,array"`
	IsActive  bool      `bun:"is_active,notnull,default:false"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func (g *GroundTruth) ToDomain() groundtruthdomain.GroundTruth {
	return groundtruthdomain.GroundTruth{
		ID:        g.ID,
		Filename:  g.Filename,
		Data:      g.Data,
		Rows:      g.Rows,
		Columns:   g.Columns,
		CreatedAt: g.CreatedAt,
		IsActive:  g.IsActive,
	}
}

// Setting is one key of the process-wide settings map.
type Setting struct {
	bun.BaseModel `bun:"table:settings,alias:s"`

	Key       string    `bun:"setting_key,pk"`
	Value     string    `bun:"setting_value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
