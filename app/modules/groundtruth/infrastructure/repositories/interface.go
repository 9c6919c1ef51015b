package groundtruthdb

import (
	"context"

	"github.com/uptrace/bun"
)

// Repository defines the contract for ground truth and settings persistence.
type Repository interface {
	// LockForActivation serialises activations for the rest of the transaction.
	// Readers are not blocked. It must run inside a transaction.
	LockForActivation(ctx context.Context, db bun.IDB) error

	// DeactivateAll clears the active flag on every version.
	DeactivateAll(ctx context.Context, db bun.IDB) error

	// Create inserts a version and fills in its id and created_at.
	Create(ctx context.Context, db bun.IDB, gt *GroundTruth) error

	// GetActive returns the active version or ErrNoActiveGroundTruth.
	GetActive(ctx context.Context, db bun.IDB) (*GroundTruth, error)

	// GetByID returns any version, active or not.
	GetByID(ctx context.Context, db bun.IDB, id int64) (*GroundTruth, error)

	// List returns every version newest first, without the CSV data.
	List(ctx context.Context, db bun.IDB) ([]GroundTruth, error)

	// GetSettings returns the stored values for keys. Missing keys are absent from the map.
	GetSettings(ctx context.Context, db bun.IDB, keys ...string) (map[string]string, error)

	// UpsertSetting writes one settings key.
	UpsertSetting(ctx context.Context, db bun.IDB, key, value string) error
}
