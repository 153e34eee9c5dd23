package inventory

import (
	"database/sql"
	"time"

	"SIGA-backend/internal/custody"
)

// Asset is one row of the assets table: computers and devices unified
// under a kind tag so every downstream rule exists once. The
// lifecycle_state column is denormalized from the ledger and is written
// only by the custody and consistency packages.
type Asset struct {
	AssetID        int64
	AssetULID      string
	Kind           custody.Kind
	Serial         string
	InventoryCode  string
	Name           string
	Brand          sql.NullString
	Model          sql.NullString
	LifecycleState custody.State
	Notes          sql.NullString
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
