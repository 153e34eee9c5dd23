package audit

import (
	"database/sql"
	"time"
)

// Modification is one field-level change row. Immutable, no activity
// flag, display only.
type Modification struct {
	ModificationID int64
	AssetID        int64
	AssetKind      string
	FieldName      string
	OldValue       sql.NullString
	NewValue       sql.NullString
	OccurredAt     time.Time
	ChangedBy      sql.NullString
}

// LedgerEvent is the slice of an assignments row the timeline needs.
type LedgerEvent struct {
	AssignmentID     int64
	ActionType       string
	TargetEmployeeID sql.NullString
	Active           bool
	Motivo           sql.NullString
	OccurredAt       time.Time
	CreatedBy        sql.NullString
}
