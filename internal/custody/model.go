package custody

import (
	"database/sql"
	"time"
)

type Kind string

const (
	KindComputer Kind = "computer"
	KindDevice   Kind = "device"
)

func ParseKind(v string) (Kind, error) {
	switch Kind(v) {
	case KindComputer, KindDevice:
		return Kind(v), nil
	}
	return "", ErrInvalid("unknown asset kind: " + v)
}

type ActionType string

const (
	ActionAssignment   ActionType = "assignment"
	ActionReturn       ActionType = "return"
	ActionEdit         ActionType = "edit"
	ActionMaintenance  ActionType = "maintenance"
	ActionSafekeeping  ActionType = "safekeeping"
	ActionDecommission ActionType = "decommission"
	ActionReactivate   ActionType = "reactivate"
)

type TargetType string

const (
	TargetEmployee   TargetType = "employee"
	TargetDepartment TargetType = "department"
	TargetSystem     TargetType = "system"
	TargetNone       TargetType = "none"
)

// AssignmentRecord is one row of the assignments ledger. Rows are
// append-only: after insert only the active flag and notes may change.
type AssignmentRecord struct {
	AssignmentID     int64
	AssignmentULID   string
	AssetID          int64
	AssetKind        Kind
	ActionType       ActionType
	TargetType       TargetType
	TargetEmployeeID sql.NullString
	LocationID       sql.NullInt64
	Active           bool
	Motivo           sql.NullString
	Notes            sql.NullString
	OccurredAt       time.Time
	CreatedBy        sql.NullString
}

// IsWitness reports whether the row satisfies the active-custody
// condition: the single row allowed to define who holds the asset.
// Edit and other annotation rows never qualify regardless of flags.
func (r *AssignmentRecord) IsWitness() bool {
	return r.Active && r.ActionType == ActionAssignment && r.TargetEmployeeID.Valid
}
