package consistency

import (
	"time"

	"SIGA-backend/internal/custody"
)

type ScanOptions struct {
	// Limit caps how many assets one scan evaluates, for controlled or
	// incremental runs. <= 0 means the whole population.
	Limit int `json:"limit"`
}

type AssetRef struct {
	AssetID   int64         `json:"asset_id"`
	AssetULID string        `json:"asset_ulid"`
	Kind      custody.Kind  `json:"kind"`
	State     custody.State `json:"lifecycle_state"`
}

// OrphanFinding: state claims assignment but the ledger has no witness.
type OrphanFinding struct {
	Asset AssetRef `json:"asset"`
	// RecoveryCandidate is the employee on the most recent historical
	// row carrying a target, if any. Re-validated before repair.
	RecoveryCandidate *string `json:"recovery_candidate,omitempty"`
}

// InverseFinding: state claims non-assignment but an active witness row
// is still dangling.
type InverseFinding struct {
	Asset                AssetRef `json:"asset"`
	DanglingAssignmentID int64    `json:"dangling_assignment_id"`
	DanglingEmployeeID   *string  `json:"dangling_employee_id,omitempty"`
}

type ConsistencyReport struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Scanned     int              `json:"scanned"`
	Consistent  int              `json:"consistent"`
	Orphans     []OrphanFinding  `json:"orphans"`
	Inverse     []InverseFinding `json:"inverse_inconsistent"`
}

// Policy selects what the reconciliation engine may do. The zero value
// is a pure dry-run.
type Policy struct {
	ApplyWrites         bool    `json:"apply_writes"`
	DowngradeUnresolved bool    `json:"downgrade_unresolved"`
	FallbackEmployeeID  *string `json:"fallback_employee_id,omitempty"`
}

type Result string

const (
	ResultApplied Result = "applied"
	ResultSkipped Result = "skipped"
	ResultFailed  Result = "failed"
)

// Outcome is the per-asset audit line. Every flagged asset gets exactly
// one; there is no silent success or failure.
type Outcome struct {
	Asset      AssetRef `json:"asset"`
	Result     Result   `json:"result"`
	Reason     string   `json:"reason"`
	EmployeeID *string  `json:"employee_id,omitempty"`
}

type ReconciliationReport struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DryRun     bool      `json:"dry_run"`
	Policy     Policy    `json:"policy"`
	Applied    int       `json:"applied"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	Outcomes   []Outcome `json:"outcomes"`
}

const (
	reasonHistoricalRecovery = "historical recovery"
	reasonFallbackAssignment = "fallback assignment"
	reasonDowngraded         = "downgraded to operational"
	reasonAlreadyConsistent  = "already consistent"
	reasonUnresolved         = "unresolved, no policy selected"
	reasonDanglingDeactivate = "deactivated dangling assignment"
)
