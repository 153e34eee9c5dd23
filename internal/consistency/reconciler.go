package consistency

import (
	"context"
	"database/sql"
	"log"

	"SIGA-backend/internal/custody"
)

// Store is the persistence surface the engine drives. Each Repair* /
// Deactivate* call is one transaction scoped to a single asset and must
// re-read the witness before mutating; a repair that finds the asset
// already consistent returns a STALE_STATE error.
type Store interface {
	ScanAssets(ctx context.Context, limit int) ([]AssetProbe, error)
	LatestHistoricalTarget(ctx context.Context, assetID int64) (*string, error)
	RepairOrphanAssign(ctx context.Context, assetID int64, employeeID, motivo, actorID string) error
	RepairOrphanDowngrade(ctx context.Context, assetID int64) error
	DeactivateDangling(ctx context.Context, assetID, assignmentID int64, note string) error
}

type Service struct {
	store Store
	dir   custody.Directory
	clock custody.Clock
}

func NewService(conn *sql.DB, dir custody.Directory) *Service {
	return &Service{store: newSQLStore(conn), dir: dir, clock: utcClock{}}
}

// Reconcile repairs every asset flagged by the report, one transaction
// per asset, under the given policy. Dry-run (the default) records the
// decisions it would make without writing. A stale or failed asset
// never aborts the batch.
func (s *Service) Reconcile(ctx context.Context, report *ConsistencyReport, policy Policy, actorID string) (*ReconciliationReport, error) {
	out := &ReconciliationReport{
		StartedAt: s.clock.Now(),
		DryRun:    !policy.ApplyWrites,
		Policy:    policy,
		Outcomes:  []Outcome{},
	}

	// A bad fallback id would mint ledger rows pointing at nobody; fail
	// the run upfront rather than per asset.
	if policy.FallbackEmployeeID != nil {
		active, err := s.dir.EmployeeActive(ctx, *policy.FallbackEmployeeID)
		if err != nil {
			return nil, err
		}
		if !active {
			return nil, custody.ErrNotFound("fallback employee not found or inactive")
		}
	}

	for _, f := range report.Orphans {
		out.record(s.repairOrphan(ctx, f, policy, actorID))
	}
	for _, f := range report.Inverse {
		out.record(s.repairInverse(ctx, f, policy))
	}

	out.FinishedAt = s.clock.Now()
	return out, nil
}

func (s *Service) repairOrphan(ctx context.Context, f OrphanFinding, policy Policy, actorID string) Outcome {
	o := Outcome{Asset: f.Asset}

	// Resolution priority: historical candidate, then operator fallback.
	// The candidate is re-read so a row added since the scan wins over
	// the snapshot.
	employee := f.RecoveryCandidate
	reason := reasonHistoricalRecovery
	if policy.ApplyWrites {
		fresh, err := s.store.LatestHistoricalTarget(ctx, f.Asset.AssetID)
		if err != nil {
			o.Result, o.Reason = ResultFailed, err.Error()
			return o
		}
		employee = fresh
	}
	if employee == nil && policy.FallbackEmployeeID != nil {
		employee = policy.FallbackEmployeeID
		reason = reasonFallbackAssignment
	}

	switch {
	case employee != nil:
		o.EmployeeID = employee
		o.Reason = reason
		if !policy.ApplyWrites {
			o.Result = ResultApplied
			return o
		}
		err := s.store.RepairOrphanAssign(ctx, f.Asset.AssetID, *employee, reason, actorID)
		switch {
		case err == nil:
			o.Result = ResultApplied
		case custody.IsStale(err):
			o.Result, o.Reason = ResultSkipped, reasonAlreadyConsistent
		default:
			o.Result, o.Reason = ResultFailed, err.Error()
			log.Printf("[WARN] orphan repair failed for asset %s: %v", f.Asset.AssetULID, err)
		}
		return o

	case policy.DowngradeUnresolved:
		o.Reason = reasonDowngraded
		if !policy.ApplyWrites {
			o.Result = ResultApplied
			return o
		}
		err := s.store.RepairOrphanDowngrade(ctx, f.Asset.AssetID)
		switch {
		case err == nil:
			o.Result = ResultApplied
		case custody.IsStale(err):
			o.Result, o.Reason = ResultSkipped, reasonAlreadyConsistent
		default:
			o.Result, o.Reason = ResultFailed, err.Error()
			log.Printf("[WARN] orphan downgrade failed for asset %s: %v", f.Asset.AssetULID, err)
		}
		return o

	default:
		// Legitimate terminal outcome: ambiguous cases stay flagged for
		// manual review.
		o.Result, o.Reason = ResultSkipped, reasonUnresolved
		return o
	}
}

func (s *Service) repairInverse(ctx context.Context, f InverseFinding, policy Policy) Outcome {
	o := Outcome{Asset: f.Asset, Reason: reasonDanglingDeactivate, EmployeeID: f.DanglingEmployeeID}
	if !policy.ApplyWrites {
		o.Result = ResultApplied
		return o
	}
	err := s.store.DeactivateDangling(ctx, f.Asset.AssetID, f.DanglingAssignmentID, reasonDanglingDeactivate)
	switch {
	case err == nil:
		o.Result = ResultApplied
	case custody.IsStale(err):
		o.Result, o.Reason = ResultSkipped, reasonAlreadyConsistent
	default:
		o.Result, o.Reason = ResultFailed, err.Error()
		log.Printf("[WARN] inverse repair failed for asset %s: %v", f.Asset.AssetULID, err)
	}
	return o
}

func (r *ReconciliationReport) record(o Outcome) {
	switch o.Result {
	case ResultApplied:
		r.Applied++
	case ResultSkipped:
		r.Skipped++
	case ResultFailed:
		r.Failed++
	}
	r.Outcomes = append(r.Outcomes, o)
}
