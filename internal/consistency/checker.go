package consistency

import (
	"context"
)

// AssetProbe is one asset's snapshot as seen by a scan: the denormalized
// state next to whatever witness row the ledger currently holds.
type AssetProbe struct {
	Ref               AssetRef
	WitnessID         *int64
	WitnessEmployeeID *string
}

type classification int

const (
	classConsistent classification = iota
	classOrphan
	classInverse
)

// classify applies the invariant to one probe. Maintenance is neutral:
// it tolerates a witness without requiring one, so it is never flagged
// in either direction.
func classify(p AssetProbe) classification {
	switch {
	case p.Ref.State.RequiresCustody() && p.WitnessID == nil:
		return classOrphan
	case !p.Ref.State.RequiresCustody() && !p.Ref.State.Neutral() && p.WitnessID != nil:
		return classInverse
	default:
		return classConsistent
	}
}

// RunScan evaluates the asset population and classifies every asset.
// Read-only: the output is a snapshot and may be stale by the time a
// repair executes, which is why the engine re-validates per asset.
func (s *Service) RunScan(ctx context.Context, opts ScanOptions) (*ConsistencyReport, error) {
	probes, err := s.store.ScanAssets(ctx, opts.Limit)
	if err != nil {
		return nil, err
	}

	report := &ConsistencyReport{
		GeneratedAt: s.clock.Now(),
		Scanned:     len(probes),
		Orphans:     []OrphanFinding{},
		Inverse:     []InverseFinding{},
	}

	for _, p := range probes {
		switch classify(p) {
		case classOrphan:
			f := OrphanFinding{Asset: p.Ref}
			candidate, err := s.store.LatestHistoricalTarget(ctx, p.Ref.AssetID)
			if err != nil {
				return nil, err
			}
			f.RecoveryCandidate = candidate
			report.Orphans = append(report.Orphans, f)
		case classInverse:
			report.Inverse = append(report.Inverse, InverseFinding{
				Asset:                p.Ref,
				DanglingAssignmentID: *p.WitnessID,
				DanglingEmployeeID:   p.WitnessEmployeeID,
			})
		default:
			report.Consistent++
		}
	}
	return report, nil
}
