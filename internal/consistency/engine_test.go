package consistency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SIGA-backend/internal/custody"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakeDirectory struct {
	active map[string]bool
}

func (d *fakeDirectory) EmployeeActive(_ context.Context, id string) (bool, error) {
	return d.active[id], nil
}

func (d *fakeDirectory) LocationExists(_ context.Context, _ int64) (bool, error) {
	return true, nil
}

// fakeStore keeps the asset population in memory and mimics the
// per-asset transaction contract: every repair re-checks the current
// snapshot and returns STALE_STATE when the asset is already consistent.
type fakeStore struct {
	probes  map[int64]*AssetProbe
	history map[int64]*string

	failAssign map[int64]error

	assigns     int
	downgrades  int
	deactivates int
}

func newFakeStore(probes ...AssetProbe) *fakeStore {
	f := &fakeStore{
		probes:     map[int64]*AssetProbe{},
		history:    map[int64]*string{},
		failAssign: map[int64]error{},
	}
	for i := range probes {
		p := probes[i]
		f.probes[p.Ref.AssetID] = &p
	}
	return f
}

func (f *fakeStore) ScanAssets(_ context.Context, limit int) ([]AssetProbe, error) {
	out := make([]AssetProbe, 0, len(f.probes))
	for _, p := range f.probes {
		out = append(out, *p)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) LatestHistoricalTarget(_ context.Context, assetID int64) (*string, error) {
	return f.history[assetID], nil
}

func (f *fakeStore) RepairOrphanAssign(_ context.Context, assetID int64, employeeID, _, _ string) error {
	if err := f.failAssign[assetID]; err != nil {
		return err
	}
	p := f.probes[assetID]
	if !p.Ref.State.RequiresCustody() || p.WitnessID != nil {
		return custody.ErrStale("asset no longer an orphan")
	}
	f.assigns++
	id := int64(9000) + int64(f.assigns)
	p.WitnessID = &id
	p.WitnessEmployeeID = &employeeID
	return nil
}

func (f *fakeStore) RepairOrphanDowngrade(_ context.Context, assetID int64) error {
	p := f.probes[assetID]
	if !p.Ref.State.RequiresCustody() || p.WitnessID != nil {
		return custody.ErrStale("asset no longer an orphan")
	}
	f.downgrades++
	p.Ref.State = custody.StateOperational
	return nil
}

func (f *fakeStore) DeactivateDangling(_ context.Context, assetID, assignmentID int64, _ string) error {
	p := f.probes[assetID]
	if p.Ref.State.RequiresCustody() || p.WitnessID == nil || *p.WitnessID != assignmentID {
		return custody.ErrStale("assignment no longer dangling")
	}
	f.deactivates++
	p.WitnessID = nil
	p.WitnessEmployeeID = nil
	return nil
}

func (f *fakeStore) writes() int { return f.assigns + f.downgrades + f.deactivates }

func newTestService(store *fakeStore, dir *fakeDirectory) *Service {
	if dir == nil {
		dir = &fakeDirectory{active: map[string]bool{}}
	}
	return &Service{
		store: store,
		dir:   dir,
		clock: fixedClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
	}
}

func asset(id int64, state custody.State) AssetProbe {
	return AssetProbe{Ref: AssetRef{
		AssetID:   id,
		AssetULID: "01JD0000000000000000000000",
		Kind:      custody.KindComputer,
		State:     state,
	}}
}

func assetWithWitness(id int64, state custody.State, witnessID int64, employee string) AssetProbe {
	p := asset(id, state)
	p.WitnessID = &witnessID
	p.WitnessEmployeeID = &employee
	return p
}

func strptr(s string) *string { return &s }

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		probe AssetProbe
		want  classification
	}{
		{"assigned with witness", assetWithWitness(1, custody.StateAssigned, 10, "E-1"), classConsistent},
		{"assigned without witness", asset(1, custody.StateAssigned), classOrphan},
		{"operational with witness", assetWithWitness(1, custody.StateOperational, 10, "E-1"), classInverse},
		{"operational without witness", asset(1, custody.StateOperational), classConsistent},
		{"safekeeping with witness", assetWithWitness(1, custody.StateSafekeeping, 10, "E-1"), classInverse},
		{"decommissioned with witness", assetWithWitness(1, custody.StateDecommissioned, 10, "E-1"), classInverse},
		{"maintenance with witness", assetWithWitness(1, custody.StateMaintenance, 10, "E-1"), classConsistent},
		{"maintenance without witness", asset(1, custody.StateMaintenance), classConsistent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.probe))
		})
	}
}

func TestRunScan(t *testing.T) {
	store := newFakeStore(
		asset(1, custody.StateAssigned),
		assetWithWitness(2, custody.StateOperational, 20, "E-2"),
		assetWithWitness(3, custody.StateAssigned, 30, "E-3"),
		assetWithWitness(4, custody.StateMaintenance, 40, "E-4"),
	)
	store.history[1] = strptr("E-OLD")
	svc := newTestService(store, nil)

	report, err := svc.RunScan(context.Background(), ScanOptions{})
	require.NoError(t, err)

	assert.Equal(t, 4, report.Scanned)
	assert.Equal(t, 2, report.Consistent)
	require.Len(t, report.Orphans, 1)
	assert.Equal(t, int64(1), report.Orphans[0].Asset.AssetID)
	require.NotNil(t, report.Orphans[0].RecoveryCandidate)
	assert.Equal(t, "E-OLD", *report.Orphans[0].RecoveryCandidate)

	require.Len(t, report.Inverse, 1)
	assert.Equal(t, int64(2), report.Inverse[0].Asset.AssetID)
	assert.Equal(t, int64(20), report.Inverse[0].DanglingAssignmentID)
	require.NotNil(t, report.Inverse[0].DanglingEmployeeID)
	assert.Equal(t, "E-2", *report.Inverse[0].DanglingEmployeeID)
}

func TestReconcileDryRunWritesNothing(t *testing.T) {
	store := newFakeStore(
		asset(1, custody.StateAssigned),
		assetWithWitness(2, custody.StateOperational, 20, "E-2"),
	)
	store.history[1] = strptr("E-OLD")
	svc := newTestService(store, nil)

	report, err := svc.RunScan(context.Background(), ScanOptions{})
	require.NoError(t, err)

	out, err := svc.Reconcile(context.Background(), report, Policy{}, "admin")
	require.NoError(t, err)

	assert.True(t, out.DryRun)
	assert.Equal(t, 2, out.Applied)
	assert.Zero(t, out.Skipped)
	assert.Zero(t, out.Failed)
	assert.Zero(t, store.writes())
}

func TestReconcileHistoricalRecovery(t *testing.T) {
	store := newFakeStore(asset(1, custody.StateAssigned))
	store.history[1] = strptr("E-OLD")
	svc := newTestService(store, nil)

	report, err := svc.RunScan(context.Background(), ScanOptions{})
	require.NoError(t, err)

	out, err := svc.Reconcile(context.Background(), report, Policy{ApplyWrites: true}, "admin")
	require.NoError(t, err)

	assert.Equal(t, 1, out.Applied)
	require.Len(t, out.Outcomes, 1)
	assert.Equal(t, ResultApplied, out.Outcomes[0].Result)
	assert.Equal(t, "historical recovery", out.Outcomes[0].Reason)
	require.NotNil(t, out.Outcomes[0].EmployeeID)
	assert.Equal(t, "E-OLD", *out.Outcomes[0].EmployeeID)
	assert.Equal(t, 1, store.assigns)
	require.NotNil(t, store.probes[1].WitnessEmployeeID)
	assert.Equal(t, "E-OLD", *store.probes[1].WitnessEmployeeID)
}

func TestReconcileFallbackAssignment(t *testing.T) {
	store := newFakeStore(asset(1, custody.StateAssigned))
	dir := &fakeDirectory{active: map[string]bool{"E-POOL": true}}
	svc := newTestService(store, dir)

	report, err := svc.RunScan(context.Background(), ScanOptions{})
	require.NoError(t, err)

	out, err := svc.Reconcile(context.Background(), report,
		Policy{ApplyWrites: true, FallbackEmployeeID: strptr("E-POOL")}, "admin")
	require.NoError(t, err)

	assert.Equal(t, 1, out.Applied)
	assert.Equal(t, "fallback assignment", out.Outcomes[0].Reason)
	require.NotNil(t, store.probes[1].WitnessEmployeeID)
	assert.Equal(t, "E-POOL", *store.probes[1].WitnessEmployeeID)
}

func TestReconcileRejectsUnknownFallback(t *testing.T) {
	store := newFakeStore(asset(1, custody.StateAssigned))
	svc := newTestService(store, &fakeDirectory{active: map[string]bool{}})

	report, err := svc.RunScan(context.Background(), ScanOptions{})
	require.NoError(t, err)

	_, err = svc.Reconcile(context.Background(), report,
		Policy{ApplyWrites: true, FallbackEmployeeID: strptr("E-GONE")}, "admin")
	require.Error(t, err)
	var api *custody.APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, custody.CodeNotFound, api.Code)
	assert.Zero(t, store.writes())
}

func TestReconcileDowngradeUnresolved(t *testing.T) {
	store := newFakeStore(asset(1, custody.StateAssigned))
	svc := newTestService(store, nil)

	report, err := svc.RunScan(context.Background(), ScanOptions{})
	require.NoError(t, err)

	out, err := svc.Reconcile(context.Background(), report,
		Policy{ApplyWrites: true, DowngradeUnresolved: true}, "admin")
	require.NoError(t, err)

	assert.Equal(t, 1, out.Applied)
	assert.Equal(t, "downgraded to operational", out.Outcomes[0].Reason)
	assert.Equal(t, custody.StateOperational, store.probes[1].Ref.State)
	assert.Equal(t, 1, store.downgrades)
}

func TestReconcileUnresolvedSkips(t *testing.T) {
	store := newFakeStore(asset(1, custody.StateAssigned))
	svc := newTestService(store, nil)

	report, err := svc.RunScan(context.Background(), ScanOptions{})
	require.NoError(t, err)

	out, err := svc.Reconcile(context.Background(), report, Policy{ApplyWrites: true}, "admin")
	require.NoError(t, err)

	assert.Equal(t, 1, out.Skipped)
	assert.Equal(t, ResultSkipped, out.Outcomes[0].Result)
	assert.Equal(t, custody.StateAssigned, store.probes[1].Ref.State)
	assert.Zero(t, store.writes())
}

func TestReconcileInverseDeactivation(t *testing.T) {
	store := newFakeStore(assetWithWitness(1, custody.StateOperational, 20, "E-2"))
	svc := newTestService(store, nil)

	report, err := svc.RunScan(context.Background(), ScanOptions{})
	require.NoError(t, err)

	out, err := svc.Reconcile(context.Background(), report, Policy{ApplyWrites: true}, "admin")
	require.NoError(t, err)

	assert.Equal(t, 1, out.Applied)
	assert.Equal(t, "deactivated dangling assignment", out.Outcomes[0].Reason)
	assert.Nil(t, store.probes[1].WitnessID)
	assert.Equal(t, 1, store.deactivates)
}

func TestReconcileIsIdempotent(t *testing.T) {
	store := newFakeStore(
		asset(1, custody.StateAssigned),
		assetWithWitness(2, custody.StateOperational, 20, "E-2"),
	)
	store.history[1] = strptr("E-OLD")
	svc := newTestService(store, nil)

	report, err := svc.RunScan(context.Background(), ScanOptions{})
	require.NoError(t, err)
	first, err := svc.Reconcile(context.Background(), report, Policy{ApplyWrites: true}, "admin")
	require.NoError(t, err)
	assert.Equal(t, 2, first.Applied)

	// Second scan finds nothing; replaying the stale first report only
	// yields STALE_STATE skips and no further writes.
	rescan, err := svc.RunScan(context.Background(), ScanOptions{})
	require.NoError(t, err)
	assert.Empty(t, rescan.Orphans)
	assert.Empty(t, rescan.Inverse)

	writes := store.writes()
	second, err := svc.Reconcile(context.Background(), report, Policy{ApplyWrites: true}, "admin")
	require.NoError(t, err)
	assert.Zero(t, second.Applied)
	assert.Equal(t, 2, second.Skipped)
	for _, o := range second.Outcomes {
		assert.Equal(t, "already consistent", o.Reason)
	}
	assert.Equal(t, writes, store.writes())
}

func TestReconcileStaleReportUsesFreshCandidate(t *testing.T) {
	store := newFakeStore(asset(1, custody.StateAssigned))
	svc := newTestService(store, nil)

	report, err := svc.RunScan(context.Background(), ScanOptions{})
	require.NoError(t, err)
	require.Len(t, report.Orphans, 1)
	assert.Nil(t, report.Orphans[0].RecoveryCandidate)

	// A return row recorded between scan and repair supplies the target.
	store.history[1] = strptr("E-NEW")

	out, err := svc.Reconcile(context.Background(), report, Policy{ApplyWrites: true}, "admin")
	require.NoError(t, err)
	assert.Equal(t, 1, out.Applied)
	require.NotNil(t, store.probes[1].WitnessEmployeeID)
	assert.Equal(t, "E-NEW", *store.probes[1].WitnessEmployeeID)
}

func TestReconcileFailureDoesNotAbortBatch(t *testing.T) {
	store := newFakeStore(
		asset(1, custody.StateAssigned),
		asset(2, custody.StateAssigned),
	)
	store.history[1] = strptr("E-1")
	store.history[2] = strptr("E-2")
	store.failAssign[1] = errors.New("deadlock detected")
	svc := newTestService(store, nil)

	report, err := svc.RunScan(context.Background(), ScanOptions{})
	require.NoError(t, err)

	out, err := svc.Reconcile(context.Background(), report, Policy{ApplyWrites: true}, "admin")
	require.NoError(t, err)

	assert.Equal(t, 1, out.Failed)
	assert.Equal(t, 1, out.Applied)
	require.NotNil(t, store.probes[2].WitnessID)
}

func TestScanLimit(t *testing.T) {
	store := newFakeStore(
		asset(1, custody.StateOperational),
		asset(2, custody.StateOperational),
		asset(3, custody.StateOperational),
	)
	svc := newTestService(store, nil)

	report, err := svc.RunScan(context.Background(), ScanOptions{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Scanned)
}
