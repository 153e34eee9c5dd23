package custody

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClock struct{ t time.Time }

func (c stubClock) Now() time.Time { return c.t }

type stubIDGen struct{ id string }

func (g stubIDGen) New() (string, error) { return g.id, nil }

type stubDirectory struct {
	employees map[string]bool
	locations map[int64]bool
}

func (d *stubDirectory) EmployeeActive(_ context.Context, id string) (bool, error) {
	return d.employees[id], nil
}

func (d *stubDirectory) LocationExists(_ context.Context, id int64) (bool, error) {
	return d.locations[id], nil
}

type stubLedger struct {
	state   State
	records []AssignmentRecord

	lastCmd *TransitionCommand
}

func (l *stubLedger) ResolveAsset(_ context.Context, _ string) (int64, Kind, State, error) {
	return 1, KindComputer, l.state, nil
}

func (l *stubLedger) ExecTransition(_ context.Context, cmd *TransitionCommand) (*AssignmentRecord, State, error) {
	action, err := TransitionAction(l.state, cmd.NewState)
	if err != nil {
		return nil, "", err
	}
	l.lastCmd = cmd

	rec := &AssignmentRecord{
		AssignmentID:   int64(len(l.records) + 1),
		AssignmentULID: cmd.AssignmentULID,
		AssetID:        1,
		AssetKind:      KindComputer,
		ActionType:     action,
		TargetType:     TargetNone,
		Active:         action == ActionAssignment,
		OccurredAt:     cmd.Now,
		CreatedBy:      sql.NullString{String: cmd.ActorID, Valid: cmd.ActorID != ""},
	}
	if cmd.TargetEmployeeID != nil {
		rec.TargetType = TargetEmployee
		rec.TargetEmployeeID = sql.NullString{String: *cmd.TargetEmployeeID, Valid: true}
	}

	prev := l.state
	l.state = cmd.NewState
	l.records = append(l.records, *rec)
	return rec, prev, nil
}

func (l *stubLedger) ListByAsset(_ context.Context, _ int64, _ Page) ([]AssignmentRecord, error) {
	return l.records, nil
}

func newStubService(ledger *stubLedger, dir *stubDirectory) *Service {
	if dir == nil {
		dir = &stubDirectory{employees: map[string]bool{}, locations: map[int64]bool{}}
	}
	return &Service{
		store: ledger,
		dir:   dir,
		clock: stubClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
		id:    stubIDGen{id: "01JD0000000000000000000000"},
	}
}

func TestTransitionLifecycleAssign(t *testing.T) {
	ledger := &stubLedger{state: StateOperational}
	dir := &stubDirectory{employees: map[string]bool{"E-1": true}, locations: map[int64]bool{}}
	svc := newStubService(ledger, dir)

	target := "E-1"
	resp, err := svc.TransitionLifecycle(context.Background(), "01JDASSET0000000000000000A",
		TransitionRequest{NewState: "assigned", TargetEmployeeID: &target}, "admin")
	require.NoError(t, err)

	assert.Equal(t, "operational", resp.PreviousState)
	assert.Equal(t, "assigned", resp.NewState)
	assert.Equal(t, "assignment", resp.Record.ActionType)
	assert.True(t, resp.Record.Active)
	require.NotNil(t, resp.Record.TargetEmployeeID)
	assert.Equal(t, "E-1", *resp.Record.TargetEmployeeID)
	require.NotNil(t, ledger.lastCmd)
	assert.Equal(t, "admin", ledger.lastCmd.ActorID)
}

func TestTransitionLifecycleAssignRequiresTarget(t *testing.T) {
	svc := newStubService(&stubLedger{state: StateOperational}, nil)

	_, err := svc.TransitionLifecycle(context.Background(), "01JDASSET0000000000000000A",
		TransitionRequest{NewState: "assigned"}, "admin")
	require.Error(t, err)
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeInvalidArgument, api.Code)
}

func TestTransitionLifecycleAssignUnknownEmployee(t *testing.T) {
	svc := newStubService(&stubLedger{state: StateOperational}, nil)

	target := "E-GONE"
	_, err := svc.TransitionLifecycle(context.Background(), "01JDASSET0000000000000000A",
		TransitionRequest{NewState: "assigned", TargetEmployeeID: &target}, "admin")
	require.Error(t, err)
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeNotFound, api.Code)
}

func TestTransitionLifecycleUnknownLocation(t *testing.T) {
	svc := newStubService(&stubLedger{state: StateOperational}, nil)

	loc := int64(99)
	_, err := svc.TransitionLifecycle(context.Background(), "01JDASSET0000000000000000A",
		TransitionRequest{NewState: "safekeeping", LocationID: &loc}, "admin")
	require.Error(t, err)
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeNotFound, api.Code)
}

func TestTransitionLifecycleDoubleAssignConflicts(t *testing.T) {
	ledger := &stubLedger{state: StateAssigned}
	dir := &stubDirectory{employees: map[string]bool{"E-2": true}, locations: map[int64]bool{}}
	svc := newStubService(ledger, dir)

	target := "E-2"
	_, err := svc.TransitionLifecycle(context.Background(), "01JDASSET0000000000000000A",
		TransitionRequest{NewState: "assigned", TargetEmployeeID: &target}, "admin")
	require.Error(t, err)
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeConflict, api.Code)
}

func TestTransitionLifecycleInvalidState(t *testing.T) {
	svc := newStubService(&stubLedger{state: StateOperational}, nil)

	_, err := svc.TransitionLifecycle(context.Background(), "01JDASSET0000000000000000A",
		TransitionRequest{NewState: "lost"}, "admin")
	require.Error(t, err)
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeInvalidArgument, api.Code)
}

func TestGetLedger(t *testing.T) {
	ledger := &stubLedger{state: StateOperational}
	dir := &stubDirectory{employees: map[string]bool{"E-1": true}, locations: map[int64]bool{}}
	svc := newStubService(ledger, dir)

	target := "E-1"
	_, err := svc.TransitionLifecycle(context.Background(), "01JDASSET0000000000000000A",
		TransitionRequest{NewState: "assigned", TargetEmployeeID: &target}, "admin")
	require.NoError(t, err)
	_, err = svc.TransitionLifecycle(context.Background(), "01JDASSET0000000000000000A",
		TransitionRequest{NewState: "operational"}, "admin")
	require.NoError(t, err)

	out, err := svc.GetLedger(context.Background(), "01JDASSET0000000000000000A", Page{})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "assignment", out[0].ActionType)
	assert.Equal(t, "return", out[1].ActionType)
}
