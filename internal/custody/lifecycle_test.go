package custody

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseState(t *testing.T) {
	for _, v := range []string{"operational", "assigned", "maintenance", "safekeeping", "decommissioned"} {
		s, err := ParseState(v)
		require.NoError(t, err)
		assert.Equal(t, State(v), s)
	}

	_, err := ParseState("retired")
	require.Error(t, err)
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, CodeInvalidArgument, api.Code)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("computer")
	require.NoError(t, err)
	assert.Equal(t, KindComputer, k)

	_, err = ParseKind("furniture")
	assert.Error(t, err)
}

func TestStatePredicates(t *testing.T) {
	assert.True(t, StateAssigned.RequiresCustody())
	for _, s := range []State{StateOperational, StateMaintenance, StateSafekeeping, StateDecommissioned} {
		assert.False(t, s.RequiresCustody(), string(s))
	}

	assert.True(t, StateMaintenance.Neutral())
	for _, s := range []State{StateOperational, StateAssigned, StateSafekeeping, StateDecommissioned} {
		assert.False(t, s.Neutral(), string(s))
	}
}

func TestRetainsCustody(t *testing.T) {
	assert.True(t, RetainsCustody(StateAssigned, StateMaintenance))

	assert.False(t, RetainsCustody(StateAssigned, StateOperational))
	assert.False(t, RetainsCustody(StateAssigned, StateSafekeeping))
	assert.False(t, RetainsCustody(StateAssigned, StateDecommissioned))
	assert.False(t, RetainsCustody(StateMaintenance, StateAssigned))
	assert.False(t, RetainsCustody(StateOperational, StateMaintenance))
}

func TestTransitionAction(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		to      State
		want    ActionType
		errCode Code
	}{
		{name: "assign", from: StateOperational, to: StateAssigned, want: ActionAssignment},
		{name: "assign from safekeeping", from: StateSafekeeping, to: StateAssigned, want: ActionAssignment},
		{name: "assign from maintenance", from: StateMaintenance, to: StateAssigned, want: ActionAssignment},
		{name: "return", from: StateAssigned, to: StateOperational, want: ActionReturn},
		{name: "maintenance", from: StateAssigned, to: StateMaintenance, want: ActionMaintenance},
		{name: "maintenance from operational", from: StateOperational, to: StateMaintenance, want: ActionMaintenance},
		{name: "safekeeping", from: StateOperational, to: StateSafekeeping, want: ActionSafekeeping},
		{name: "decommission", from: StateOperational, to: StateDecommissioned, want: ActionDecommission},
		{name: "decommission from safekeeping", from: StateSafekeeping, to: StateDecommissioned, want: ActionDecommission},
		{name: "reactivate", from: StateDecommissioned, to: StateOperational, want: ActionReactivate},

		{name: "double assign conflicts", from: StateAssigned, to: StateAssigned, errCode: CodeConflict},
		{name: "self transition invalid", from: StateOperational, to: StateOperational, errCode: CodeInvalidArgument},
		{name: "decommissioned is terminal", from: StateDecommissioned, to: StateAssigned, errCode: CodeInvalidArgument},
		{name: "decommissioned cannot enter maintenance", from: StateDecommissioned, to: StateMaintenance, errCode: CodeInvalidArgument},
		{name: "decommissioned cannot enter safekeeping", from: StateDecommissioned, to: StateSafekeeping, errCode: CodeInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TransitionAction(tt.from, tt.to)
			if tt.errCode != "" {
				require.Error(t, err)
				var api *APIError
				require.ErrorAs(t, err, &api)
				assert.Equal(t, tt.errCode, api.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsWitness(t *testing.T) {
	target := sql.NullString{String: "E-100", Valid: true}

	r := AssignmentRecord{Active: true, ActionType: ActionAssignment, TargetEmployeeID: target}
	assert.True(t, r.IsWitness())

	inactive := r
	inactive.Active = false
	assert.False(t, inactive.IsWitness())

	edit := r
	edit.ActionType = ActionEdit
	assert.False(t, edit.IsWitness())

	noTarget := r
	noTarget.TargetEmployeeID = sql.NullString{}
	assert.False(t, noTarget.IsWitness())
}
