package custody

// State is the denormalized lifecycle field on the asset row. It must
// agree with the ledger: see IsWitness and the consistency package.
type State string

const (
	StateOperational    State = "operational"
	StateAssigned       State = "assigned"
	StateMaintenance    State = "maintenance"
	StateSafekeeping    State = "safekeeping"
	StateDecommissioned State = "decommissioned"
)

func ParseState(v string) (State, error) {
	switch State(v) {
	case StateOperational, StateAssigned, StateMaintenance, StateSafekeeping, StateDecommissioned:
		return State(v), nil
	}
	return "", ErrInvalid("unknown lifecycle state: " + v)
}

// RequiresCustody reports whether the state demands exactly one active
// assignment row.
func (s State) RequiresCustody() bool { return s == StateAssigned }

// Neutral reports whether the state tolerates an active assignment row
// without requiring one. Hardware pulled for service keeps its logical
// owner, so maintenance is neutral.
func (s State) Neutral() bool { return s == StateMaintenance }

// RetainsCustody reports whether an existing active assignment row
// survives the transition. Only Assigned -> UnderMaintenance keeps it;
// every other transition out of custody deactivates the row.
func RetainsCustody(from, to State) bool {
	return from == StateAssigned && to == StateMaintenance
}

// TransitionAction validates from -> to and returns the ledger action
// recorded for it.
//
// Decommissioned is terminal except for reactivation back to
// Operational. Re-assigning an already assigned asset is a conflict, not
// a validation error: the caller must return it first, which is what
// forces concurrent double-assigns to resolve to a single winner.
func TransitionAction(from, to State) (ActionType, error) {
	if from == to {
		if from == StateAssigned {
			return "", ErrConflict("asset is already assigned; return it before reassigning")
		}
		return "", ErrInvalid("asset is already in state " + string(to))
	}

	if from == StateDecommissioned && to != StateOperational {
		return "", ErrInvalid("decommissioned asset must be reactivated before " + string(to))
	}

	switch to {
	case StateAssigned:
		return ActionAssignment, nil
	case StateOperational:
		if from == StateDecommissioned {
			return ActionReactivate, nil
		}
		return ActionReturn, nil
	case StateMaintenance:
		return ActionMaintenance, nil
	case StateSafekeeping:
		return ActionSafekeeping, nil
	case StateDecommissioned:
		return ActionDecommission, nil
	}
	return "", ErrInvalid("unknown lifecycle state: " + string(to))
}
