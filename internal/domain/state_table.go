package domain

import (
	"strings"
	"time"
)

// validTransitions is the adjacency map of the reservation lifecycle.
// A state with no outgoing edges is terminal. Cancellation edges are not
// listed here; IsValidTransition special-cases CANCELLED as reachable from
// any non-terminal state.
var validTransitions = map[ReservationState][]ReservationState{
	StateIntentCreated: {StateHeld},
	StateHeld:          {StateAwaitingVendorConfirm, StateExpired},
	StateAwaitingVendorConfirm: {
		StateConfirmedByVendor,
		StateFailedVendorTimeout,
		StateExpired,
	},
	StateConfirmedByVendor: {StateAwaitingVendorAuth, StateExpired},
	StateAwaitingVendorAuth: {
		StateVendorAuthorized,
		StateFailedVendorAuth,
		StateExpired,
	},
	StateVendorAuthorized: {StateAwaitingRequesterAuth, StateExpired},
	StateAwaitingRequesterAuth: {
		StateAuthorizedBoth,
		StateFailedRequesterAuth,
		StateExpired,
	},
	StateAuthorizedBoth: {
		StateCommitInProgress,
		StateFailedAvailabilityChanged,
		StateExpired,
	},
	StateCommitInProgress: {StateCommitted, StateFailedCommit},

	StateCommitted:                 {},
	StateFailedVendorTimeout:       {},
	StateFailedVendorAuth:          {},
	StateFailedRequesterAuth:       {},
	StateFailedAvailabilityChanged: {},
	StateFailedCommit:              {},
	StateExpired:                   {},
	StateCancelled:                 {},
}

// stateDeadlines is the time budget for each non-terminal state, counted
// from state entry. INTENT_CREATED has no budget: creation drives straight
// to HELD inside one transaction, so the state is never observed at rest.
var stateDeadlines = map[ReservationState]time.Duration{
	StateHeld:                  10 * time.Minute,
	StateAwaitingVendorConfirm: 10 * time.Minute,
	StateConfirmedByVendor:     30 * time.Minute,
	StateAwaitingVendorAuth:    30 * time.Minute,
	StateVendorAuthorized:      30 * time.Minute,
	StateAwaitingRequesterAuth: 30 * time.Minute,
	StateAuthorizedBoth:        15 * time.Minute,
	StateCommitInProgress:      15 * time.Minute,
}

func IsTerminalState(state ReservationState) bool {
	edges, known := validTransitions[state]
	return known && len(edges) == 0
}

func IsFailureState(state ReservationState) bool {
	return strings.HasPrefix(string(state), "FAILED_") || state == StateExpired
}

// NextValidStates returns the states reachable from the given one,
// including the universal cancellation edge.
func NextValidStates(state ReservationState) []ReservationState {
	edges := validTransitions[state]
	if IsTerminalState(state) || len(edges) == 0 {
		return nil
	}
	out := make([]ReservationState, 0, len(edges)+1)
	out = append(out, edges...)
	out = append(out, StateCancelled)
	return out
}

// StateDeadline returns the time budget for a state. ok is false for
// terminal states, which have no deadline.
func StateDeadline(state ReservationState) (time.Duration, bool) {
	d, ok := stateDeadlines[state]
	return d, ok
}

// NonTerminalStates lists every state that still admits transitions.
// Used by the repository to scope expiry and conflict queries.
func NonTerminalStates() []ReservationState {
	out := make([]ReservationState, 0, len(validTransitions))
	for state := range validTransitions {
		if !IsTerminalState(state) {
			out = append(out, state)
		}
	}
	return out
}
