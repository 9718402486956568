package domain

import (
	"time"

	"github.com/google/uuid"
)

// The transition engine. Every function here is pure: it takes the current
// snapshot plus an explicit clock reading and returns new values, never
// mutating its inputs and never doing I/O. Whether a transition may be
// attempted at all (guards, CAS) is decided by the service above.

// IsValidTransition reports whether (from, to) is a legal edge.
// Cancellation is legal from any non-terminal state.
func IsValidTransition(from, to ReservationState) bool {
	if to == StateCancelled {
		return !IsTerminalState(from)
	}
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsExpired reports whether the reservation's current-state deadline has
// passed. Terminal states never expire. The comparison is strict: a
// reservation whose deadline equals now is still alive.
func IsExpired(r *Reservation, now time.Time) bool {
	if IsTerminalState(r.State) {
		return false
	}
	if r.ExpiresAt == nil {
		return false
	}
	return r.ExpiresAt.Before(now)
}

// ExpirationTime computes the deadline for a state entered at enteredAt.
// Nil for states without a time budget.
func ExpirationTime(state ReservationState, enteredAt time.Time) *time.Time {
	d, ok := StateDeadline(state)
	if !ok {
		return nil
	}
	t := enteredAt.Add(d).UTC()
	return &t
}

type TransitionResult struct {
	NewState ReservationState
	Log      TransitionLog
}

// TransitionState validates a requested transition and, on success, returns
// the target state together with the audit record to append. The reservation
// itself is not changed; ApplyTransition produces the new snapshot.
//
// A request whose target equals the current state succeeds as an idempotent
// no-op and still yields a log entry tagged with the caller's idempotency
// key, so re-delivered requests stay traceable without a second state change.
func TransitionState(r *Reservation, to ReservationState, by Actor, reason, metadataJSON, idempotencyKey string, now time.Time) (*TransitionResult, error) {
	if r.State == to {
		if reason == "" {
			reason = "idempotent replay"
		}
		return &TransitionResult{
			NewState: to,
			Log:      newTransitionLog(r, to, by, reason, metadataJSON, idempotencyKey, now),
		}, nil
	}

	if IsTerminalState(r.State) {
		return nil, &TransitionError{Code: CodeTransitionFromTerminal, From: r.State, To: to}
	}

	if !IsValidTransition(r.State, to) {
		return nil, &TransitionError{Code: CodeInvalidTransition, From: r.State, To: to}
	}

	// A dead reservation may only move to EXPIRED; anything else must go
	// through the expiration path first.
	if IsExpired(r, now) && to != StateExpired {
		return nil, &TransitionError{Code: CodeReservationExpired, From: r.State, To: to}
	}

	return &TransitionResult{
		NewState: to,
		Log:      newTransitionLog(r, to, by, reason, metadataJSON, idempotencyKey, now),
	}, nil
}

func newTransitionLog(r *Reservation, to ReservationState, by Actor, reason, metadataJSON, idempotencyKey string, now time.Time) TransitionLog {
	return TransitionLog{
		ID:             uuid.NewString(),
		ReservationID:  r.ID,
		FromState:      r.State,
		ToState:        to,
		TriggeredBy:    by,
		Reason:         reason,
		MetadataJSON:   metadataJSON,
		Timestamp:      now.UTC(),
		IdempotencyKey: idempotencyKey,
	}
}

// ApplyTransition projects a validated transition onto a copy of the
// reservation: state, the entry timestamp for the new state, the TTL stage
// label, the new deadline, and failure bookkeeping. It never re-checks
// validity; that is TransitionState's job.
func ApplyTransition(r *Reservation, to ReservationState, log TransitionLog, now time.Time) *Reservation {
	updated := *r
	updated.State = to

	entered := now.UTC()

	switch to {
	case StateHeld:
		updated.HeldAt = &entered
		updated.TTLStage = "initial"
		updated.TTLMinutes = 10
	case StateAwaitingVendorConfirm:
		updated.VendorNotifiedAt = &entered
	case StateConfirmedByVendor:
		updated.VendorConfirmedAt = &entered
		updated.TTLStage = "vendor_confirmed"
		updated.TTLMinutes = 30
	case StateVendorAuthorized:
		updated.VendorAuthAt = &entered
	case StateAuthorizedBoth:
		// There is no separate requester-authorized state; both stamps
		// land when the pair completes.
		updated.AuthorizedBothAt = &entered
		updated.RequesterAuthAt = &entered
		updated.TTLStage = "authorized_both"
		updated.TTLMinutes = 15
	case StateCommitInProgress:
		updated.CommitStartedAt = &entered
	case StateCommitted:
		updated.CommittedAt = &entered
	case StateFailedVendorTimeout, StateFailedVendorAuth, StateFailedRequesterAuth,
		StateFailedAvailabilityChanged, StateFailedCommit:
		updated.FailedAt = &entered
		updated.FailureReason = log.Reason
	case StateExpired:
		updated.FailedAt = &entered
		updated.FailureReason = "TTL exceeded"
	case StateCancelled:
		updated.CancelledAt = &entered
	}

	updated.ExpiresAt = ExpirationTime(to, entered)

	return &updated
}
