package domain

import "context"

// GuardResult is a closed allow/reject outcome. Rejections carry the reason
// and the failure state the reservation must be routed to; there is no
// side-channel message.
type GuardResult struct {
	allowed      bool
	reason       string
	failureState ReservationState
}

func Allow() GuardResult {
	return GuardResult{allowed: true}
}

func Reject(reason string, failureState ReservationState) GuardResult {
	return GuardResult{reason: reason, failureState: failureState}
}

func (g GuardResult) Allowed() bool { return g.allowed }

func (g GuardResult) Reason() string { return g.reason }

// FailureState is the terminal state a rejected transition routes to.
// Meaningful only when Allowed is false.
func (g GuardResult) FailureState() ReservationState { return g.failureState }

// TransitionGuard is a precondition checked before a transition reaches the
// engine. Guards are read-only with respect to the reservation; any lookup
// they need goes through their own injected collaborators. The error return
// is for infrastructure failures, not for rejections.
type TransitionGuard interface {
	Check(ctx context.Context, r *Reservation, to ReservationState) (GuardResult, error)
}

// GuardChain evaluates guards in order; the first rejection short-circuits.
type GuardChain []TransitionGuard

func (c GuardChain) Evaluate(ctx context.Context, r *Reservation, to ReservationState) (GuardResult, error) {
	for _, g := range c {
		res, err := g.Check(ctx, r, to)
		if err != nil {
			return GuardResult{}, err
		}
		if !res.Allowed() {
			return res, nil
		}
	}
	return Allow(), nil
}
