package domain

import (
	"errors"
	"fmt"
)

var (
	ErrVendorNotFound      = errors.New("vendor not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrVersionConflict     = errors.New("reservation version conflict")
	ErrDuplicateKey        = errors.New("idempotency key already used")
	ErrInvalidSlotWindow   = errors.New("slot end must be after slot start")
)

type TransitionErrorCode string

const (
	CodeInvalidTransition      TransitionErrorCode = "INVALID_TRANSITION"
	CodeTransitionFromTerminal TransitionErrorCode = "TRANSITION_FROM_TERMINAL"
	CodeReservationExpired     TransitionErrorCode = "RESERVATION_EXPIRED"
)

// TransitionError is a business rejection of a requested transition. It
// carries both endpoints so callers can decide whether to reload and retry.
type TransitionError struct {
	Code TransitionErrorCode
	From ReservationState
	To   ReservationState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", e.Code, e.From, e.To)
}

// GuardRejectionError reports a guard chain veto. The reservation has been
// routed to FailureState by the service before this error is returned.
type GuardRejectionError struct {
	Reason       string
	FailureState ReservationState
}

func (e *GuardRejectionError) Error() string {
	return fmt.Sprintf("transition rejected by guard: %s", e.Reason)
}
