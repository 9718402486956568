package usecase

import (
	"context"

	"github.com/kavelio/reservation-service/internal/domain"
	reservationdto "github.com/kavelio/reservation-service/internal/usecase/dto/reservation"
)

// CancelReservation is the only user-initiated abort path. It is legal from
// any non-terminal state and skips the guard chain, but still goes through
// the CAS'd persistence path like every other transition.
func (uc *DefaultReservationUsecase) CancelReservation(ctx context.Context, input *reservationdto.CancelReservationInput) (*reservationdto.ReservationOutput, error) {
	reason := input.Reason
	if reason == "" {
		reason = "cancelled by caller"
	}

	return uc.runTransition(ctx, transitionRequest{
		reservationID:  input.ReservationID,
		partnerID:      input.PartnerID,
		toState:        domain.StateCancelled,
		triggeredBy:    input.TriggeredBy,
		reason:         reason,
		idempotencyKey: input.IdempotencyKey,
		useGuards:      false,
	})
}
