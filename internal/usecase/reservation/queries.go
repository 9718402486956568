package usecase

import (
	"context"

	"github.com/kavelio/reservation-service/internal/domain"
	reservationdto "github.com/kavelio/reservation-service/internal/usecase/dto/reservation"
)

func (uc *DefaultReservationUsecase) GetReservation(ctx context.Context, reservationID, partnerID string) (*reservationdto.ReservationOutput, error) {
	reservation, err := uc.loadScoped(ctx, reservationID, partnerID)
	if err != nil {
		return nil, err
	}
	return reservationdto.ToReservationOutput(reservation), nil
}

func (uc *DefaultReservationUsecase) GetTransitionLog(ctx context.Context, reservationID, partnerID string) ([]*domain.TransitionLog, error) {
	if _, err := uc.loadScoped(ctx, reservationID, partnerID); err != nil {
		return nil, err
	}
	return uc.Repo.GetTransitionLog(ctx, reservationID)
}

func (uc *DefaultReservationUsecase) GetReservationsByVendorID(ctx context.Context, vendorID string, states []domain.ReservationState) ([]*reservationdto.ReservationOutput, error) {
	reservations, err := uc.Repo.GetReservationsByVendorID(ctx, vendorID, states)
	if err != nil {
		return nil, err
	}

	out := make([]*reservationdto.ReservationOutput, 0, len(reservations))
	for _, r := range reservations {
		out = append(out, reservationdto.ToReservationOutput(r))
	}
	return out, nil
}
