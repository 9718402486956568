package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/kavelio/reservation-service/internal/domain"
)

// ExpireOverdueReservations is the sweeper entry point: it scans for
// reservations whose deadline has passed and drives each to EXPIRED through
// the normal engine/CAS path. Racing sweeper instances are safe because
// only one CAS write wins per reservation; the losers just move on.
func (uc *DefaultReservationUsecase) ExpireOverdueReservations(ctx context.Context) error {
	overdue, err := uc.Repo.FindExpiredReservations(ctx, uc.Clock.Now(), uc.SweepBatchSize)
	if err != nil {
		return err
	}

	for _, reservation := range overdue {
		_, err := uc.runTransition(ctx, transitionRequest{
			reservationID: reservation.ID,
			partnerID:     reservation.PartnerID,
			toState:       domain.StateExpired,
			triggeredBy:   domain.ActorSweeper,
			reason:        "TTL exceeded",
			useGuards:     false,
		})
		if err != nil {
			// Lost the race to another sweeper or to a concurrent caller
			// who advanced the reservation; both are expected under load.
			var terr *domain.TransitionError
			if errors.As(err, &terr) || errors.Is(err, domain.ErrReservationNotFound) {
				slog.Debug("skipping reservation during sweep",
					"reservation_id", reservation.ID,
					"error", err.Error())
				continue
			}
			slog.Error("failed to expire reservation",
				"reservation_id", reservation.ID,
				"error", err.Error())
			continue
		}

		uc.Metrics.ReservationsExpiredTotal.Inc()
	}

	return nil
}
