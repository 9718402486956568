package background

import (
	"context"
	"log"
	"time"

	usecase "github.com/kavelio/reservation-service/internal/usecase/reservation"
)

type BackgroundTasks struct {
	ReservationUsecase usecase.ReservationUsecase
	SweepInterval      time.Duration
}

func NewBackgroundTasks(reservationUC usecase.ReservationUsecase, sweepInterval time.Duration) *BackgroundTasks {
	if sweepInterval <= 0 {
		sweepInterval = 5 * time.Second
	}
	return &BackgroundTasks{
		ReservationUsecase: reservationUC,
		SweepInterval:      sweepInterval,
	}
}

func (bt *BackgroundTasks) StartAll(ctx context.Context) {
	go bt.startExpirationSweep(ctx)
}

// startExpirationSweep drives overdue reservations to EXPIRED on a fixed
// cadence. The cadence itself is the grace budget for clock skew; the
// expiry comparison stays strict. Safe to run on every instance: expiry
// goes through the CAS path, so concurrent sweepers cannot double-expire.
func (bt *BackgroundTasks) startExpirationSweep(ctx context.Context) {
	ticker := time.NewTicker(bt.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := bt.ReservationUsecase.ExpireOverdueReservations(ctx); err != nil {
				log.Printf("Expiration sweep error: %v\n", err)
			}
		}
	}
}
