package usecase

import (
	"context"
	"sync"

	"github.com/kavelio/reservation-service/internal/clock"
	"github.com/kavelio/reservation-service/internal/domain"
	publisher "github.com/kavelio/reservation-service/internal/infrastructure/kafka"
	"github.com/kavelio/reservation-service/internal/infrastructure/metrics"
	reservationdto "github.com/kavelio/reservation-service/internal/usecase/dto/reservation"
)

// maxTransitionRetries bounds reload-and-retry on version conflicts before
// the conflict is surfaced to the caller.
const maxTransitionRetries = 3

type ReservationUsecase interface {
	CreateReservation(ctx context.Context, input *reservationdto.CreateReservationInput) (*reservationdto.ReservationOutput, error)
	Transition(ctx context.Context, input *reservationdto.TransitionInput) (*reservationdto.ReservationOutput, error)
	CancelReservation(ctx context.Context, input *reservationdto.CancelReservationInput) (*reservationdto.ReservationOutput, error)

	GetReservation(ctx context.Context, reservationID, partnerID string) (*reservationdto.ReservationOutput, error)
	GetTransitionLog(ctx context.Context, reservationID, partnerID string) ([]*domain.TransitionLog, error)
	GetReservationsByVendorID(ctx context.Context, vendorID string, states []domain.ReservationState) ([]*reservationdto.ReservationOutput, error)

	ExpireOverdueReservations(ctx context.Context) error
}

type DefaultReservationUsecase struct {
	Repo      domain.ReservationRepository
	Vendors   domain.VendorDirectory
	Guards    domain.GuardChain
	Publisher publisher.ReservationPublisher
	Metrics   *metrics.ReservationMetrics
	Clock     clock.Clock

	// SweepBatchSize caps how many overdue reservations one sweep handles.
	SweepBatchSize int

	publishWG sync.WaitGroup
}

// DrainEvents blocks until all in-flight event publishes have finished.
// Called on shutdown so buffered notifications are not dropped.
func (uc *DefaultReservationUsecase) DrainEvents() {
	uc.publishWG.Wait()
}

func NewDefaultReservationUsecase(
	repo domain.ReservationRepository,
	vendors domain.VendorDirectory,
	guards domain.GuardChain,
	reservationPublisher publisher.ReservationPublisher,
	reservationMetrics *metrics.ReservationMetrics,
	clk clock.Clock,
) *DefaultReservationUsecase {

	return &DefaultReservationUsecase{
		Repo:           repo,
		Vendors:        vendors,
		Guards:         guards,
		Publisher:      reservationPublisher,
		Metrics:        reservationMetrics,
		Clock:          clk,
		SweepBatchSize: 100,
	}
}
