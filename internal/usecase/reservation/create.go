package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jaevor/go-nanoid"
	"github.com/kavelio/reservation-service/internal/domain"
	publisher "github.com/kavelio/reservation-service/internal/infrastructure/kafka"
	reservationdto "github.com/kavelio/reservation-service/internal/usecase/dto/reservation"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// CreateReservation allocates a reservation and drives it straight to HELD.
// Callers never observe a bare INTENT_CREATED: the snapshot and the
// INTENT_CREATED -> HELD log entry land in one transaction.
//
// A repeated request with the same (partnerID, idempotencyKey) returns the
// existing reservation unchanged, whatever its current state.
func (uc *DefaultReservationUsecase) CreateReservation(ctx context.Context, input *reservationdto.CreateReservationInput) (*reservationdto.ReservationOutput, error) {
	if !input.SlotEndTime.After(input.SlotStartTime) {
		return nil, domain.ErrInvalidSlotWindow
	}

	exists, err := uc.Vendors.VendorExists(ctx, input.VendorID)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "vendor lookup failed: %v", err)
	}
	if !exists {
		return nil, domain.ErrVendorNotFound
	}

	if input.IdempotencyKey != "" {
		existing, err := uc.Repo.FindByIdempotencyKey(ctx, input.PartnerID, input.IdempotencyKey)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "idempotency lookup failed: %v", err)
		}
		if existing != nil {
			return reservationdto.ToReservationOutput(existing), nil
		}
	}

	idGenerator, err := nanoid.Standard(15)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to init id generator: %v", err)
	}

	now := uc.Clock.Now()
	reservation := &domain.Reservation{
		ID:             idGenerator(),
		PartnerID:      input.PartnerID,
		IdempotencyKey: input.IdempotencyKey,
		VendorID:       input.VendorID,
		RequesterID:    input.RequesterID,
		SlotStartTime:  input.SlotStartTime.UTC(),
		SlotEndTime:    input.SlotEndTime.UTC(),
		State:          domain.StateIntentCreated,
		CreatedAt:      now,
		MetadataJSON:   input.MetadataJSON,
	}

	result, err := domain.TransitionState(
		reservation,
		domain.StateHeld,
		domain.ActorSystem,
		"reservation created",
		input.MetadataJSON,
		input.IdempotencyKey,
		now,
	)
	if err != nil {
		return nil, err
	}

	held := domain.ApplyTransition(reservation, result.NewState, result.Log, now)

	if err := uc.Repo.CreateReservation(ctx, held, &result.Log); err != nil {
		// Two concurrent creates with the same key race past the lookup
		// above; the unique index decides, and the loser returns the
		// winner's reservation.
		if errors.Is(err, domain.ErrDuplicateKey) && input.IdempotencyKey != "" {
			existing, findErr := uc.Repo.FindByIdempotencyKey(ctx, input.PartnerID, input.IdempotencyKey)
			if findErr == nil && existing != nil {
				return reservationdto.ToReservationOutput(existing), nil
			}
		}
		return nil, status.Errorf(codes.Internal, "failed to persist reservation: %v", err)
	}

	uc.Metrics.ReservationsCreatedTotal.WithLabelValues(held.PartnerID).Inc()
	uc.Metrics.TransitionsTotal.WithLabelValues(
		string(domain.StateIntentCreated), string(domain.StateHeld), string(domain.ActorSystem),
	).Inc()

	uc.notifyVendor(held, "reservation created")

	return reservationdto.ToReservationOutput(held), nil
}

// notifyVendor publishes asynchronously; delivery is at-least-once and a
// publish failure never rolls back a committed transition.
func (uc *DefaultReservationUsecase) notifyVendor(r *domain.Reservation, reason string) {
	event := publisher.ReservationEvent{
		ReservationID: r.ID,
		PartnerID:     r.PartnerID,
		VendorID:      r.VendorID,
		RequesterID:   r.RequesterID,
		State:         string(r.State),
		SlotStartTime: r.SlotStartTime,
		SlotEndTime:   r.SlotEndTime,
		Reason:        reason,
	}

	uc.publishWG.Add(1)
	go func(event publisher.ReservationEvent) {
		defer uc.publishWG.Done()
		if err := uc.Publisher.PublishReservation(event); err != nil {
			slog.Error("failed to publish reservation event",
				"reservation_id", event.ReservationID,
				"state", event.State,
				"error", err.Error())
		}
	}(event)
}
