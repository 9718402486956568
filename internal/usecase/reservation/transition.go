package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/kavelio/reservation-service/internal/domain"
	reservationdto "github.com/kavelio/reservation-service/internal/usecase/dto/reservation"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Transition drives a reservation along one edge of the state table:
// load -> guard chain -> engine -> CAS persist -> side effects. Version
// conflicts are reloaded and retried a bounded number of times; guard
// rejections route the reservation to the matching failure state and are
// never retried.
func (uc *DefaultReservationUsecase) Transition(ctx context.Context, input *reservationdto.TransitionInput) (*reservationdto.ReservationOutput, error) {
	return uc.runTransition(ctx, transitionRequest{
		reservationID:  input.ReservationID,
		partnerID:      input.PartnerID,
		toState:        input.ToState,
		triggeredBy:    input.TriggeredBy,
		reason:         input.Reason,
		metadataJSON:   input.MetadataJSON,
		idempotencyKey: input.IdempotencyKey,
		useGuards:      true,
	})
}

type transitionRequest struct {
	reservationID  string
	partnerID      string
	toState        domain.ReservationState
	triggeredBy    domain.Actor
	reason         string
	metadataJSON   string
	idempotencyKey string
	useGuards      bool
}

func (uc *DefaultReservationUsecase) runTransition(ctx context.Context, req transitionRequest) (*reservationdto.ReservationOutput, error) {
	started := uc.Clock.Now()

	for attempt := 0; attempt < maxTransitionRetries; attempt++ {
		reservation, err := uc.loadScoped(ctx, req.reservationID, req.partnerID)
		if err != nil {
			return nil, err
		}

		// Idempotent replay: same target state, no state change, one log
		// entry tagged with the replay's key. No CAS needed because the
		// row is untouched.
		if reservation.State == req.toState {
			result, err := domain.TransitionState(
				reservation, req.toState, req.triggeredBy,
				req.reason, req.metadataJSON, req.idempotencyKey, uc.Clock.Now(),
			)
			if err != nil {
				return nil, err
			}
			if err := uc.Repo.AppendTransitionLog(ctx, &result.Log); err != nil {
				return nil, status.Errorf(codes.Internal, "failed to append replay log: %v", err)
			}
			return reservationdto.ToReservationOutput(reservation), nil
		}

		// Table and terminal checks come before the guards: a request for
		// an illegal edge is the caller's mistake and must surface as such,
		// not as a guard rejection routed to a failure state.
		if domain.IsTerminalState(reservation.State) {
			uc.Metrics.TransitionFailuresTotal.WithLabelValues(string(domain.CodeTransitionFromTerminal)).Inc()
			return nil, &domain.TransitionError{
				Code: domain.CodeTransitionFromTerminal,
				From: reservation.State,
				To:   req.toState,
			}
		}
		if !domain.IsValidTransition(reservation.State, req.toState) {
			uc.Metrics.TransitionFailuresTotal.WithLabelValues(string(domain.CodeInvalidTransition)).Inc()
			return nil, &domain.TransitionError{
				Code: domain.CodeInvalidTransition,
				From: reservation.State,
				To:   req.toState,
			}
		}

		if req.useGuards {
			guardResult, err := uc.Guards.Evaluate(ctx, reservation, req.toState)
			if err != nil {
				return nil, status.Errorf(codes.Internal, "guard evaluation failed: %v", err)
			}
			if !guardResult.Allowed() {
				return nil, uc.routeGuardRejection(ctx, reservation, req, guardResult)
			}
		}

		now := uc.Clock.Now()
		result, err := domain.TransitionState(
			reservation, req.toState, req.triggeredBy,
			req.reason, req.metadataJSON, req.idempotencyKey, now,
		)
		if err != nil {
			var terr *domain.TransitionError
			if errors.As(err, &terr) {
				uc.Metrics.TransitionFailuresTotal.WithLabelValues(string(terr.Code)).Inc()
			}
			return nil, err
		}

		updated := domain.ApplyTransition(reservation, result.NewState, result.Log, now)

		err = uc.Repo.SaveTransition(ctx, updated, reservation.Version, &result.Log)
		if errors.Is(err, domain.ErrVersionConflict) {
			uc.Metrics.VersionConflictsTotal.Inc()
			slog.Warn("version conflict on transition, retrying",
				"reservation_id", req.reservationID,
				"to_state", req.toState,
				"attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, status.Errorf(codes.Internal, "failed to persist transition: %v", err)
		}

		uc.Metrics.TransitionsTotal.WithLabelValues(
			string(result.Log.FromState), string(result.Log.ToState), string(req.triggeredBy),
		).Inc()
		uc.Metrics.ObserveTransition(string(req.toState), started)

		if domain.IsTerminalState(updated.State) {
			uc.notifyVendor(updated, req.reason)
		}

		return reservationdto.ToReservationOutput(updated), nil
	}

	return nil, status.Errorf(codes.Aborted,
		"reservation %s: gave up after %d version conflicts", req.reservationID, maxTransitionRetries)
}

// routeGuardRejection drives the reservation to the guard's failure state
// through the same engine/CAS path, then reports the rejection. The
// reservation is never left stuck in its pre-guard state.
func (uc *DefaultReservationUsecase) routeGuardRejection(ctx context.Context, reservation *domain.Reservation, req transitionRequest, guardResult domain.GuardResult) error {
	uc.Metrics.GuardRejectionsTotal.WithLabelValues(string(guardResult.FailureState())).Inc()

	_, err := uc.runTransition(ctx, transitionRequest{
		reservationID:  req.reservationID,
		partnerID:      req.partnerID,
		toState:        guardResult.FailureState(),
		triggeredBy:    domain.ActorSystem,
		reason:         guardResult.Reason(),
		idempotencyKey: req.idempotencyKey,
		useGuards:      false,
	})
	if err != nil {
		slog.Error("failed to route guard rejection to failure state",
			"reservation_id", req.reservationID,
			"failure_state", guardResult.FailureState(),
			"error", err.Error())
	}

	return &domain.GuardRejectionError{
		Reason:       guardResult.Reason(),
		FailureState: guardResult.FailureState(),
	}
}

func (uc *DefaultReservationUsecase) loadScoped(ctx context.Context, reservationID, partnerID string) (*domain.Reservation, error) {
	reservation, err := uc.Repo.GetReservationByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, domain.ErrReservationNotFound) {
			return nil, domain.ErrReservationNotFound
		}
		return nil, status.Errorf(codes.Internal, "failed to load reservation: %v", err)
	}
	// Tenant scoping: a foreign partner's reservation looks absent, it is
	// never reported as forbidden.
	if partnerID != "" && reservation.PartnerID != partnerID {
		return nil, domain.ErrReservationNotFound
	}
	return reservation, nil
}
