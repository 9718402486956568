package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kavelio/reservation-service/internal/domain"
	reservationdto "github.com/kavelio/reservation-service/internal/usecase/dto/reservation"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func mustCreate(t *testing.T, env *testEnv, now time.Time) *reservationdto.ReservationOutput {
	t.Helper()
	out, err := env.uc.CreateReservation(context.Background(), validCreateInput(now))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	return out
}

func mustTransition(t *testing.T, env *testEnv, id string, to domain.ReservationState, by domain.Actor) *reservationdto.ReservationOutput {
	t.Helper()
	out, err := env.uc.Transition(context.Background(), &reservationdto.TransitionInput{
		ReservationID: id,
		PartnerID:     "partner-1",
		ToState:       to,
		TriggeredBy:   by,
	})
	if err != nil {
		t.Fatalf("transition to %s failed: %v", to, err)
	}
	return out
}

func TestTransition_FullLifecycle(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now)

	created := mustCreate(t, env, now)

	mustTransition(t, env, created.ID, domain.StateAwaitingVendorConfirm, domain.ActorSystem)
	mustTransition(t, env, created.ID, domain.StateConfirmedByVendor, domain.ActorVendor)
	mustTransition(t, env, created.ID, domain.StateAwaitingVendorAuth, domain.ActorSystem)

	env.repo.setPaymentIntents(created.ID, "pi_vendor_1", "")
	mustTransition(t, env, created.ID, domain.StateVendorAuthorized, domain.ActorVendor)
	mustTransition(t, env, created.ID, domain.StateAwaitingRequesterAuth, domain.ActorSystem)

	env.repo.setPaymentIntents(created.ID, "", "pi_requester_1")
	mustTransition(t, env, created.ID, domain.StateAuthorizedBoth, domain.ActorRequester)
	mustTransition(t, env, created.ID, domain.StateCommitInProgress, domain.ActorSystem)
	final := mustTransition(t, env, created.ID, domain.StateCommitted, domain.ActorSystem)

	if final.State != domain.StateCommitted {
		t.Fatalf("final state = %s, want COMMITTED", final.State)
	}
	if final.ExpiresAt != nil {
		t.Errorf("committed reservation must have nil ExpiresAt")
	}

	// The log, folded in order, walks the full forward path.
	logs, _ := env.repo.GetTransitionLog(context.Background(), created.ID)
	wantPath := []domain.ReservationState{
		domain.StateHeld,
		domain.StateAwaitingVendorConfirm,
		domain.StateConfirmedByVendor,
		domain.StateAwaitingVendorAuth,
		domain.StateVendorAuthorized,
		domain.StateAwaitingRequesterAuth,
		domain.StateAuthorizedBoth,
		domain.StateCommitInProgress,
		domain.StateCommitted,
	}
	if len(logs) != len(wantPath) {
		t.Fatalf("log length = %d, want %d", len(logs), len(wantPath))
	}
	from := domain.StateIntentCreated
	for i, log := range logs {
		if log.FromState != from || log.ToState != wantPath[i] {
			t.Errorf("log[%d] = %s -> %s, want %s -> %s", i, log.FromState, log.ToState, from, wantPath[i])
		}
		from = wantPath[i]
	}
}

func TestTransition_InvalidEdge(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now)
	created := mustCreate(t, env, now)

	_, err := env.uc.Transition(context.Background(), &reservationdto.TransitionInput{
		ReservationID: created.ID,
		PartnerID:     "partner-1",
		ToState:       domain.StateCommitInProgress,
		TriggeredBy:   domain.ActorRequester,
	})

	var terr *domain.TransitionError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
	if terr.Code != domain.CodeInvalidTransition {
		t.Errorf("code = %s, want INVALID_TRANSITION", terr.Code)
	}
	if terr.From != domain.StateHeld || terr.To != domain.StateCommitInProgress {
		t.Errorf("error endpoints = %s -> %s", terr.From, terr.To)
	}
}

func TestTransition_TerminalImmutability(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now)
	created := mustCreate(t, env, now)

	if _, err := env.uc.CancelReservation(context.Background(), &reservationdto.CancelReservationInput{
		ReservationID: created.ID,
		PartnerID:     "partner-1",
		TriggeredBy:   domain.ActorRequester,
	}); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	// A different target state must be rejected outright.
	_, err := env.uc.Transition(context.Background(), &reservationdto.TransitionInput{
		ReservationID: created.ID,
		PartnerID:     "partner-1",
		ToState:       domain.StateAwaitingVendorConfirm,
		TriggeredBy:   domain.ActorSystem,
	})
	var terr *domain.TransitionError
	if !errors.As(err, &terr) || terr.Code != domain.CodeTransitionFromTerminal {
		t.Fatalf("expected TRANSITION_FROM_TERMINAL, got %v", err)
	}

	// Replaying the same terminal state is a no-op that still logs.
	before := env.repo.logCount(created.ID)
	out, err := env.uc.Transition(context.Background(), &reservationdto.TransitionInput{
		ReservationID:  created.ID,
		PartnerID:      "partner-1",
		ToState:        domain.StateCancelled,
		TriggeredBy:    domain.ActorRequester,
		IdempotencyKey: "replay-1",
	})
	if err != nil {
		t.Fatalf("idempotent replay failed: %v", err)
	}
	if out.State != domain.StateCancelled {
		t.Errorf("state = %s, want CANCELLED", out.State)
	}
	if got := env.repo.logCount(created.ID); got != before+1 {
		t.Errorf("replay appended %d entries, want 1", got-before)
	}

	stored, _ := env.repo.GetReservationByID(context.Background(), created.ID)
	if stored.Version != 1 {
		t.Errorf("replay must not bump the row version, got %d", stored.Version)
	}
}

func TestTransition_PaymentGuardRoutesToFailure(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now)
	created := mustCreate(t, env, now)

	mustTransition(t, env, created.ID, domain.StateAwaitingVendorConfirm, domain.ActorSystem)
	mustTransition(t, env, created.ID, domain.StateConfirmedByVendor, domain.ActorVendor)
	mustTransition(t, env, created.ID, domain.StateAwaitingVendorAuth, domain.ActorSystem)

	// No vendor payment intent attached.
	_, err := env.uc.Transition(context.Background(), &reservationdto.TransitionInput{
		ReservationID: created.ID,
		PartnerID:     "partner-1",
		ToState:       domain.StateVendorAuthorized,
		TriggeredBy:   domain.ActorVendor,
	})

	var gerr *domain.GuardRejectionError
	if !errors.As(err, &gerr) {
		t.Fatalf("expected GuardRejectionError, got %v", err)
	}
	if gerr.FailureState != domain.StateFailedVendorAuth {
		t.Errorf("failure state = %s, want FAILED_VENDOR_AUTH", gerr.FailureState)
	}

	stored, _ := env.repo.GetReservationByID(context.Background(), created.ID)
	if stored.State != domain.StateFailedVendorAuth {
		t.Errorf("reservation state = %s, want FAILED_VENDOR_AUTH", stored.State)
	}
	if stored.FailureReason != "vendor payment intent not created" {
		t.Errorf("FailureReason = %q", stored.FailureReason)
	}
}

func TestTransition_AvailabilityGuardRoutesToFailure(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now)
	created := mustCreate(t, env, now)

	mustTransition(t, env, created.ID, domain.StateAwaitingVendorConfirm, domain.ActorSystem)
	mustTransition(t, env, created.ID, domain.StateConfirmedByVendor, domain.ActorVendor)
	mustTransition(t, env, created.ID, domain.StateAwaitingVendorAuth, domain.ActorSystem)
	env.repo.setPaymentIntents(created.ID, "pi_vendor_1", "pi_requester_1")
	mustTransition(t, env, created.ID, domain.StateVendorAuthorized, domain.ActorVendor)
	mustTransition(t, env, created.ID, domain.StateAwaitingRequesterAuth, domain.ActorSystem)
	mustTransition(t, env, created.ID, domain.StateAuthorizedBoth, domain.ActorRequester)

	// A competing reservation claimed the slot after the hold.
	env.repo.slotConflict = true

	_, err := env.uc.Transition(context.Background(), &reservationdto.TransitionInput{
		ReservationID: created.ID,
		PartnerID:     "partner-1",
		ToState:       domain.StateCommitInProgress,
		TriggeredBy:   domain.ActorSystem,
	})

	var gerr *domain.GuardRejectionError
	if !errors.As(err, &gerr) {
		t.Fatalf("expected GuardRejectionError, got %v", err)
	}
	if gerr.FailureState != domain.StateFailedAvailabilityChanged {
		t.Errorf("failure state = %s, want FAILED_AVAILABILITY_CHANGED", gerr.FailureState)
	}

	stored, _ := env.repo.GetReservationByID(context.Background(), created.ID)
	if stored.State != domain.StateFailedAvailabilityChanged {
		t.Errorf("reservation state = %s, want FAILED_AVAILABILITY_CHANGED", stored.State)
	}
}

func TestTransition_RetriesVersionConflict(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now)
	created := mustCreate(t, env, now)

	env.repo.forcedConflicts = 1
	out := mustTransition(t, env, created.ID, domain.StateAwaitingVendorConfirm, domain.ActorSystem)
	if out.State != domain.StateAwaitingVendorConfirm {
		t.Errorf("state = %s, want AWAITING_VENDOR_CONFIRMATION", out.State)
	}

	env.repo.forcedConflicts = 10
	_, err := env.uc.Transition(context.Background(), &reservationdto.TransitionInput{
		ReservationID: created.ID,
		PartnerID:     "partner-1",
		ToState:       domain.StateConfirmedByVendor,
		TriggeredBy:   domain.ActorVendor,
	})
	if err == nil {
		t.Fatalf("expected error after exhausting retries")
	}
	if status.Code(err) != codes.Aborted {
		t.Errorf("status code = %s, want Aborted", status.Code(err))
	}
}

// Two concurrent writers race the same edge: exactly one commits the state
// change, the other lands on the idempotent-replay path after its reload.
// Either way there is exactly one causal transition in the log.
func TestTransition_ConcurrentWritersSingleWinner(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now)
	created := mustCreate(t, env, now)

	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.uc.Transition(context.Background(), &reservationdto.TransitionInput{
				ReservationID: created.ID,
				PartnerID:     "partner-1",
				ToState:       domain.StateAwaitingVendorConfirm,
				TriggeredBy:   domain.ActorSystem,
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("writer %d failed: %v", i, err)
		}
	}

	stored, _ := env.repo.GetReservationByID(context.Background(), created.ID)
	if stored.State != domain.StateAwaitingVendorConfirm {
		t.Fatalf("state = %s, want AWAITING_VENDOR_CONFIRMATION", stored.State)
	}
	if stored.Version != 1 {
		t.Errorf("version = %d, want 1 (exactly one net state change)", stored.Version)
	}

	logs, _ := env.repo.GetTransitionLog(context.Background(), created.ID)
	causal := 0
	for _, log := range logs {
		if log.FromState == domain.StateHeld && log.ToState == domain.StateAwaitingVendorConfirm {
			causal++
		}
	}
	if causal != 1 {
		t.Errorf("causal HELD -> AWAITING_VENDOR_CONFIRMATION entries = %d, want 1", causal)
	}
}

func TestTransition_TenantScoping(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now)
	created := mustCreate(t, env, now)

	_, err := env.uc.Transition(context.Background(), &reservationdto.TransitionInput{
		ReservationID: created.ID,
		PartnerID:     "partner-other",
		ToState:       domain.StateAwaitingVendorConfirm,
		TriggeredBy:   domain.ActorSystem,
	})
	if !errors.Is(err, domain.ErrReservationNotFound) {
		t.Fatalf("expected ErrReservationNotFound for foreign partner, got %v", err)
	}

	if _, err := env.uc.GetReservation(context.Background(), created.ID, "partner-other"); !errors.Is(err, domain.ErrReservationNotFound) {
		t.Fatalf("expected scoped read to fail, got %v", err)
	}
}

func TestCancelReservation_FromAnyNonTerminalState(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(now)
	created := mustCreate(t, env, now)

	mustTransition(t, env, created.ID, domain.StateAwaitingVendorConfirm, domain.ActorSystem)
	mustTransition(t, env, created.ID, domain.StateConfirmedByVendor, domain.ActorVendor)

	out, err := env.uc.CancelReservation(context.Background(), &reservationdto.CancelReservationInput{
		ReservationID: created.ID,
		PartnerID:     "partner-1",
		TriggeredBy:   domain.ActorRequester,
		Reason:        "requester changed plans",
	})
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if out.State != domain.StateCancelled {
		t.Errorf("state = %s, want CANCELLED", out.State)
	}

	stored, _ := env.repo.GetReservationByID(context.Background(), created.ID)
	if stored.CancelledAt == nil {
		t.Errorf("CancelledAt not set")
	}
	if stored.ExpiresAt != nil {
		t.Errorf("cancelled reservation must have nil ExpiresAt")
	}
}
