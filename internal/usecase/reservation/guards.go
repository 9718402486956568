package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/kavelio/reservation-service/internal/domain"
)

// SlotConflictChecker is the slice of the repository the availability guard
// needs.
type SlotConflictChecker interface {
	HasSlotConflict(ctx context.Context, vendorID string, slotStart, slotEnd time.Time, excludeID string) (bool, error)
}

// AvailabilityGuard re-validates, right before the commit phase begins,
// that no competing reservation has claimed an overlapping slot since the
// hold was taken. Its rejection routes to FAILED_AVAILABILITY_CHANGED; it
// never lets a commit proceed on a stale hold.
type AvailabilityGuard struct {
	Checker SlotConflictChecker
}

func NewAvailabilityGuard(checker SlotConflictChecker) *AvailabilityGuard {
	return &AvailabilityGuard{Checker: checker}
}

func (g *AvailabilityGuard) Check(ctx context.Context, r *domain.Reservation, to domain.ReservationState) (domain.GuardResult, error) {
	if to != domain.StateCommitInProgress {
		return domain.Allow(), nil
	}

	conflict, err := g.Checker.HasSlotConflict(ctx, r.VendorID, r.SlotStartTime, r.SlotEndTime, r.ID)
	if err != nil {
		return domain.GuardResult{}, fmt.Errorf("availability re-check failed: %w", err)
	}
	if conflict {
		return domain.Reject("slot no longer available", domain.StateFailedAvailabilityChanged), nil
	}

	return domain.Allow(), nil
}

// PaymentIntentGuard encodes "authorization implies funds are earmarked":
// a party may not be marked authorized until its payment intent has been
// attached by the payment orchestrator.
type PaymentIntentGuard struct{}

func NewPaymentIntentGuard() *PaymentIntentGuard {
	return &PaymentIntentGuard{}
}

func (g *PaymentIntentGuard) Check(ctx context.Context, r *domain.Reservation, to domain.ReservationState) (domain.GuardResult, error) {
	if to == domain.StateVendorAuthorized && r.PaymentState.VendorPaymentIntentID == "" {
		return domain.Reject("vendor payment intent not created", domain.StateFailedVendorAuth), nil
	}
	if to == domain.StateAuthorizedBoth && r.PaymentState.RequesterPaymentIntentID == "" {
		return domain.Reject("requester payment intent not created", domain.StateFailedRequesterAuth), nil
	}
	return domain.Allow(), nil
}

// DefaultGuardChain is the production guard order: availability first, then
// payment readiness.
func DefaultGuardChain(checker SlotConflictChecker) domain.GuardChain {
	return domain.GuardChain{
		NewAvailabilityGuard(checker),
		NewPaymentIntentGuard(),
	}
}
