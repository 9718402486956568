package domain

import (
	"context"
	"time"
)

type ReservationRepository interface {
	// CreateReservation inserts the reservation and its initial transition
	// log entry in one transaction. Returns ErrDuplicateKey when the
	// (partnerID, idempotencyKey) pair is already taken.
	CreateReservation(ctx context.Context, r *Reservation, log *TransitionLog) error

	GetReservationByID(ctx context.Context, id string) (*Reservation, error)

	// FindByIdempotencyKey returns (nil, nil) when no reservation exists
	// for the pair.
	FindByIdempotencyKey(ctx context.Context, partnerID, key string) (*Reservation, error)

	// SaveTransition persists a new snapshot together with its log entry in
	// one transaction, guarded by a compare-and-swap on the row version.
	// Returns ErrVersionConflict when the stored version no longer matches
	// expectedVersion; the caller must reload and retry.
	SaveTransition(ctx context.Context, r *Reservation, expectedVersion int64, log *TransitionLog) error

	// AppendTransitionLog records an idempotent replay without touching the
	// reservation row.
	AppendTransitionLog(ctx context.Context, log *TransitionLog) error

	GetTransitionLog(ctx context.Context, reservationID string) ([]*TransitionLog, error)

	FindExpiredReservations(ctx context.Context, now time.Time, limit int) ([]*Reservation, error)

	GetReservationsByVendorID(ctx context.Context, vendorID string, states []ReservationState) ([]*Reservation, error)

	// HasSlotConflict reports whether another live reservation holds an
	// overlapping slot for the vendor. Intervals are half-open.
	HasSlotConflict(ctx context.Context, vendorID string, slotStart, slotEnd time.Time, excludeID string) (bool, error)
}

type VendorDirectory interface {
	VendorExists(ctx context.Context, vendorID string) (bool, error)
}
