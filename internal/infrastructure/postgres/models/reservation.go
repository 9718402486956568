package models

import (
	"time"

	"github.com/kavelio/reservation-service/internal/domain"
)

type ReservationModel struct {
	ID             string  `gorm:"primaryKey"`
	PartnerID      string  `gorm:"index;uniqueIndex:idx_partner_idempotency"`
	IdempotencyKey *string `gorm:"uniqueIndex:idx_partner_idempotency"`

	VendorID    string `gorm:"index:idx_vendor_slot"`
	RequesterID string

	SlotStartTime time.Time `gorm:"index:idx_vendor_slot"`
	SlotEndTime   time.Time

	State   domain.ReservationState `gorm:"index:idx_state_expires"`
	Version int64                   `gorm:"not null;default:0"`

	CreatedAt         time.Time
	UpdatedAt         time.Time
	HeldAt            *time.Time
	VendorNotifiedAt  *time.Time
	VendorConfirmedAt *time.Time
	VendorAuthAt      *time.Time
	RequesterAuthAt   *time.Time
	AuthorizedBothAt  *time.Time
	CommitStartedAt   *time.Time
	CommittedAt       *time.Time
	FailedAt          *time.Time
	CancelledAt       *time.Time

	ExpiresAt  *time.Time `gorm:"index:idx_state_expires"`
	TTLStage   string
	TTLMinutes int

	VendorPaymentIntentID    string
	RequesterPaymentIntentID string

	FailureReason string
	// Nullable: jsonb rejects the empty string, so absent metadata is NULL.
	MetadataJSON *string `gorm:"type:jsonb"`
}

func (ReservationModel) TableName() string {
	return "reservations"
}
