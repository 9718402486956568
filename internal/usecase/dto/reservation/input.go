package reservationdto

import (
	"time"

	"github.com/kavelio/reservation-service/internal/domain"
)

type CreateReservationInput struct {
	PartnerID      string
	VendorID       string
	RequesterID    string
	SlotStartTime  time.Time
	SlotEndTime    time.Time
	MetadataJSON   string
	IdempotencyKey string
}

type TransitionInput struct {
	ReservationID  string
	PartnerID      string
	ToState        domain.ReservationState
	TriggeredBy    domain.Actor
	Reason         string
	MetadataJSON   string
	IdempotencyKey string
}

type CancelReservationInput struct {
	ReservationID  string
	PartnerID      string
	TriggeredBy    domain.Actor
	Reason         string
	IdempotencyKey string
}
