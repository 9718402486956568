package reservationdto

import (
	"time"

	"github.com/kavelio/reservation-service/internal/domain"
)

type ReservationOutput struct {
	ID              string
	PartnerID       string
	VendorID        string
	RequesterID     string
	State           domain.ReservationState
	SlotStartTime   time.Time
	SlotEndTime     time.Time
	CreatedAt       time.Time
	ExpiresAt       *time.Time
	TTLStage        string
	TTLMinutes      int
	PaymentState    domain.PaymentState
	FailureReason   string
	MetadataJSON    string
	NextValidStates []domain.ReservationState
}

func ToReservationOutput(r *domain.Reservation) *ReservationOutput {
	return &ReservationOutput{
		ID:              r.ID,
		PartnerID:       r.PartnerID,
		VendorID:        r.VendorID,
		RequesterID:     r.RequesterID,
		State:           r.State,
		SlotStartTime:   r.SlotStartTime,
		SlotEndTime:     r.SlotEndTime,
		CreatedAt:       r.CreatedAt,
		ExpiresAt:       r.ExpiresAt,
		TTLStage:        r.TTLStage,
		TTLMinutes:      r.TTLMinutes,
		PaymentState:    r.PaymentState,
		FailureReason:   r.FailureReason,
		MetadataJSON:    r.MetadataJSON,
		NextValidStates: domain.NextValidStates(r.State),
	}
}
