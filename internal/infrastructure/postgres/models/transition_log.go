package models

import (
	"time"

	"github.com/kavelio/reservation-service/internal/domain"
)

// TransitionLogModel rows are append-only: there is no update or delete
// path anywhere in the repository.
type TransitionLogModel struct {
	ID             string                  `gorm:"primaryKey;type:uuid"`
	ReservationID  string                  `gorm:"index;not null"`
	FromState      domain.ReservationState `gorm:"not null"`
	ToState        domain.ReservationState `gorm:"not null"`
	TriggeredBy    domain.Actor            `gorm:"not null"`
	Reason         string
	MetadataJSON   *string `gorm:"type:jsonb"`
	Timestamp      time.Time
	IdempotencyKey string `gorm:"index"`
}

func (TransitionLogModel) TableName() string {
	return "state_transition_logs"
}
