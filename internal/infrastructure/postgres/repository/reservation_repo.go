package repository

import (
	"context"
	"errors"
	"time"

	"github.com/kavelio/reservation-service/internal/domain"
	"github.com/kavelio/reservation-service/internal/infrastructure/postgres/mappers"
	"github.com/kavelio/reservation-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultReservationRepository struct {
	DB *gorm.DB
}

func NewDefaultReservationRepository(db *gorm.DB) *DefaultReservationRepository {
	return &DefaultReservationRepository{DB: db}
}

func (r *DefaultReservationRepository) CreateReservation(ctx context.Context, reservation *domain.Reservation, log *domain.TransitionLog) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(mappers.ToGORMReservation(reservation)).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrDuplicateKey
			}
			return err
		}
		return tx.Create(mappers.ToGORMTransitionLog(log)).Error
	})
}

func (r *DefaultReservationRepository) GetReservationByID(ctx context.Context, id string) (*domain.Reservation, error) {
	var model models.ReservationModel
	if err := r.DB.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrReservationNotFound
		}
		return nil, err
	}
	return mappers.ToDomainReservation(&model), nil
}

func (r *DefaultReservationRepository) FindByIdempotencyKey(ctx context.Context, partnerID, key string) (*domain.Reservation, error) {
	var model models.ReservationModel
	err := r.DB.WithContext(ctx).
		First(&model, "partner_id = ? AND idempotency_key = ?", partnerID, key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return mappers.ToDomainReservation(&model), nil
}

// SaveTransition commits one transition atomically: a compare-and-swap on
// the row version plus the log append run in a single transaction. A stale
// writer affects zero rows and gets ErrVersionConflict.
func (r *DefaultReservationRepository) SaveTransition(ctx context.Context, reservation *domain.Reservation, expectedVersion int64, log *domain.TransitionLog) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"state":                       reservation.State,
			"version":                     expectedVersion + 1,
			"held_at":                     reservation.HeldAt,
			"vendor_notified_at":          reservation.VendorNotifiedAt,
			"vendor_confirmed_at":         reservation.VendorConfirmedAt,
			"vendor_auth_at":              reservation.VendorAuthAt,
			"requester_auth_at":           reservation.RequesterAuthAt,
			"authorized_both_at":          reservation.AuthorizedBothAt,
			"commit_started_at":           reservation.CommitStartedAt,
			"committed_at":                reservation.CommittedAt,
			"failed_at":                   reservation.FailedAt,
			"cancelled_at":                reservation.CancelledAt,
			"expires_at":                  reservation.ExpiresAt,
			"ttl_stage":                   reservation.TTLStage,
			"ttl_minutes":                 reservation.TTLMinutes,
			"vendor_payment_intent_id":    reservation.PaymentState.VendorPaymentIntentID,
			"requester_payment_intent_id": reservation.PaymentState.RequesterPaymentIntentID,
			"failure_reason":              reservation.FailureReason,
		}

		result := tx.Model(&models.ReservationModel{}).
			Where("id = ? AND version = ?", reservation.ID, expectedVersion).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrVersionConflict
		}

		return tx.Create(mappers.ToGORMTransitionLog(log)).Error
	})
}

func (r *DefaultReservationRepository) AppendTransitionLog(ctx context.Context, log *domain.TransitionLog) error {
	return r.DB.WithContext(ctx).Create(mappers.ToGORMTransitionLog(log)).Error
}

func (r *DefaultReservationRepository) GetTransitionLog(ctx context.Context, reservationID string) ([]*domain.TransitionLog, error) {
	var logModels []models.TransitionLogModel
	err := r.DB.WithContext(ctx).
		Where("reservation_id = ?", reservationID).
		Order("timestamp ASC").
		Find(&logModels).Error
	if err != nil {
		return nil, err
	}

	logs := make([]*domain.TransitionLog, 0, len(logModels))
	for i := range logModels {
		logs = append(logs, mappers.ToDomainTransitionLog(&logModels[i]))
	}
	return logs, nil
}

func (r *DefaultReservationRepository) FindExpiredReservations(ctx context.Context, now time.Time, limit int) ([]*domain.Reservation, error) {
	var reservationModels []models.ReservationModel
	err := r.DB.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at < ? AND state IN ?", now, domain.NonTerminalStates()).
		Limit(limit).
		Find(&reservationModels).Error
	if err != nil {
		return nil, err
	}

	reservations := make([]*domain.Reservation, 0, len(reservationModels))
	for i := range reservationModels {
		reservations = append(reservations, mappers.ToDomainReservation(&reservationModels[i]))
	}
	return reservations, nil
}

func (r *DefaultReservationRepository) GetReservationsByVendorID(ctx context.Context, vendorID string, states []domain.ReservationState) ([]*domain.Reservation, error) {
	query := r.DB.WithContext(ctx).Where("vendor_id = ?", vendorID)
	if len(states) > 0 {
		query = query.Where("state IN ?", states)
	}

	var reservationModels []models.ReservationModel
	if err := query.Order("created_at DESC").Find(&reservationModels).Error; err != nil {
		return nil, err
	}

	reservations := make([]*domain.Reservation, 0, len(reservationModels))
	for i := range reservationModels {
		reservations = append(reservations, mappers.ToDomainReservation(&reservationModels[i]))
	}
	return reservations, nil
}

// HasSlotConflict treats slots as half-open intervals: two reservations
// conflict when start < otherEnd AND end > otherStart.
func (r *DefaultReservationRepository) HasSlotConflict(ctx context.Context, vendorID string, slotStart, slotEnd time.Time, excludeID string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&models.ReservationModel{}).
		Where("vendor_id = ? AND id <> ?", vendorID, excludeID).
		Where("state IN ?", domain.NonTerminalStates()).
		Where("slot_start_time < ? AND slot_end_time > ?", slotEnd, slotStart).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
