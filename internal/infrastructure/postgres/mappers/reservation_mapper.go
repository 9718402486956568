package mappers

import (
	"github.com/kavelio/reservation-service/internal/domain"
	"github.com/kavelio/reservation-service/internal/infrastructure/postgres/models"
)

// jsonbOrNil maps absent metadata to NULL: Postgres rejects '' as jsonb.
func jsonbOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func stringOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func ToDomainReservation(model *models.ReservationModel) *domain.Reservation {
	key := ""
	if model.IdempotencyKey != nil {
		key = *model.IdempotencyKey
	}

	return &domain.Reservation{
		ID:                model.ID,
		PartnerID:         model.PartnerID,
		IdempotencyKey:    key,
		VendorID:          model.VendorID,
		RequesterID:       model.RequesterID,
		SlotStartTime:     model.SlotStartTime,
		SlotEndTime:       model.SlotEndTime,
		State:             model.State,
		Version:           model.Version,
		CreatedAt:         model.CreatedAt,
		HeldAt:            model.HeldAt,
		VendorNotifiedAt:  model.VendorNotifiedAt,
		VendorConfirmedAt: model.VendorConfirmedAt,
		VendorAuthAt:      model.VendorAuthAt,
		RequesterAuthAt:   model.RequesterAuthAt,
		AuthorizedBothAt:  model.AuthorizedBothAt,
		CommitStartedAt:   model.CommitStartedAt,
		CommittedAt:       model.CommittedAt,
		FailedAt:          model.FailedAt,
		CancelledAt:       model.CancelledAt,
		ExpiresAt:         model.ExpiresAt,
		TTLStage:          model.TTLStage,
		TTLMinutes:        model.TTLMinutes,
		PaymentState: domain.PaymentState{
			VendorPaymentIntentID:    model.VendorPaymentIntentID,
			RequesterPaymentIntentID: model.RequesterPaymentIntentID,
		},
		FailureReason: model.FailureReason,
		MetadataJSON:  stringOrEmpty(model.MetadataJSON),
	}
}

func ToGORMReservation(r *domain.Reservation) *models.ReservationModel {
	var key *string
	if r.IdempotencyKey != "" {
		k := r.IdempotencyKey
		key = &k
	}

	return &models.ReservationModel{
		ID:                       r.ID,
		PartnerID:                r.PartnerID,
		IdempotencyKey:           key,
		VendorID:                 r.VendorID,
		RequesterID:              r.RequesterID,
		SlotStartTime:            r.SlotStartTime,
		SlotEndTime:              r.SlotEndTime,
		State:                    r.State,
		Version:                  r.Version,
		CreatedAt:                r.CreatedAt,
		HeldAt:                   r.HeldAt,
		VendorNotifiedAt:         r.VendorNotifiedAt,
		VendorConfirmedAt:        r.VendorConfirmedAt,
		VendorAuthAt:             r.VendorAuthAt,
		RequesterAuthAt:          r.RequesterAuthAt,
		AuthorizedBothAt:         r.AuthorizedBothAt,
		CommitStartedAt:          r.CommitStartedAt,
		CommittedAt:              r.CommittedAt,
		FailedAt:                 r.FailedAt,
		CancelledAt:              r.CancelledAt,
		ExpiresAt:                r.ExpiresAt,
		TTLStage:                 r.TTLStage,
		TTLMinutes:               r.TTLMinutes,
		VendorPaymentIntentID:    r.PaymentState.VendorPaymentIntentID,
		RequesterPaymentIntentID: r.PaymentState.RequesterPaymentIntentID,
		FailureReason:            r.FailureReason,
		MetadataJSON:             jsonbOrNil(r.MetadataJSON),
	}
}

func ToDomainTransitionLog(model *models.TransitionLogModel) *domain.TransitionLog {
	return &domain.TransitionLog{
		ID:             model.ID,
		ReservationID:  model.ReservationID,
		FromState:      model.FromState,
		ToState:        model.ToState,
		TriggeredBy:    model.TriggeredBy,
		Reason:         model.Reason,
		MetadataJSON:   stringOrEmpty(model.MetadataJSON),
		Timestamp:      model.Timestamp,
		IdempotencyKey: model.IdempotencyKey,
	}
}

func ToGORMTransitionLog(log *domain.TransitionLog) *models.TransitionLogModel {
	return &models.TransitionLogModel{
		ID:             log.ID,
		ReservationID:  log.ReservationID,
		FromState:      log.FromState,
		ToState:        log.ToState,
		TriggeredBy:    log.TriggeredBy,
		Reason:         log.Reason,
		MetadataJSON:   jsonbOrNil(log.MetadataJSON),
		Timestamp:      log.Timestamp,
		IdempotencyKey: log.IdempotencyKey,
	}
}
