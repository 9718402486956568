package domain

import "time"

type ReservationState string

const (
	StateIntentCreated             ReservationState = "INTENT_CREATED"
	StateHeld                      ReservationState = "HELD"
	StateAwaitingVendorConfirm     ReservationState = "AWAITING_VENDOR_CONFIRMATION"
	StateConfirmedByVendor         ReservationState = "CONFIRMED_BY_VENDOR"
	StateAwaitingVendorAuth        ReservationState = "AWAITING_VENDOR_AUTH"
	StateVendorAuthorized          ReservationState = "VENDOR_AUTHORIZED"
	StateAwaitingRequesterAuth     ReservationState = "AWAITING_REQUESTER_AUTH"
	StateAuthorizedBoth            ReservationState = "AUTHORIZED_BOTH"
	StateCommitInProgress          ReservationState = "COMMIT_IN_PROGRESS"
	StateCommitted                 ReservationState = "COMMITTED"
	StateFailedVendorTimeout       ReservationState = "FAILED_VENDOR_TIMEOUT"
	StateFailedVendorAuth          ReservationState = "FAILED_VENDOR_AUTH"
	StateFailedRequesterAuth       ReservationState = "FAILED_REQUESTER_AUTH"
	StateFailedAvailabilityChanged ReservationState = "FAILED_AVAILABILITY_CHANGED"
	StateFailedCommit              ReservationState = "FAILED_COMMIT"
	StateExpired                   ReservationState = "EXPIRED"
	StateCancelled                 ReservationState = "CANCELLED"
)

// Actor identifies who triggered a state transition.
type Actor string

const (
	ActorSystem    Actor = "system"
	ActorVendor    Actor = "vendor"
	ActorRequester Actor = "requester"
	ActorAdmin     Actor = "admin"
	ActorSweeper   Actor = "sweeper"
)

// PaymentState carries the payment intents attached by the payment
// orchestrator. The state machine only reads these, it never creates them.
type PaymentState struct {
	VendorPaymentIntentID    string
	RequesterPaymentIntentID string
}

type Reservation struct {
	ID             string
	PartnerID      string
	IdempotencyKey string

	VendorID    string
	RequesterID string

	SlotStartTime time.Time
	SlotEndTime   time.Time

	State   ReservationState
	Version int64

	CreatedAt         time.Time
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

	// ExpiresAt is the deadline for the current state. Nil only for
	// terminal states.
	ExpiresAt  *time.Time
	TTLStage   string
	TTLMinutes int

	PaymentState  PaymentState
	FailureReason string

	// MetadataJSON is an opaque partner payload, never interpreted here.
	MetadataJSON string
}

// TransitionLog is one append-only record per committed state change.
// Entries are never mutated or deleted.
type TransitionLog struct {
	ID             string
	ReservationID  string
	FromState      ReservationState
	ToState        ReservationState
	TriggeredBy    Actor
	Reason         string
	MetadataJSON   string
	Timestamp      time.Time
	IdempotencyKey string
}
