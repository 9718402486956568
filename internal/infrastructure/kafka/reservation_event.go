package publisher

import "time"

// ReservationEvent is the payload published to the notification topic.
// Delivery downstream is at-least-once; consumers dedupe on ReservationID
// plus State.
type ReservationEvent struct {
	ReservationID string    `json:"reservation_id"`
	PartnerID     string    `json:"partner_id"`
	VendorID      string    `json:"vendor_id"`
	RequesterID   string    `json:"requester_id"`
	State         string    `json:"state"`
	SlotStartTime time.Time `json:"slot_start_time"`
	SlotEndTime   time.Time `json:"slot_end_time"`
	Reason        string    `json:"reason,omitempty"`
}
