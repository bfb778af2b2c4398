package models

import (
	"time"

	"github.com/google/uuid"
)

// Waiver lifecycle event types recorded in the audit trail.
const (
	EventSessionIssued    = "session_issued"
	EventWaiverSigned     = "waiver_signed"
	EventWaiverFinalized  = "waiver_finalized"
	EventWaiverValidated  = "waiver_validated"
	EventValidationFailed = "validation_failed"
)

// WaiverEvent is one append-only audit row.
type WaiverEvent struct {
	ID               uuid.UUID `json:"id"`
	EventType        string    `json:"event_type"`
	BookingNumber    string    `json:"booking_number,omitempty"`
	CustomerID       string    `json:"customer_id,omitempty"`
	PersonID         string    `json:"person_id,omitempty"`
	ConfirmationCode string    `json:"confirmation_code,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
