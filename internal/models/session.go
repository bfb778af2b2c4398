package models

import "strconv"

// SessionState tracks where a waiver session sits in its lifecycle.
// Finalization removes the record from the store, so a stored session is
// only ever issued or signed; expiry is implicit via the store TTL.
type SessionState string

const (
	SessionIssued    SessionState = "issued"
	SessionSigned    SessionState = "signed"
	SessionFinalized SessionState = "finalized"
)

// CanTransition reports whether moving to the given state is a legal
// lifecycle step. Re-signing an already signed session is allowed; the
// pipeline is deterministic so the result is identical.
func (s SessionState) CanTransition(to SessionState) bool {
	switch to {
	case SessionSigned:
		return s == SessionIssued || s == SessionSigned
	case SessionFinalized:
		return s == SessionSigned
	default:
		return false
	}
}

// Session is the state accumulated across a waiver flow, stored as a Redis
// hash at session:{handshake} with a fixed TTL. The handshake is kept as a
// field so a loaded record witnesses its own liveness independently of key
// existence.
type Session struct {
	Handshake string       `redis:"handshake" json:"handshake"`
	SessionID string       `redis:"sessionId" json:"sessionId"`
	State     SessionState `redis:"state" json:"state"`

	// Matched booking identity.
	CustomerID    string `redis:"customerId" json:"customerId"`
	PersonID      string `redis:"personId" json:"personId"`
	IsParticipant bool   `redis:"isParticipant" json:"isParticipant"`
	BookingNumber string `redis:"bookingNumber" json:"bookingNumber"`
	BookingDate   string `redis:"bookingDate" json:"bookingDate"`
	ProductName   string `redis:"productName" json:"productName"`

	// Client-supplied metadata captured at issue time.
	FirstName      string `redis:"firstName" json:"firstName"`
	LastName       string `redis:"lastName" json:"lastName"`
	Email          string `redis:"email" json:"email"`
	MinorChecked   bool   `redis:"minorChecked" json:"minorChecked"`
	MinorFirstName string `redis:"minorFirstName" json:"minorFirstName"`
	MinorLastName  string `redis:"minorLastName" json:"minorLastName"`

	// Written by the signer.
	RawSignature     string `redis:"rawSignature" json:"-"`     // base64 RSA signature over the artwork
	ConfirmationHash string `redis:"confirmationHash" json:"-"` // full hex digest of the raw signature
	ConfirmationCode string `redis:"confirmationCode" json:"confirmationCode"` // 6-char uppercase display code
}

// Fields flattens the session into string pairs for archival forwarding.
func (s *Session) Fields() map[string]string {
	return map[string]string{
		"handshake":        s.Handshake,
		"sessionId":        s.SessionID,
		"state":            string(s.State),
		"customerId":       s.CustomerID,
		"personId":         s.PersonID,
		"isParticipant":    strconv.FormatBool(s.IsParticipant),
		"bookingNumber":    s.BookingNumber,
		"bookingDate":      s.BookingDate,
		"productName":      s.ProductName,
		"firstName":        s.FirstName,
		"lastName":         s.LastName,
		"email":            s.Email,
		"minorChecked":     strconv.FormatBool(s.MinorChecked),
		"minorFirstName":   s.MinorFirstName,
		"minorLastName":    s.MinorLastName,
		"rawSignature":     s.RawSignature,
		"confirmationHash": s.ConfirmationHash,
		"confirmationCode": s.ConfirmationCode,
	}
}
