// Package bookeo is the typed client for the external Bookeo booking API.
// Response shapes are declared here and validated on ingress so undefined
// fields never leak into the waiver flow.
package bookeo

import (
	"encoding/json"
	"fmt"
	"time"
)

// WaiverConfirmationFieldID is the custom-field id that carries the waiver
// confirmation code on a Bookeo person record.
const WaiverConfirmationFieldID = "RATUN9"

// BookingList is the envelope of GET /bookings.
type BookingList struct {
	Data []Booking `json:"data"`
}

// Booking is one reservation with its participant roster.
type Booking struct {
	BookingNumber string       `json:"bookingNumber"`
	EventID       string       `json:"eventId"`
	StartTime     time.Time    `json:"startTime"`
	EndTime       time.Time    `json:"endTime"`
	CreationTime  time.Time    `json:"creationTime"`
	ProductName   string       `json:"productName"`
	Canceled      bool         `json:"canceled"`
	Price         *Price       `json:"price,omitempty"`
	Participants  Participants `json:"participants"`
}

// Participants nests the per-person details of a booking.
type Participants struct {
	Details []ParticipantDetail `json:"details"`
}

// ParticipantDetail wraps a single participant entry.
type ParticipantDetail struct {
	PersonDetails *Person `json:"personDetails"`
}

// Person is a participant or customer record.
type Person struct {
	ID           string        `json:"id"`
	CustomerID   string        `json:"customerId"`
	FirstName    string        `json:"firstName"`
	LastName     string        `json:"lastName"`
	CustomFields []CustomField `json:"customFields"`
}

// CustomField is one {id, value} entry of a person's custom field array.
type CustomField struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// Price carries the monetary totals of a booking.
type Price struct {
	TotalNet Money `json:"totalNet"`
}

// Money is a Bookeo amount. Amounts arrive as decimal strings.
type Money struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// PersonDocument is a full customer or linked-person resource held for a
// read-modify-write cycle. Bookeo's PUT replaces the whole document, so every
// field must survive the round trip; unknown fields are kept as raw JSON and
// only customFields gets typed access.
type PersonDocument struct {
	fields map[string]json.RawMessage
}

// UnmarshalJSON keeps the document verbatim.
func (d *PersonDocument) UnmarshalJSON(b []byte) error {
	return json.Unmarshal(b, &d.fields)
}

// MarshalJSON emits the document with any modifications applied.
func (d PersonDocument) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.fields)
}

// CustomFields decodes the document's custom field array. A document without
// the key yields an empty slice.
func (d *PersonDocument) CustomFields() ([]CustomField, error) {
	raw, ok := d.fields["customFields"]
	if !ok {
		return nil, nil
	}
	var out []CustomField
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode customFields: %w", err)
	}
	return out, nil
}

// CustomFieldValue returns the value for a field id, if present.
func (d *PersonDocument) CustomFieldValue(id string) (string, bool) {
	fields, err := d.CustomFields()
	if err != nil {
		return "", false
	}
	for _, f := range fields {
		if f.ID == id {
			return f.Value, true
		}
	}
	return "", false
}

// SetCustomField updates the value of an existing field id or appends a new
// entry when the document has none.
func (d *PersonDocument) SetCustomField(id, value string) error {
	fields, err := d.CustomFields()
	if err != nil {
		return err
	}
	updated := false
	for i := range fields {
		if fields[i].ID == id {
			fields[i].Value = value
			updated = true
			break
		}
	}
	if !updated {
		fields = append(fields, CustomField{ID: id, Value: value})
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode customFields: %w", err)
	}
	if d.fields == nil {
		d.fields = make(map[string]json.RawMessage)
	}
	d.fields["customFields"] = raw
	return nil
}
