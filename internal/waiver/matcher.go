// Package waiver implements the waiver flow: identity matching against
// bookings, session issuance, signature signing, and finalization.
package waiver

import (
	"strings"
	"time"

	"github.com/cte-escapes/waiver-backend/internal/bookeo"
)

// searchBufferDays widens the booking search window on both sides of the
// expected date; guests routinely pick an adjacent day in the form.
const searchBufferDays = 5

// Match is the identity resolved from a booking search.
type Match struct {
	CustomerID    string
	PersonID      string
	IsParticipant bool
	BookingNumber string
	BookingDate   string
	ProductName   string
}

// matchParticipant scans every participant of every booking for a
// case-insensitive first+last name match. A person whose id differs from the
// booking's customer id is a participant-only signer.
func matchParticipant(bookings []bookeo.Booking, firstName, lastName string, loc *time.Location) (*Match, bool) {
	for _, booking := range bookings {
		for _, detail := range booking.Participants.Details {
			person := detail.PersonDetails
			if person == nil {
				continue
			}
			if !strings.EqualFold(person.FirstName, firstName) || !strings.EqualFold(person.LastName, lastName) {
				continue
			}
			return &Match{
				CustomerID:    person.CustomerID,
				PersonID:      person.ID,
				IsParticipant: person.ID != person.CustomerID,
				BookingNumber: booking.BookingNumber,
				BookingDate:   formatBookingWindow(booking.StartTime, booking.EndTime, loc),
				ProductName:   booking.ProductName,
			}, true
		}
	}
	return nil, false
}

// formatBookingWindow renders the precise booking window for display,
// e.g. "03/01/2025 02:00 PM - 03:30 PM".
func formatBookingWindow(start, end time.Time, loc *time.Location) string {
	return start.In(loc).Format("01/02/2006 03:04 PM") + " - " + end.In(loc).Format("03:04 PM")
}

// searchWindow returns the buffered [start, end] range around a booking date.
func searchWindow(date time.Time) (time.Time, time.Time) {
	return date.AddDate(0, 0, -searchBufferDays), date.AddDate(0, 0, searchBufferDays)
}
