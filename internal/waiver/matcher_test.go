package waiver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cte-escapes/waiver-backend/internal/bookeo"
)

func sampleBookings() []bookeo.Booking {
	return []bookeo.Booking{
		{
			BookingNumber: "BK1",
			StartTime:     time.Date(2025, 3, 1, 19, 0, 0, 0, time.UTC),
			EndTime:       time.Date(2025, 3, 1, 20, 30, 0, 0, time.UTC),
			ProductName:   "The Vault",
			Participants: bookeo.Participants{Details: []bookeo.ParticipantDetail{
				{PersonDetails: &bookeo.Person{
					ID: "C9", CustomerID: "C9",
					FirstName: "Alice", LastName: "Nguyen",
				}},
				{PersonDetails: &bookeo.Person{
					ID: "P3", CustomerID: "C9",
					FirstName: "Bob", LastName: "Nguyen",
				}},
				{PersonDetails: nil},
			}},
		},
	}
}

func TestMatchParticipantCustomer(t *testing.T) {
	m, ok := matchParticipant(sampleBookings(), "alice", "NGUYEN", time.UTC)

	require.True(t, ok)
	assert.Equal(t, "C9", m.CustomerID)
	assert.Equal(t, "C9", m.PersonID)
	assert.False(t, m.IsParticipant)
	assert.Equal(t, "BK1", m.BookingNumber)
	assert.Equal(t, "The Vault", m.ProductName)
	assert.Equal(t, "03/01/2025 07:00 PM - 08:30 PM", m.BookingDate)
}

func TestMatchParticipantLinkedPerson(t *testing.T) {
	m, ok := matchParticipant(sampleBookings(), "Bob", "Nguyen", time.UTC)

	require.True(t, ok)
	assert.Equal(t, "C9", m.CustomerID)
	assert.Equal(t, "P3", m.PersonID)
	assert.True(t, m.IsParticipant)
}

func TestMatchParticipantNoMatch(t *testing.T) {
	_, ok := matchParticipant(sampleBookings(), "Carol", "Nguyen", time.UTC)
	assert.False(t, ok)

	_, ok = matchParticipant(nil, "Alice", "Nguyen", time.UTC)
	assert.False(t, ok)
}

func TestFormatBookingWindowTimezone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	start := time.Date(2025, 3, 1, 19, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 1, 20, 30, 0, 0, time.UTC)

	// 19:00 UTC is 14:00 EST.
	assert.Equal(t, "03/01/2025 02:00 PM - 03:30 PM", formatBookingWindow(start, end, loc))
}

func TestSearchWindow(t *testing.T) {
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	start, end := searchWindow(date)

	assert.Equal(t, time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), end)
}
