package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingStatus_CanTransitionTo(t *testing.T) {
	allowed := map[BookingStatus][]BookingStatus{
		BookingPending:   {BookingConfirmed, BookingCancelled},
		BookingConfirmed: {BookingCompleted, BookingCancelled},
	}
	all := []BookingStatus{BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestCheckTransition_CancelledToConfirmed(t *testing.T) {
	err := CheckTransition(BookingCancelled, BookingConfirmed)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestBooking_Transition(t *testing.T) {
	now := time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)

	b := &Booking{Status: BookingConfirmed}
	require.NoError(t, b.Transition(BookingCancelled, "plans changed", now))
	assert.Equal(t, BookingCancelled, b.Status)
	require.NotNil(t, b.CancellationReason)
	assert.Equal(t, "plans changed", *b.CancellationReason)
	require.NotNil(t, b.CancelledAt)
	assert.Equal(t, now, *b.CancelledAt)
}

func TestBooking_Transition_CompletedCannotBeCancelled(t *testing.T) {
	b := &Booking{Status: BookingCompleted}
	err := b.Transition(BookingCancelled, "too late", time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, BookingCompleted, b.Status)
	assert.Nil(t, b.CancelledAt)
	assert.Nil(t, b.CancellationReason)
}

func TestBooking_Transition_CompleteWaitsForCheckOut(t *testing.T) {
	now := time.Date(2025, time.June, 11, 23, 0, 0, 0, time.UTC)
	stay := func() *Booking {
		return &Booking{Status: BookingConfirmed, CheckIn: NewDate(2025, time.June, 10), CheckOut: NewDate(2025, time.June, 12)}
	}

	b := stay()
	err := b.Transition(BookingCompleted, "", now)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, BookingConfirmed, b.Status)

	b = stay()
	require.NoError(t, b.Transition(BookingCompleted, "", now.Add(time.Hour)))
	assert.Equal(t, BookingCompleted, b.Status)

	b = stay()
	require.NoError(t, b.Transition(BookingCancelled, "", now))
}

func TestBookingStatus_HoldsRoom(t *testing.T) {
	assert.True(t, BookingPending.HoldsRoom())
	assert.True(t, BookingConfirmed.HoldsRoom())
	assert.False(t, BookingCancelled.HoldsRoom())
	assert.False(t, BookingCompleted.HoldsRoom())
	assert.True(t, BookingCancelled.IsTerminal())
	assert.True(t, BookingCompleted.IsTerminal())
}

func TestParseBookingStatus(t *testing.T) {
	st, ok := ParseBookingStatus(" Confirmed ")
	assert.True(t, ok)
	assert.Equal(t, BookingConfirmed, st)

	_, ok = ParseBookingStatus("canceled")
	assert.False(t, ok)
}
