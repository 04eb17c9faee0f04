package domain

import (
	"fmt"
	"time"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCompleted, BookingCancelled},
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// Same-state moves are not transitions.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s BookingStatus) IsTerminal() bool {
	return s == BookingCancelled || s == BookingCompleted
}

// HoldsRoom reports whether a booking in this status blocks the room.
func (s BookingStatus) HoldsRoom() bool {
	return s == BookingPending || s == BookingConfirmed
}

func CheckTransition(from, to BookingStatus) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// Transition moves b to next, recording the cancellation reason and time when
// cancelling. A stay completes only once its check-out day has arrived. b is
// left untouched when the move is not allowed.
func (b *Booking) Transition(next BookingStatus, reason string, now time.Time) error {
	if err := CheckTransition(b.Status, next); err != nil {
		return err
	}
	if next == BookingCompleted && b.CheckOut.After(DateOf(now).Time) {
		return fmt.Errorf("%w: stay runs until %s", ErrInvalidTransition, b.CheckOut)
	}
	b.Status = next
	b.UpdatedAt = now
	if next == BookingCancelled {
		at := now
		b.CancelledAt = &at
		if reason != "" {
			r := reason
			b.CancellationReason = &r
		}
	}
	return nil
}
