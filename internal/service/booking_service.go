package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	"github.com/diagnosis/hotel-bookings/internal/repo/postgres"
	"github.com/diagnosis/hotel-bookings/pkg/events"
	"github.com/diagnosis/hotel-bookings/pkg/logger"
	"github.com/diagnosis/hotel-bookings/pkg/metrics"
)

type BookingService interface {
	Create(ctx context.Context, actor domain.Actor, req *domain.CreateBookingRequest) (*domain.Booking, error)
	Get(ctx context.Context, actor domain.Actor, id int64) (*domain.Booking, error)
	List(ctx context.Context, actor domain.Actor, f domain.BookingFilter) ([]domain.Booking, error)
	Update(ctx context.Context, actor domain.Actor, id int64, req *domain.UpdateBookingRequest) (*domain.Booking, error)
	Cancel(ctx context.Context, actor domain.Actor, id int64, req *domain.CancelBookingRequest) (*domain.Booking, error)
	ChangeStatus(ctx context.Context, actor domain.Actor, id int64, req *domain.StatusChangeRequest) (*domain.Booking, error)
	CompleteElapsed(ctx context.Context) ([]domain.Booking, error)
	Export(ctx context.Context, actor domain.Actor, f domain.BookingFilter) ([]domain.Booking, error)
}

type cancellationRefunder interface {
	RefundCancelled(ctx context.Context, b *domain.Booking, byAdmin bool) (*domain.Payment, error)
}

type bookingService struct {
	bookings  postgres.BookingRepo
	rooms     postgres.RoomRepo
	roomSvc   roomRefresher
	refunds   cancellationRefunder
	bus       events.Publisher
	maxGuests int
	now       func() time.Time
}

func NewBookingService(
	bookings postgres.BookingRepo,
	rooms postgres.RoomRepo,
	roomSvc roomRefresher,
	refunds cancellationRefunder,
	bus events.Publisher,
	maxGuests int,
) BookingService {
	return &bookingService{
		bookings:  bookings,
		rooms:     rooms,
		roomSvc:   roomSvc,
		refunds:   refunds,
		bus:       bus,
		maxGuests: maxGuests,
		now:       time.Now,
	}
}

func (s *bookingService) Create(ctx context.Context, actor domain.Actor, req *domain.CreateBookingRequest) (*domain.Booking, error) {
	req.Normalize()
	if err := req.Validate(s.maxGuests); err != nil {
		return nil, err
	}

	userID := actor.UserID
	if req.UserID != nil && *req.UserID != actor.UserID {
		if !actor.IsAdmin() {
			return nil, fmt.Errorf("user_id may only be set by admins: %w", domain.ErrForbidden)
		}
		userID = *req.UserID
	}
	if req.TotalPriceOverride != nil && !actor.IsAdmin() {
		return nil, fmt.Errorf("total_price_override may only be set by admins: %w", domain.ErrForbidden)
	}

	room, err := s.rooms.GetByID(ctx, req.RoomID)
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	if room == nil {
		return nil, fmt.Errorf("room %d: %w", req.RoomID, domain.ErrNotFound)
	}
	if req.GuestCount > room.Capacity {
		return nil, domain.NewValidationError("guest_count", fmt.Sprintf("exceeds room capacity of %d", room.Capacity))
	}
	if !room.Bookable() {
		return nil, fmt.Errorf("room %d under maintenance: %w", room.ID, domain.ErrRoomUnavailable)
	}

	stay := req.Stay()
	taken, err := s.bookings.HasOverlap(ctx, room.ID, stay, 0)
	if err != nil {
		return nil, fmt.Errorf("check availability: %w", err)
	}
	if taken {
		metrics.BookingConflicts.Inc()
		return nil, domain.ErrRoomUnavailable
	}

	total, err := domain.Quote(room.NightlyPrice, stay, req.TotalPriceOverride)
	if err != nil {
		return nil, err
	}

	b, err := s.bookings.Create(ctx, &domain.Booking{
		UserID:          userID,
		RoomID:          room.ID,
		CheckIn:         stay.CheckIn,
		CheckOut:        stay.CheckOut,
		GuestCount:      req.GuestCount,
		TotalPrice:      total,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		if errors.Is(err, domain.ErrRoomUnavailable) {
			metrics.BookingConflicts.Inc()
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	metrics.BookingStatus(string(domain.BookingPending))
	logger.InfoContext(ctx, "Booking created",
		"booking_id", b.ID, "room_id", b.RoomID, "user_id", b.UserID,
		"check_in", b.CheckIn.String(), "check_out", b.CheckOut.String())
	publishBooking(ctx, s.bus, events.BookingCreated, b, "")
	return b, nil
}

func (s *bookingService) Get(ctx context.Context, actor domain.Actor, id int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if b == nil {
		return nil, domain.ErrNotFound
	}
	if !actor.CanAccess(b.UserID) {
		return nil, domain.ErrForbidden
	}
	return b, nil
}

func (s *bookingService) List(ctx context.Context, actor domain.Actor, f domain.BookingFilter) ([]domain.Booking, error) {
	if !actor.IsAdmin() {
		f.UserID = &actor.UserID
	}
	return s.bookings.List(ctx, f)
}

func (s *bookingService) Update(ctx context.Context, actor domain.Actor, id int64, req *domain.UpdateBookingRequest) (*domain.Booking, error) {
	if req.TotalPriceOverride != nil && !actor.IsAdmin() {
		return nil, fmt.Errorf("total_price_override may only be set by admins: %w", domain.ErrForbidden)
	}
	current, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if current.Status.IsTerminal() {
		return nil, fmt.Errorf("booking %d is %s: %w", id, current.Status, domain.ErrConflict)
	}
	if req.Reschedules() && current.Status != domain.BookingPending {
		return nil, domain.NewValidationError("check_in_date", "dates can only be changed while the booking is pending")
	}

	next, err := req.Apply(*current, s.maxGuests)
	if err != nil {
		return nil, err
	}

	room, err := s.rooms.GetByID(ctx, current.RoomID)
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	if room == nil {
		return nil, fmt.Errorf("room %d: %w", current.RoomID, domain.ErrNotFound)
	}
	if next.GuestCount > room.Capacity {
		return nil, domain.NewValidationError("guest_count", fmt.Sprintf("exceeds room capacity of %d", room.Capacity))
	}

	if req.Reschedules() {
		taken, err := s.bookings.HasOverlap(ctx, room.ID, next.Stay(), current.ID)
		if err != nil {
			return nil, fmt.Errorf("check availability: %w", err)
		}
		if taken {
			metrics.BookingConflicts.Inc()
			return nil, domain.ErrRoomUnavailable
		}
	}
	if req.Reschedules() || req.TotalPriceOverride != nil {
		next.TotalPrice, err = domain.Quote(room.NightlyPrice, next.Stay(), req.TotalPriceOverride)
		if err != nil {
			return nil, err
		}
	}

	updated, err := s.bookings.Update(ctx, &next, req.Reschedules())
	if err != nil {
		if errors.Is(err, domain.ErrRoomUnavailable) {
			metrics.BookingConflicts.Inc()
		}
		return nil, fmt.Errorf("update booking: %w", err)
	}
	logger.InfoContext(ctx, "Booking updated", "booking_id", id, "rescheduled", req.Reschedules())
	publishBooking(ctx, s.bus, events.BookingUpdated, updated, "")
	return updated, nil
}

func (s *bookingService) Cancel(ctx context.Context, actor domain.Actor, id int64, req *domain.CancelBookingRequest) (*domain.Booking, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	b, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, b, domain.BookingCancelled, req.Reason)
}

func (s *bookingService) ChangeStatus(ctx context.Context, actor domain.Actor, id int64, req *domain.StatusChangeRequest) (*domain.Booking, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	b, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, b, req.Status, req.Reason)
}

// transition applies one lifecycle move with a conditional write, then runs
// the side effects: refund on cancelling a confirmed stay, room status, event.
func (s *bookingService) transition(ctx context.Context, actor domain.Actor, b *domain.Booking, to domain.BookingStatus, reason string) (*domain.Booking, error) {
	from := b.Status
	next := *b
	if err := next.Transition(to, reason, s.now().UTC()); err != nil {
		return nil, err
	}

	var cancelReason *string
	var cancelledAt *time.Time
	if to == domain.BookingCancelled {
		cancelReason, cancelledAt = next.CancellationReason, next.CancelledAt
	}
	updated, err := s.bookings.UpdateStatus(ctx, b.ID, from, to, cancelReason, cancelledAt)
	if err != nil {
		return nil, fmt.Errorf("update booking status: %w", err)
	}
	if updated == nil {
		return nil, fmt.Errorf("booking %d changed concurrently: %w", b.ID, domain.ErrConflict)
	}
	metrics.BookingStatus(string(to))
	logger.InfoContext(ctx, "Booking status changed",
		"booking_id", b.ID, "from", from, "to", to, "by", actor.UserID)

	if to == domain.BookingCancelled && from == domain.BookingConfirmed && s.refunds != nil {
		if _, err := s.refunds.RefundCancelled(ctx, updated, actor.IsAdmin()); err != nil {
			logger.ErrorContext(ctx, "Refund after cancellation failed", "booking_id", b.ID, "error", err)
		}
	}
	if err := s.roomSvc.RefreshStatus(ctx, updated.RoomID); err != nil {
		logger.WarnContext(ctx, "Failed to refresh room status", "room_id", updated.RoomID, "error", err)
	}

	publishBooking(ctx, s.bus, statusSubject(to), updated, reason)
	return updated, nil
}

func statusSubject(st domain.BookingStatus) string {
	switch st {
	case domain.BookingConfirmed:
		return events.BookingConfirmed
	case domain.BookingCancelled:
		return events.BookingCancelled
	case domain.BookingCompleted:
		return events.BookingCompleted
	default:
		return events.BookingUpdated
	}
}

// CompleteElapsed completes every confirmed booking whose check-out day has
// arrived.
func (s *bookingService) CompleteElapsed(ctx context.Context) ([]domain.Booking, error) {
	today := domain.DateOf(s.now().UTC())
	done, err := s.bookings.CompleteElapsed(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("complete elapsed bookings: %w", err)
	}

	refreshed := make(map[int64]bool)
	for i := range done {
		b := &done[i]
		metrics.BookingStatus(string(domain.BookingCompleted))
		if !refreshed[b.RoomID] {
			refreshed[b.RoomID] = true
			if err := s.roomSvc.RefreshStatus(ctx, b.RoomID); err != nil {
				logger.WarnContext(ctx, "Failed to refresh room status", "room_id", b.RoomID, "error", err)
			}
		}
		publishBooking(ctx, s.bus, events.BookingCompleted, b, "")
	}
	logger.InfoContext(ctx, "Completed elapsed bookings", "count", len(done), "as_of", today.String())
	return done, nil
}

const exportPageSize = 100

// Export pages through every booking matching f for the admin report.
func (s *bookingService) Export(ctx context.Context, actor domain.Actor, f domain.BookingFilter) ([]domain.Booking, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	var all []domain.Booking
	f.Limit, f.Offset = exportPageSize, 0
	for {
		page, err := s.bookings.List(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("export bookings: %w", err)
		}
		all = append(all, page...)
		if len(page) < exportPageSize {
			return all, nil
		}
		f.Offset += exportPageSize
	}
}
