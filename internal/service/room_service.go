package service

import (
	"context"
	"fmt"
	"time"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	"github.com/diagnosis/hotel-bookings/internal/repo/postgres"
	"github.com/diagnosis/hotel-bookings/pkg/logger"
)

type RoomService interface {
	Create(ctx context.Context, actor domain.Actor, req *domain.CreateRoomRequest) (*domain.Room, error)
	Get(ctx context.Context, id int64) (*domain.Room, error)
	Search(ctx context.Context, s domain.RoomSearch) ([]domain.Room, error)
	Update(ctx context.Context, actor domain.Actor, id int64, req *domain.UpdateRoomRequest) (*domain.Room, error)
	Delete(ctx context.Context, actor domain.Actor, id int64) error
	Availability(ctx context.Context, id int64, stay domain.Stay) (*domain.Availability, error)
	RefreshStatus(ctx context.Context, id int64) error
}

type roomService struct {
	rooms    postgres.RoomRepo
	bookings postgres.BookingRepo
	now      func() time.Time
}

func NewRoomService(rooms postgres.RoomRepo, bookings postgres.BookingRepo) RoomService {
	return &roomService{rooms: rooms, bookings: bookings, now: time.Now}
}

func (s *roomService) Create(ctx context.Context, actor domain.Actor, req *domain.CreateRoomRequest) (*domain.Room, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	rm, err := s.rooms.Create(ctx, &domain.Room{
		RoomNumber:   req.RoomNumber,
		RoomType:     req.RoomType,
		NightlyPrice: req.NightlyPrice.Round(2),
		Capacity:     req.Capacity,
		Amenities:    req.Amenities,
		Photos:       req.Photos,
		Status:       req.Status,
	})
	if err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}
	logger.InfoContext(ctx, "Room created", "room_id", rm.ID, "room_number", rm.RoomNumber)
	return rm, nil
}

func (s *roomService) Get(ctx context.Context, id int64) (*domain.Room, error) {
	rm, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	if rm == nil {
		return nil, domain.ErrNotFound
	}
	return rm, nil
}

func (s *roomService) Search(ctx context.Context, q domain.RoomSearch) ([]domain.Room, error) {
	v := &domain.ValidationError{}
	if q.Stay != nil {
		if err := q.Stay.Validate(); err != nil {
			return nil, err
		}
	}
	if q.Guests < 0 {
		v.Add("guests", "must not be negative")
	}
	if q.Status != nil {
		if _, ok := domain.ParseRoomStatus(string(*q.Status)); !ok {
			v.Add("status", "must be available, occupied or maintenance")
		}
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}
	return s.rooms.Search(ctx, q)
}

func (s *roomService) Update(ctx context.Context, actor domain.Actor, id int64, req *domain.UpdateRoomRequest) (*domain.Room, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	rm, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.RoomNumber != nil {
		rm.RoomNumber = *req.RoomNumber
	}
	if req.RoomType != nil {
		rm.RoomType = *req.RoomType
	}
	if req.NightlyPrice != nil {
		rm.NightlyPrice = req.NightlyPrice.Round(2)
	}
	if req.Capacity != nil {
		rm.Capacity = *req.Capacity
	}
	if req.Amenities != nil {
		rm.Amenities = req.Amenities
	}
	if req.Photos != nil {
		rm.Photos = req.Photos
	}
	rederive := false
	if req.Status != nil {
		rederive = *req.Status != domain.RoomMaintenance
		rm.Status = *req.Status
	}

	updated, err := s.rooms.Update(ctx, rm)
	if err != nil {
		return nil, fmt.Errorf("update room: %w", err)
	}
	if updated == nil {
		return nil, domain.ErrNotFound
	}

	// An admin can only pick available or maintenance; occupancy is derived.
	if rederive {
		if err := s.RefreshStatus(ctx, id); err != nil {
			logger.WarnContext(ctx, "Failed to refresh room status", "room_id", id, "error", err)
		} else if fresh, err := s.rooms.GetByID(ctx, id); err == nil && fresh != nil {
			updated = fresh
		}
	}
	return updated, nil
}

func (s *roomService) Delete(ctx context.Context, actor domain.Actor, id int64) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	ok, err := s.rooms.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete room %d: %w", id, err)
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}

func (s *roomService) Availability(ctx context.Context, id int64, stay domain.Stay) (*domain.Availability, error) {
	if err := stay.Validate(); err != nil {
		return nil, err
	}
	rm, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	out := &domain.Availability{
		RoomID:     rm.ID,
		CheckIn:    stay.CheckIn,
		CheckOut:   stay.CheckOut,
		Nights:     stay.Nights(),
		TotalPrice: domain.TotalPrice(rm.NightlyPrice, stay),
		Available:  true,
	}
	if !rm.Bookable() {
		out.Available = false
		out.Reason = "room is under maintenance"
		return out, nil
	}
	taken, err := s.bookings.HasOverlap(ctx, rm.ID, stay, 0)
	if err != nil {
		return nil, fmt.Errorf("check availability: %w", err)
	}
	if taken {
		out.Available = false
		out.Reason = "room is booked for part of the requested dates"
	}
	return out, nil
}

// RefreshStatus recomputes the derived status from today's confirmed stays.
func (s *roomService) RefreshStatus(ctx context.Context, id int64) error {
	rm, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rm == nil {
		return domain.ErrNotFound
	}
	occupied, err := s.rooms.OccupiedOn(ctx, id, domain.DateOf(s.now().UTC()))
	if err != nil {
		return err
	}
	next := domain.DerivedStatus(rm.Status, occupied)
	if next == rm.Status {
		return nil
	}
	if _, err := s.rooms.SetStatus(ctx, id, rm.Status, next); err != nil {
		return err
	}
	logger.DebugContext(ctx, "Room status refreshed", "room_id", id, "from", rm.Status, "to", next)
	return nil
}
