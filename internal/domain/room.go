package domain

import (
	"strings"
	"time"

	"github.com/diagnosis/hotel-bookings/internal/utils"
	"github.com/shopspring/decimal"
)

type RoomStatus string

const (
	RoomAvailable   RoomStatus = "available"
	RoomOccupied    RoomStatus = "occupied"
	RoomMaintenance RoomStatus = "maintenance"
)

func ParseRoomStatus(s string) (RoomStatus, bool) {
	switch RoomStatus(strings.ToLower(strings.TrimSpace(s))) {
	case RoomAvailable, RoomOccupied, RoomMaintenance:
		return RoomStatus(strings.ToLower(strings.TrimSpace(s))), true
	default:
		return "", false
	}
}

type Room struct {
	ID           int64           `json:"id"`
	RoomNumber   string          `json:"room_number"`
	RoomType     string          `json:"room_type"`
	NightlyPrice decimal.Decimal `json:"nightly_price"`
	Capacity     int             `json:"capacity"`
	Amenities    []string        `json:"amenities"`
	Status       RoomStatus      `json:"status"`
	Photos       []string        `json:"photos"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Bookable reports whether the room can take new reservations at all.
func (r *Room) Bookable() bool { return r.Status != RoomMaintenance }

// DerivedStatus is the status a room should show given whether a confirmed
// booking covers today. Maintenance is only ever set or cleared by an admin.
func DerivedStatus(current RoomStatus, occupiedToday bool) RoomStatus {
	if current == RoomMaintenance {
		return RoomMaintenance
	}
	if occupiedToday {
		return RoomOccupied
	}
	return RoomAvailable
}

type CreateRoomRequest struct {
	RoomNumber   string          `json:"room_number"`
	RoomType     string          `json:"room_type"`
	NightlyPrice decimal.Decimal `json:"nightly_price"`
	Capacity     int             `json:"capacity"`
	Amenities    []string        `json:"amenities,omitempty"`
	Photos       []string        `json:"photos,omitempty"`
	Status       RoomStatus      `json:"status,omitempty"`
}

func (r *CreateRoomRequest) Normalize() {
	r.RoomNumber = utils.NormalizeString(r.RoomNumber)
	r.RoomType = utils.NormalizeKeyword(r.RoomType)
	r.Amenities = utils.NormalizeList(r.Amenities)
	r.Photos = utils.NormalizeList(r.Photos)
	if r.Status == "" {
		r.Status = RoomAvailable
	}
}

func (r *CreateRoomRequest) Validate() error {
	v := &ValidationError{}
	if r.RoomNumber == "" {
		v.Add("room_number", "is required")
	}
	if r.RoomType == "" {
		v.Add("room_type", "is required")
	}
	if !r.NightlyPrice.IsPositive() {
		v.Add("nightly_price", "must be greater than zero")
	}
	if r.Capacity < 1 {
		v.Add("capacity", "must be at least 1")
	}
	if r.Status == RoomOccupied {
		v.Add("status", "occupied is derived from bookings")
	} else if _, ok := ParseRoomStatus(string(r.Status)); !ok {
		v.Add("status", "must be available or maintenance")
	}
	return v.OrNil()
}

type UpdateRoomRequest struct {
	RoomNumber   *string          `json:"room_number,omitempty"`
	RoomType     *string          `json:"room_type,omitempty"`
	NightlyPrice *decimal.Decimal `json:"nightly_price,omitempty"`
	Capacity     *int             `json:"capacity,omitempty"`
	Amenities    []string         `json:"amenities,omitempty"`
	Photos       []string         `json:"photos,omitempty"`
	Status       *RoomStatus      `json:"status,omitempty"`
}

func (r *UpdateRoomRequest) Validate() error {
	v := &ValidationError{}
	if r.RoomNumber != nil {
		n := utils.NormalizeString(*r.RoomNumber)
		if n == "" {
			v.Add("room_number", "must not be empty")
		}
		r.RoomNumber = &n
	}
	if r.RoomType != nil {
		t := utils.NormalizeKeyword(*r.RoomType)
		if t == "" {
			v.Add("room_type", "must not be empty")
		}
		r.RoomType = &t
	}
	if r.NightlyPrice != nil && !r.NightlyPrice.IsPositive() {
		v.Add("nightly_price", "must be greater than zero")
	}
	if r.Capacity != nil && *r.Capacity < 1 {
		v.Add("capacity", "must be at least 1")
	}
	if r.Amenities != nil {
		r.Amenities = utils.NormalizeList(r.Amenities)
	}
	if r.Photos != nil {
		r.Photos = utils.NormalizeList(r.Photos)
	}
	if r.Status != nil {
		st, ok := ParseRoomStatus(string(*r.Status))
		switch {
		case !ok:
			v.Add("status", "must be available or maintenance")
		case st == RoomOccupied:
			v.Add("status", "occupied is derived from bookings")
		default:
			r.Status = &st
		}
	}
	return v.OrNil()
}

// RoomSearch filters the room list. When Stay is set only rooms free for the
// whole stay are returned.
type RoomSearch struct {
	Stay     *Stay
	Guests   int
	RoomType string
	Status   *RoomStatus
	Limit    int
	Offset   int
}

type Availability struct {
	RoomID     int64           `json:"room_id"`
	CheckIn    Date            `json:"check_in_date"`
	CheckOut   Date            `json:"check_out_date"`
	Available  bool            `json:"available"`
	Reason     string          `json:"reason,omitempty"`
	Nights     int             `json:"nights"`
	TotalPrice decimal.Decimal `json:"total_price"`
}
