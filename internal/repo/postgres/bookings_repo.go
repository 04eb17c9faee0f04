package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepo interface {
	Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	List(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, error)
	HasOverlap(ctx context.Context, roomID int64, stay domain.Stay, excludeID int64) (bool, error)
	Update(ctx context.Context, b *domain.Booking, recheck bool) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, from, to domain.BookingStatus, reason *string, at *time.Time) (*domain.Booking, error)
	CompleteElapsed(ctx context.Context, today domain.Date) ([]domain.Booking, error)
}

type BookingRepoImpl struct{ pool *pgxpool.Pool }

func NewBookingRepo(pool *pgxpool.Pool) *BookingRepoImpl { return &BookingRepoImpl{pool: pool} }

const bookingCols = `id, user_id, room_id,
check_in_date, check_out_date, guest_count,
total_price, status, special_requests,
cancellation_reason, cancelled_at, created_at, updated_at`

// Active statuses hold the room; keep in sync with domain.BookingStatus.HoldsRoom.
const overlapExists = `SELECT EXISTS (
  SELECT 1 FROM bookings
  WHERE room_id = $1
    AND status IN ('pending','confirmed')
    AND check_in_date < $3
    AND check_out_date > $2
    AND id <> $4
)`

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID, &b.UserID, &b.RoomID,
		&b.CheckIn.Time, &b.CheckOut.Time, &b.GuestCount,
		&b.TotalPrice, &b.Status, &b.SpecialRequests,
		&b.CancellationReason, &b.CancelledAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.CheckIn = domain.DateOf(b.CheckIn.Time)
	b.CheckOut = domain.DateOf(b.CheckOut.Time)
	return &b, nil
}

// lockRoomForStay takes a row lock on the room and then re-checks overlap so
// two writers racing for the same dates serialize on the room.
func lockRoomForStay(ctx context.Context, tx pgx.Tx, roomID int64, stay domain.Stay, excludeID int64) error {
	var status domain.RoomStatus
	err := tx.QueryRow(ctx, `SELECT status FROM rooms WHERE id=$1 FOR UPDATE`, roomID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("room %d: %w", roomID, domain.ErrNotFound)
	}
	if err != nil {
		return err
	}
	if status == domain.RoomMaintenance {
		return fmt.Errorf("room %d under maintenance: %w", roomID, domain.ErrRoomUnavailable)
	}

	var taken bool
	if err := tx.QueryRow(ctx, overlapExists, roomID, stay.CheckIn.Time, stay.CheckOut.Time, excludeID).Scan(&taken); err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("room %d %s..%s: %w", roomID, stay.CheckIn, stay.CheckOut, domain.ErrRoomUnavailable)
	}
	return nil
}

func (r *BookingRepoImpl) Create(ctx context.Context, in *domain.Booking) (*domain.Booking, error) {
	const q = `INSERT INTO bookings (
    user_id, room_id, check_in_date, check_out_date,
    guest_count, total_price, status, special_requests
  ) VALUES ($1,$2,$3,$4,$5,$6,'pending',$7)
  RETURNING ` + bookingCols

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var out *domain.Booking
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockRoomForStay(ctx, tx, in.RoomID, in.Stay(), 0); err != nil {
			return err
		}
		b, err := scanBooking(tx.QueryRow(ctx, q,
			in.UserID, in.RoomID, in.CheckIn.Time, in.CheckOut.Time,
			in.GuestCount, in.TotalPrice, in.SpecialRequests,
		))
		if err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (r *BookingRepoImpl) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id=$1`
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

func (r *BookingRepoImpl) List(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, error) {
	limit, offset := clampPage(f.Limit, f.Offset)
	const q = `SELECT ` + bookingCols + ` FROM bookings
WHERE ($1::bigint IS NULL OR user_id = $1)
  AND ($2::bigint IS NULL OR room_id = $2)
  AND ($3::text IS NULL OR status = $3)
ORDER BY check_in_date DESC, id DESC
LIMIT $4 OFFSET $5`

	var status *string
	if f.Status != nil {
		s := string(*f.Status)
		status = &s
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, f.UserID, f.RoomID, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bs := make([]domain.Booking, 0, limit)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bs = append(bs, *b)
	}
	return bs, rows.Err()
}

func (r *BookingRepoImpl) HasOverlap(ctx context.Context, roomID int64, stay domain.Stay, excludeID int64) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	var taken bool
	err := r.pool.QueryRow(ctx, overlapExists, roomID, stay.CheckIn.Time, stay.CheckOut.Time, excludeID).Scan(&taken)
	return taken, err
}

// Update writes dates, party size, requests and price. With recheck the room
// is locked and availability re-verified first. Only pending or confirmed
// bookings are touched; one that went terminal concurrently is ErrConflict.
func (r *BookingRepoImpl) Update(ctx context.Context, in *domain.Booking, recheck bool) (*domain.Booking, error) {
	const q = `UPDATE bookings SET
    check_in_date=$2, check_out_date=$3, guest_count=$4,
    special_requests=$5, total_price=$6, updated_at=now()
  WHERE id=$1 AND status IN ('pending','confirmed')
  RETURNING ` + bookingCols

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var out *domain.Booking
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if recheck {
			if err := lockRoomForStay(ctx, tx, in.RoomID, in.Stay(), in.ID); err != nil {
				return err
			}
		}
		b, err := scanBooking(tx.QueryRow(ctx, q,
			in.ID, in.CheckIn.Time, in.CheckOut.Time, in.GuestCount,
			in.SpecialRequests, in.TotalPrice,
		))
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("booking %d is no longer active: %w", in.ID, domain.ErrConflict)
		}
		if err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// UpdateStatus moves a booking from one status to another. It returns nil
// when the booking is not in the expected status anymore.
func (r *BookingRepoImpl) UpdateStatus(ctx context.Context, id int64, from, to domain.BookingStatus, reason *string, at *time.Time) (*domain.Booking, error) {
	const q = `UPDATE bookings SET
    status=$3,
    cancellation_reason=COALESCE($4, cancellation_reason),
    cancelled_at=COALESCE($5, cancelled_at),
    updated_at=now()
  WHERE id=$1 AND status=$2
  RETURNING ` + bookingCols

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, id, from, to, reason, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return b, nil
}

func (r *BookingRepoImpl) CompleteElapsed(ctx context.Context, today domain.Date) ([]domain.Booking, error) {
	const q = `UPDATE bookings SET status='completed', updated_at=now()
  WHERE status='confirmed' AND check_out_date <= $1
  RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, today.Time)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bs []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bs = append(bs, *b)
	}
	return bs, rows.Err()
}
