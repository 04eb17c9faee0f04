package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RoomRepo interface {
	Create(ctx context.Context, rm *domain.Room) (*domain.Room, error)
	GetByID(ctx context.Context, id int64) (*domain.Room, error)
	Search(ctx context.Context, s domain.RoomSearch) ([]domain.Room, error)
	Update(ctx context.Context, rm *domain.Room) (*domain.Room, error)
	Delete(ctx context.Context, id int64) (bool, error)
	OccupiedOn(ctx context.Context, roomID int64, day domain.Date) (bool, error)
	SetStatus(ctx context.Context, id int64, from, to domain.RoomStatus) (bool, error)
}

type RoomRepoImpl struct{ pool *pgxpool.Pool }

func NewRoomRepo(pool *pgxpool.Pool) *RoomRepoImpl { return &RoomRepoImpl{pool: pool} }

const roomCols = `id, room_number, room_type, nightly_price, capacity,
amenities, status, photos, created_at, updated_at`

func scanRoom(row rowScanner) (*domain.Room, error) {
	var rm domain.Room
	if err := row.Scan(
		&rm.ID, &rm.RoomNumber, &rm.RoomType, &rm.NightlyPrice, &rm.Capacity,
		&rm.Amenities, &rm.Status, &rm.Photos, &rm.CreatedAt, &rm.UpdatedAt,
	); err != nil {
		return nil, err
	}
	rm.Amenities = nonNil(rm.Amenities)
	rm.Photos = nonNil(rm.Photos)
	return &rm, nil
}

func (r *RoomRepoImpl) Create(ctx context.Context, in *domain.Room) (*domain.Room, error) {
	const q = `INSERT INTO rooms (
    room_number, room_type, nightly_price, capacity, amenities, status, photos
  ) VALUES ($1,$2,$3,$4,$5,$6,$7)
  RETURNING ` + roomCols

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rm, err := scanRoom(r.pool.QueryRow(ctx, q,
		in.RoomNumber, in.RoomType, in.NightlyPrice, in.Capacity,
		nonNil(in.Amenities), in.Status, nonNil(in.Photos),
	))
	if err != nil {
		return nil, translate(err)
	}
	return rm, nil
}

func (r *RoomRepoImpl) GetByID(ctx context.Context, id int64) (*domain.Room, error) {
	const q = `SELECT ` + roomCols + ` FROM rooms WHERE id=$1`
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rm, err := scanRoom(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return rm, err
}

// Search lists rooms matching the filters. With a stay, rooms under
// maintenance or holding an overlapping active booking are excluded.
func (r *RoomRepoImpl) Search(ctx context.Context, s domain.RoomSearch) ([]domain.Room, error) {
	limit, offset := clampPage(s.Limit, s.Offset)
	const q = `SELECT ` + roomCols + ` FROM rooms rm
WHERE ($1::text = '' OR rm.room_type = $1)
  AND ($2::int = 0 OR rm.capacity >= $2)
  AND ($3::text IS NULL OR rm.status = $3)
  AND ($4::date IS NULL OR (
        rm.status <> 'maintenance'
    AND NOT EXISTS (
        SELECT 1 FROM bookings b
        WHERE b.room_id = rm.id
          AND b.status IN ('pending','confirmed')
          AND b.check_in_date < $5::date
          AND b.check_out_date > $4::date)))
ORDER BY rm.room_number
LIMIT $6 OFFSET $7`

	var (
		status        *string
		checkIn, cout *time.Time
	)
	if s.Status != nil {
		st := string(*s.Status)
		status = &st
	}
	if s.Stay != nil {
		in, out := s.Stay.CheckIn.Time, s.Stay.CheckOut.Time
		checkIn, cout = &in, &out
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, s.RoomType, s.Guests, status, checkIn, cout, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := make([]domain.Room, 0, limit)
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, *rm)
	}
	return rooms, rows.Err()
}

func (r *RoomRepoImpl) Update(ctx context.Context, in *domain.Room) (*domain.Room, error) {
	const q = `UPDATE rooms SET
    room_number=$2, room_type=$3, nightly_price=$4, capacity=$5,
    amenities=$6, status=$7, photos=$8, updated_at=now()
  WHERE id=$1
  RETURNING ` + roomCols

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rm, err := scanRoom(r.pool.QueryRow(ctx, q,
		in.ID, in.RoomNumber, in.RoomType, in.NightlyPrice, in.Capacity,
		nonNil(in.Amenities), in.Status, nonNil(in.Photos),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return rm, nil
}

// Delete removes a room. Rooms still referenced by bookings are protected by
// the foreign key and surface as ErrConflict.
func (r *RoomRepoImpl) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	ct, err := r.pool.Exec(ctx, `DELETE FROM rooms WHERE id=$1`, id)
	if err != nil {
		return false, translate(err)
	}
	return ct.RowsAffected() > 0, nil
}

func (r *RoomRepoImpl) OccupiedOn(ctx context.Context, roomID int64, day domain.Date) (bool, error) {
	const q = `SELECT EXISTS (
  SELECT 1 FROM bookings
  WHERE room_id=$1 AND status='confirmed'
    AND check_in_date <= $2 AND check_out_date > $2
)`
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	var occupied bool
	err := r.pool.QueryRow(ctx, q, roomID, day.Time).Scan(&occupied)
	return occupied, err
}

// SetStatus is a compare-and-set; it reports false when the room was not in
// the expected status.
func (r *RoomRepoImpl) SetStatus(ctx context.Context, id int64, from, to domain.RoomStatus) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	ct, err := r.pool.Exec(ctx,
		`UPDATE rooms SET status=$3, updated_at=now() WHERE id=$1 AND status=$2`, id, from, to)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}
