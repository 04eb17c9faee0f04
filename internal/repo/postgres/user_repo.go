package postgres

import (
	"context"
	"errors"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersRepo interface {
	Create(ctx context.Context, u *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
	Update(ctx context.Context, u *domain.User) (*domain.User, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type UsersRepoImpl struct{ pool *pgxpool.Pool }

func NewUsersRepo(pool *pgxpool.Pool) *UsersRepoImpl { return &UsersRepoImpl{pool: pool} }

const userCols = `id, name, email, password_hash, role, phone, created_at, updated_at`

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Phone, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UsersRepoImpl) Create(ctx context.Context, in *domain.User) (*domain.User, error) {
	const q = `
INSERT INTO users (name, email, password_hash, role, phone)
VALUES ($1,$2,$3,$4,$5)
RETURNING ` + userCols
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	u, err := scanUser(r.pool.QueryRow(ctx, q, in.Name, in.Email, in.PasswordHash, in.Role, in.Phone))
	if err != nil {
		err = translate(err)
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.ErrEmailExists
		}
		return nil, err
	}
	return u, nil
}

func (r *UsersRepoImpl) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE email=$1`
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	u, err := scanUser(r.pool.QueryRow(ctx, q, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func (r *UsersRepoImpl) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE id=$1`
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	u, err := scanUser(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func (r *UsersRepoImpl) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	limit, offset = clampPage(limit, offset)
	const q = `SELECT ` + userCols + ` FROM users ORDER BY id LIMIT $1 OFFSET $2`
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	us := make([]domain.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		us = append(us, *u)
	}
	return us, rows.Err()
}

func (r *UsersRepoImpl) Update(ctx context.Context, in *domain.User) (*domain.User, error) {
	const q = `UPDATE users SET
  name=$2, password_hash=$3, role=$4, phone=$5, updated_at=now()
WHERE id=$1
RETURNING ` + userCols
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	u, err := scanUser(r.pool.QueryRow(ctx, q, in.ID, in.Name, in.PasswordHash, in.Role, in.Phone))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return u, nil
}

// Delete removes the user; bookings and their payments go with it through
// ON DELETE CASCADE.
func (r *UsersRepoImpl) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	ct, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return false, translate(err)
	}
	return ct.RowsAffected() > 0, nil
}
