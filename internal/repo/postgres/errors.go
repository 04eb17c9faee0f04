package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
)

const queryTimeout = 3 * time.Second

// SQLSTATE codes the repositories translate into domain errors.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeExclusionViolation  = "23P01"
	codeCheckViolation      = "23514"
)

// checkFields names the request field behind each check constraint. Table
// level checks carry no column in the server error.
var checkFields = map[string]string{
	"chk_users_role":      "role",
	"chk_rooms_price":     "nightly_price",
	"chk_rooms_capacity":  "capacity",
	"chk_rooms_status":    "status",
	"chk_bookings_stay":   "check_out_date",
	"chk_bookings_guests": "guest_count",
	"chk_bookings_total":  "total_price",
	"chk_bookings_status": "status",
	"chk_payments_amount": "amount",
	"chk_payments_status": "status",
}

func checkField(pgErr *pgconn.PgError) string {
	if f, ok := checkFields[pgErr.ConstraintName]; ok {
		return f
	}
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	if pgErr.ConstraintName != "" {
		return pgErr.ConstraintName
	}
	return "request"
}

// translate maps constraint violations onto domain errors and leaves anything
// else untouched.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeExclusionViolation:
		return domain.ErrRoomUnavailable
	case codeUniqueViolation:
		if pgErr.ConstraintName == "users_email_key" || pgErr.ConstraintName == "idx_users_email" {
			return domain.ErrEmailExists
		}
		return domain.ErrConflict
	case codeForeignKeyViolation:
		return domain.ErrConflict
	case codeCheckViolation:
		return domain.NewValidationError(checkField(pgErr), "violates "+pgErr.ConstraintName)
	}
	return err
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, queryTimeout)
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
