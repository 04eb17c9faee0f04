package service

import (
	"context"
	"time"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type mockBookingRepo struct{ mock.Mock }

func (m *mockBookingRepo) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	args := m.Called(ctx, b)
	out, _ := args.Get(0).(*domain.Booking)
	return out, args.Error(1)
}

func (m *mockBookingRepo) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(*domain.Booking)
	return out, args.Error(1)
}

func (m *mockBookingRepo) List(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, error) {
	args := m.Called(ctx, f)
	out, _ := args.Get(0).([]domain.Booking)
	return out, args.Error(1)
}

func (m *mockBookingRepo) HasOverlap(ctx context.Context, roomID int64, stay domain.Stay, excludeID int64) (bool, error) {
	args := m.Called(ctx, roomID, stay, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *mockBookingRepo) Update(ctx context.Context, b *domain.Booking, recheck bool) (*domain.Booking, error) {
	args := m.Called(ctx, b, recheck)
	out, _ := args.Get(0).(*domain.Booking)
	return out, args.Error(1)
}

func (m *mockBookingRepo) UpdateStatus(ctx context.Context, id int64, from, to domain.BookingStatus, reason *string, at *time.Time) (*domain.Booking, error) {
	args := m.Called(ctx, id, from, to, reason, at)
	out, _ := args.Get(0).(*domain.Booking)
	return out, args.Error(1)
}

func (m *mockBookingRepo) CompleteElapsed(ctx context.Context, today domain.Date) ([]domain.Booking, error) {
	args := m.Called(ctx, today)
	out, _ := args.Get(0).([]domain.Booking)
	return out, args.Error(1)
}

type mockRoomRepo struct{ mock.Mock }

func (m *mockRoomRepo) Create(ctx context.Context, rm *domain.Room) (*domain.Room, error) {
	args := m.Called(ctx, rm)
	out, _ := args.Get(0).(*domain.Room)
	return out, args.Error(1)
}

func (m *mockRoomRepo) GetByID(ctx context.Context, id int64) (*domain.Room, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(*domain.Room)
	return out, args.Error(1)
}

func (m *mockRoomRepo) Search(ctx context.Context, s domain.RoomSearch) ([]domain.Room, error) {
	args := m.Called(ctx, s)
	out, _ := args.Get(0).([]domain.Room)
	return out, args.Error(1)
}

func (m *mockRoomRepo) Update(ctx context.Context, rm *domain.Room) (*domain.Room, error) {
	args := m.Called(ctx, rm)
	out, _ := args.Get(0).(*domain.Room)
	return out, args.Error(1)
}

func (m *mockRoomRepo) Delete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockRoomRepo) OccupiedOn(ctx context.Context, roomID int64, day domain.Date) (bool, error) {
	args := m.Called(ctx, roomID, day)
	return args.Bool(0), args.Error(1)
}

func (m *mockRoomRepo) SetStatus(ctx context.Context, id int64, from, to domain.RoomStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

type mockUsersRepo struct{ mock.Mock }

func (m *mockUsersRepo) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	args := m.Called(ctx, u)
	out, _ := args.Get(0).(*domain.User)
	return out, args.Error(1)
}

func (m *mockUsersRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	out, _ := args.Get(0).(*domain.User)
	return out, args.Error(1)
}

func (m *mockUsersRepo) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(*domain.User)
	return out, args.Error(1)
}

func (m *mockUsersRepo) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	args := m.Called(ctx, limit, offset)
	out, _ := args.Get(0).([]domain.User)
	return out, args.Error(1)
}

func (m *mockUsersRepo) Update(ctx context.Context, u *domain.User) (*domain.User, error) {
	args := m.Called(ctx, u)
	out, _ := args.Get(0).(*domain.User)
	return out, args.Error(1)
}

func (m *mockUsersRepo) Delete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type mockPaymentRepo struct{ mock.Mock }

func (m *mockPaymentRepo) CreatePending(ctx context.Context, p *domain.Payment) (*domain.Payment, error) {
	args := m.Called(ctx, p)
	out, _ := args.Get(0).(*domain.Payment)
	return out, args.Error(1)
}

func (m *mockPaymentRepo) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(*domain.Payment)
	return out, args.Error(1)
}

func (m *mockPaymentRepo) GetByBookingID(ctx context.Context, bookingID int64) (*domain.Payment, error) {
	args := m.Called(ctx, bookingID)
	out, _ := args.Get(0).(*domain.Payment)
	return out, args.Error(1)
}

func (m *mockPaymentRepo) List(ctx context.Context, f domain.PaymentFilter) ([]domain.Payment, error) {
	args := m.Called(ctx, f)
	out, _ := args.Get(0).([]domain.Payment)
	return out, args.Error(1)
}

func (m *mockPaymentRepo) Complete(ctx context.Context, id int64, txn string) (*domain.Payment, *domain.Booking, error) {
	args := m.Called(ctx, id, txn)
	p, _ := args.Get(0).(*domain.Payment)
	b, _ := args.Get(1).(*domain.Booking)
	return p, b, args.Error(2)
}

func (m *mockPaymentRepo) Fail(ctx context.Context, id int64, reason string) (*domain.Payment, error) {
	args := m.Called(ctx, id, reason)
	out, _ := args.Get(0).(*domain.Payment)
	return out, args.Error(1)
}

func (m *mockPaymentRepo) Refund(ctx context.Context, id int64, amount decimal.Decimal, reason string, at time.Time) (*domain.Payment, *domain.Booking, error) {
	args := m.Called(ctx, id, amount, reason, at)
	p, _ := args.Get(0).(*domain.Payment)
	b, _ := args.Get(1).(*domain.Booking)
	return p, b, args.Error(2)
}

func (m *mockPaymentRepo) Delete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type mockRefresher struct{ mock.Mock }

func (m *mockRefresher) RefreshStatus(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type mockRefunder struct{ mock.Mock }

func (m *mockRefunder) RefundCancelled(ctx context.Context, b *domain.Booking, byAdmin bool) (*domain.Payment, error) {
	args := m.Called(ctx, b, byAdmin)
	out, _ := args.Get(0).(*domain.Payment)
	return out, args.Error(1)
}

var (
	guest = domain.Actor{UserID: 7, Email: "guest@example.com", Role: domain.RoleCustomer}
	admin = domain.Actor{UserID: 1, Email: "admin@example.com", Role: domain.RoleAdmin}
)

func june(day int) domain.Date { return domain.NewDate(2025, time.June, day) }

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }
