package handlers

import (
	"context"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	"github.com/stretchr/testify/mock"
)

type mockUsers struct{ mock.Mock }

func (m *mockUsers) Register(ctx context.Context, actor *domain.Actor, req *domain.CreateUserRequest) (*domain.User, error) {
	args := m.Called(ctx, actor, req)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockUsers) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	args := m.Called(ctx, req)
	out, _ := args.Get(0).(*domain.LoginResponse)
	return out, args.Error(1)
}

func (m *mockUsers) Get(ctx context.Context, actor domain.Actor, id int64) (*domain.User, error) {
	args := m.Called(ctx, actor, id)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockUsers) List(ctx context.Context, actor domain.Actor, limit, offset int) ([]domain.User, error) {
	args := m.Called(ctx, actor, limit, offset)
	us, _ := args.Get(0).([]domain.User)
	return us, args.Error(1)
}

func (m *mockUsers) Update(ctx context.Context, actor domain.Actor, id int64, req *domain.UpdateUserRequest) (*domain.User, error) {
	args := m.Called(ctx, actor, id, req)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockUsers) Delete(ctx context.Context, actor domain.Actor, id int64) error {
	return m.Called(ctx, actor, id).Error(0)
}

type mockRooms struct{ mock.Mock }

func (m *mockRooms) Create(ctx context.Context, actor domain.Actor, req *domain.CreateRoomRequest) (*domain.Room, error) {
	args := m.Called(ctx, actor, req)
	rm, _ := args.Get(0).(*domain.Room)
	return rm, args.Error(1)
}

func (m *mockRooms) Get(ctx context.Context, id int64) (*domain.Room, error) {
	args := m.Called(ctx, id)
	rm, _ := args.Get(0).(*domain.Room)
	return rm, args.Error(1)
}

func (m *mockRooms) Search(ctx context.Context, q domain.RoomSearch) ([]domain.Room, error) {
	args := m.Called(ctx, q)
	rs, _ := args.Get(0).([]domain.Room)
	return rs, args.Error(1)
}

func (m *mockRooms) Update(ctx context.Context, actor domain.Actor, id int64, req *domain.UpdateRoomRequest) (*domain.Room, error) {
	args := m.Called(ctx, actor, id, req)
	rm, _ := args.Get(0).(*domain.Room)
	return rm, args.Error(1)
}

func (m *mockRooms) Delete(ctx context.Context, actor domain.Actor, id int64) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *mockRooms) Availability(ctx context.Context, id int64, stay domain.Stay) (*domain.Availability, error) {
	args := m.Called(ctx, id, stay)
	a, _ := args.Get(0).(*domain.Availability)
	return a, args.Error(1)
}

func (m *mockRooms) RefreshStatus(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type mockBookings struct{ mock.Mock }

func (m *mockBookings) Create(ctx context.Context, actor domain.Actor, req *domain.CreateBookingRequest) (*domain.Booking, error) {
	args := m.Called(ctx, actor, req)
	b, _ := args.Get(0).(*domain.Booking)
	return b, args.Error(1)
}

func (m *mockBookings) Get(ctx context.Context, actor domain.Actor, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, actor, id)
	b, _ := args.Get(0).(*domain.Booking)
	return b, args.Error(1)
}

func (m *mockBookings) List(ctx context.Context, actor domain.Actor, f domain.BookingFilter) ([]domain.Booking, error) {
	args := m.Called(ctx, actor, f)
	bs, _ := args.Get(0).([]domain.Booking)
	return bs, args.Error(1)
}

func (m *mockBookings) Update(ctx context.Context, actor domain.Actor, id int64, req *domain.UpdateBookingRequest) (*domain.Booking, error) {
	args := m.Called(ctx, actor, id, req)
	b, _ := args.Get(0).(*domain.Booking)
	return b, args.Error(1)
}

func (m *mockBookings) Cancel(ctx context.Context, actor domain.Actor, id int64, req *domain.CancelBookingRequest) (*domain.Booking, error) {
	args := m.Called(ctx, actor, id, req)
	b, _ := args.Get(0).(*domain.Booking)
	return b, args.Error(1)
}

func (m *mockBookings) ChangeStatus(ctx context.Context, actor domain.Actor, id int64, req *domain.StatusChangeRequest) (*domain.Booking, error) {
	args := m.Called(ctx, actor, id, req)
	b, _ := args.Get(0).(*domain.Booking)
	return b, args.Error(1)
}

func (m *mockBookings) CompleteElapsed(ctx context.Context) ([]domain.Booking, error) {
	args := m.Called(ctx)
	bs, _ := args.Get(0).([]domain.Booking)
	return bs, args.Error(1)
}

func (m *mockBookings) Export(ctx context.Context, actor domain.Actor, f domain.BookingFilter) ([]domain.Booking, error) {
	args := m.Called(ctx, actor, f)
	bs, _ := args.Get(0).([]domain.Booking)
	return bs, args.Error(1)
}

type mockPayments struct{ mock.Mock }

func (m *mockPayments) Create(ctx context.Context, actor domain.Actor, req *domain.CreatePaymentRequest, key string) (*domain.Payment, error) {
	args := m.Called(ctx, actor, req, key)
	p, _ := args.Get(0).(*domain.Payment)
	return p, args.Error(1)
}

func (m *mockPayments) Get(ctx context.Context, actor domain.Actor, id int64) (*domain.Payment, error) {
	args := m.Called(ctx, actor, id)
	p, _ := args.Get(0).(*domain.Payment)
	return p, args.Error(1)
}

func (m *mockPayments) List(ctx context.Context, actor domain.Actor, f domain.PaymentFilter) ([]domain.Payment, error) {
	args := m.Called(ctx, actor, f)
	ps, _ := args.Get(0).([]domain.Payment)
	return ps, args.Error(1)
}

func (m *mockPayments) ApplyCallback(ctx context.Context, actor domain.Actor, id int64, cb *domain.PaymentCallback) (*domain.Payment, error) {
	args := m.Called(ctx, actor, id, cb)
	p, _ := args.Get(0).(*domain.Payment)
	return p, args.Error(1)
}

func (m *mockPayments) Refund(ctx context.Context, actor domain.Actor, id int64, req *domain.RefundRequest) (*domain.Payment, error) {
	args := m.Called(ctx, actor, id, req)
	p, _ := args.Get(0).(*domain.Payment)
	return p, args.Error(1)
}

func (m *mockPayments) Delete(ctx context.Context, actor domain.Actor, id int64) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *mockPayments) RefundCancelled(ctx context.Context, b *domain.Booking, byAdmin bool) (*domain.Payment, error) {
	args := m.Called(ctx, b, byAdmin)
	p, _ := args.Get(0).(*domain.Payment)
	return p, args.Error(1)
}
