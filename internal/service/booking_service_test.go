package service

import (
	"context"
	"testing"
	"time"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	"github.com/diagnosis/hotel-bookings/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type bookingFixture struct {
	svc      *bookingService
	bookings *mockBookingRepo
	rooms    *mockRoomRepo
	refresh  *mockRefresher
	refunds  *mockRefunder
	bus      *events.MemoryEventBus
	subjects *[]string
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	bus := events.NewMemoryEventBus()
	subjects := &[]string{}
	for _, subj := range []string{
		events.BookingCreated, events.BookingUpdated, events.BookingConfirmed,
		events.BookingCancelled, events.BookingCompleted,
	} {
		require.NoError(t, bus.Subscribe(subj, func(msg *events.Message) {
			*subjects = append(*subjects, msg.Subject)
		}))
	}

	f := &bookingFixture{
		bookings: &mockBookingRepo{},
		rooms:    &mockRoomRepo{},
		refresh:  &mockRefresher{},
		refunds:  &mockRefunder{},
		bus:      bus,
		subjects: subjects,
	}
	f.svc = NewBookingService(f.bookings, f.rooms, f.refresh, f.refunds, bus, 8).(*bookingService)
	f.svc.now = fixedClock(time.Date(2025, time.May, 20, 9, 0, 0, 0, time.UTC))
	t.Cleanup(func() {
		_ = bus.Close()
		f.bookings.AssertExpectations(t)
		f.rooms.AssertExpectations(t)
		f.refresh.AssertExpectations(t)
		f.refunds.AssertExpectations(t)
	})
	return f
}

// published waits for queued events and returns the subjects seen so far.
func (f *bookingFixture) published() []string {
	f.bus.Wait()
	return append([]string(nil), *f.subjects...)
}

func deluxe() *domain.Room {
	return &domain.Room{ID: 3, RoomNumber: "101", RoomType: "deluxe", NightlyPrice: money("100"), Capacity: 2, Status: domain.RoomAvailable}
}

func TestBookingCreate_PricesStayAndPublishes(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	stay := domain.Stay{CheckIn: june(1), CheckOut: june(4)}

	f.rooms.On("GetByID", ctx, int64(3)).Return(deluxe(), nil)
	f.bookings.On("HasOverlap", ctx, int64(3), stay, int64(0)).Return(false, nil)
	f.bookings.On("Create", ctx, mock.MatchedBy(func(b *domain.Booking) bool {
		return b.UserID == guest.UserID && b.TotalPrice.Equal(money("300")) && b.GuestCount == 2
	})).Return(&domain.Booking{ID: 11, UserID: guest.UserID, RoomID: 3, CheckIn: june(1), CheckOut: june(4),
		GuestCount: 2, TotalPrice: money("300"), Status: domain.BookingPending}, nil)

	b, err := f.svc.Create(ctx, guest, &domain.CreateBookingRequest{
		RoomID: 3, CheckIn: june(1), CheckOut: june(4), GuestCount: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), b.ID)
	assert.Equal(t, "300.00", b.TotalPrice.StringFixed(2))
	assert.Equal(t, []string{events.BookingCreated}, f.published())
}

func TestBookingCreate_InvertedDatesFailBeforeLookup(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.svc.Create(context.Background(), guest, &domain.CreateBookingRequest{
		RoomID: 3, CheckIn: june(5), CheckOut: june(5), GuestCount: 1,
	})
	v, ok := domain.IsValidation(err)
	require.True(t, ok)
	assert.Contains(t, v.Fields, "check_out_date")
}

func TestBookingCreate_OverlapIsUnavailable(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	stay := domain.Stay{CheckIn: june(3), CheckOut: june(7)}

	f.rooms.On("GetByID", ctx, int64(3)).Return(deluxe(), nil)
	f.bookings.On("HasOverlap", ctx, int64(3), stay, int64(0)).Return(true, nil)

	_, err := f.svc.Create(ctx, guest, &domain.CreateBookingRequest{
		RoomID: 3, CheckIn: june(3), CheckOut: june(7), GuestCount: 1,
	})
	assert.ErrorIs(t, err, domain.ErrRoomUnavailable)
	f.bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBookingCreate_RaceLostInsideTransaction(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	f.rooms.On("GetByID", ctx, int64(3)).Return(deluxe(), nil)
	f.bookings.On("HasOverlap", ctx, int64(3), mock.Anything, int64(0)).Return(false, nil)
	f.bookings.On("Create", ctx, mock.Anything).Return(nil, domain.ErrRoomUnavailable)

	_, err := f.svc.Create(ctx, guest, &domain.CreateBookingRequest{
		RoomID: 3, CheckIn: june(3), CheckOut: june(7), GuestCount: 1,
	})
	assert.ErrorIs(t, err, domain.ErrRoomUnavailable)
	assert.Empty(t, f.published())
}

func TestBookingCreate_Rejections(t *testing.T) {
	override := money("10")
	other := int64(99)

	t.Run("override needs admin", func(t *testing.T) {
		f := newBookingFixture(t)
		_, err := f.svc.Create(context.Background(), guest, &domain.CreateBookingRequest{
			RoomID: 3, CheckIn: june(1), CheckOut: june(2), GuestCount: 1, TotalPriceOverride: &override,
		})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("booking for someone else needs admin", func(t *testing.T) {
		f := newBookingFixture(t)
		_, err := f.svc.Create(context.Background(), guest, &domain.CreateBookingRequest{
			RoomID: 3, CheckIn: june(1), CheckOut: june(2), GuestCount: 1, UserID: &other,
		})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("over capacity", func(t *testing.T) {
		f := newBookingFixture(t)
		f.rooms.On("GetByID", mock.Anything, int64(3)).Return(deluxe(), nil)
		_, err := f.svc.Create(context.Background(), guest, &domain.CreateBookingRequest{
			RoomID: 3, CheckIn: june(1), CheckOut: june(2), GuestCount: 3,
		})
		v, ok := domain.IsValidation(err)
		require.True(t, ok)
		assert.Contains(t, v.Fields["guest_count"], "capacity")
	})

	t.Run("maintenance", func(t *testing.T) {
		f := newBookingFixture(t)
		rm := deluxe()
		rm.Status = domain.RoomMaintenance
		f.rooms.On("GetByID", mock.Anything, int64(3)).Return(rm, nil)
		_, err := f.svc.Create(context.Background(), guest, &domain.CreateBookingRequest{
			RoomID: 3, CheckIn: june(1), CheckOut: june(2), GuestCount: 1,
		})
		assert.ErrorIs(t, err, domain.ErrRoomUnavailable)
	})

	t.Run("missing room", func(t *testing.T) {
		f := newBookingFixture(t)
		f.rooms.On("GetByID", mock.Anything, int64(3)).Return(nil, nil)
		_, err := f.svc.Create(context.Background(), guest, &domain.CreateBookingRequest{
			RoomID: 3, CheckIn: june(1), CheckOut: june(2), GuestCount: 1,
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestBookingCreate_AdminOverride(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	override := money("199.99")
	forUser := int64(42)

	f.rooms.On("GetByID", ctx, int64(3)).Return(deluxe(), nil)
	f.bookings.On("HasOverlap", ctx, int64(3), mock.Anything, int64(0)).Return(false, nil)
	f.bookings.On("Create", ctx, mock.MatchedBy(func(b *domain.Booking) bool {
		return b.UserID == 42 && b.TotalPrice.Equal(override)
	})).Return(&domain.Booking{ID: 12, UserID: 42, TotalPrice: override}, nil)

	b, err := f.svc.Create(ctx, admin, &domain.CreateBookingRequest{
		RoomID: 3, CheckIn: june(1), CheckOut: june(4), GuestCount: 1,
		UserID: &forUser, TotalPriceOverride: &override,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), b.UserID)
}

func TestBookingGet_OwnershipEnforced(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	f.bookings.On("GetByID", ctx, int64(5)).Return(&domain.Booking{ID: 5, UserID: 1000}, nil)

	_, err := f.svc.Get(ctx, guest, 5)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	b, err := f.svc.Get(ctx, admin, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), b.ID)
}

func TestBookingList_ScopesNonAdminsToThemselves(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	f.bookings.On("List", ctx, mock.MatchedBy(func(fl domain.BookingFilter) bool {
		return fl.UserID != nil && *fl.UserID == guest.UserID
	})).Return([]domain.Booking{{ID: 1}}, nil).Once()
	f.bookings.On("List", ctx, mock.MatchedBy(func(fl domain.BookingFilter) bool {
		return fl.UserID == nil
	})).Return([]domain.Booking{{ID: 1}, {ID: 2}}, nil).Once()

	mine, err := f.svc.List(ctx, guest, domain.BookingFilter{})
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := f.svc.List(ctx, admin, domain.BookingFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestBookingCancel_CompletedIsRejectedWithoutWrite(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	f.bookings.On("GetByID", ctx, int64(5)).Return(&domain.Booking{ID: 5, UserID: guest.UserID, Status: domain.BookingCompleted}, nil)

	_, err := f.svc.Cancel(ctx, guest, 5, &domain.CancelBookingRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	f.bookings.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingCancel_ConfirmedTriggersRefundAndRefresh(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	current := &domain.Booking{ID: 5, UserID: guest.UserID, RoomID: 3, CheckIn: june(1), CheckOut: june(4), Status: domain.BookingConfirmed}
	cancelled := *current
	cancelled.Status = domain.BookingCancelled

	f.bookings.On("GetByID", ctx, int64(5)).Return(current, nil)
	f.bookings.On("UpdateStatus", ctx, int64(5), domain.BookingConfirmed, domain.BookingCancelled,
		mock.MatchedBy(func(r *string) bool { return r != nil && *r == "change of plans" }),
		mock.MatchedBy(func(at *time.Time) bool { return at != nil })).
		Return(&cancelled, nil)
	f.refunds.On("RefundCancelled", ctx, &cancelled, false).Return(&domain.Payment{ID: 9}, nil)
	f.refresh.On("RefreshStatus", ctx, int64(3)).Return(nil)

	b, err := f.svc.Cancel(ctx, guest, 5, &domain.CancelBookingRequest{Reason: "  change of plans "})
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, b.Status)
	assert.Equal(t, []string{events.BookingCancelled}, f.published())
}

func TestBookingCancel_PendingSkipsRefund(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	current := &domain.Booking{ID: 5, UserID: guest.UserID, RoomID: 3, Status: domain.BookingPending}
	cancelled := *current
	cancelled.Status = domain.BookingCancelled

	f.bookings.On("GetByID", ctx, int64(5)).Return(current, nil)
	f.bookings.On("UpdateStatus", ctx, int64(5), domain.BookingPending, domain.BookingCancelled, (*string)(nil), mock.Anything).
		Return(&cancelled, nil)
	f.refresh.On("RefreshStatus", ctx, int64(3)).Return(nil)

	_, err := f.svc.Cancel(ctx, guest, 5, &domain.CancelBookingRequest{})
	require.NoError(t, err)
}

func TestBookingCancel_ConcurrentChangeIsConflict(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	f.bookings.On("GetByID", ctx, int64(5)).Return(&domain.Booking{ID: 5, UserID: guest.UserID, Status: domain.BookingPending}, nil)
	f.bookings.On("UpdateStatus", ctx, int64(5), domain.BookingPending, domain.BookingCancelled, mock.Anything, mock.Anything).
		Return(nil, nil)

	_, err := f.svc.Cancel(ctx, guest, 5, &domain.CancelBookingRequest{})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestBookingChangeStatus(t *testing.T) {
	t.Run("guest forbidden", func(t *testing.T) {
		f := newBookingFixture(t)
		_, err := f.svc.ChangeStatus(context.Background(), guest, 5, &domain.StatusChangeRequest{Status: domain.BookingConfirmed})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("cancelled to confirmed rejected", func(t *testing.T) {
		f := newBookingFixture(t)
		f.bookings.On("GetByID", mock.Anything, int64(5)).Return(&domain.Booking{ID: 5, Status: domain.BookingCancelled}, nil)
		_, err := f.svc.ChangeStatus(context.Background(), admin, 5, &domain.StatusChangeRequest{Status: "confirmed"})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("unknown status", func(t *testing.T) {
		f := newBookingFixture(t)
		_, err := f.svc.ChangeStatus(context.Background(), admin, 5, &domain.StatusChangeRequest{Status: "checked_in"})
		_, ok := domain.IsValidation(err)
		assert.True(t, ok)
	})

	t.Run("admin confirms pending", func(t *testing.T) {
		f := newBookingFixture(t)
		ctx := context.Background()
		current := &domain.Booking{ID: 5, RoomID: 3, Status: domain.BookingPending}
		confirmed := *current
		confirmed.Status = domain.BookingConfirmed
		f.bookings.On("GetByID", ctx, int64(5)).Return(current, nil)
		f.bookings.On("UpdateStatus", ctx, int64(5), domain.BookingPending, domain.BookingConfirmed, (*string)(nil), (*time.Time)(nil)).
			Return(&confirmed, nil)
		f.refresh.On("RefreshStatus", ctx, int64(3)).Return(nil)

		b, err := f.svc.ChangeStatus(ctx, admin, 5, &domain.StatusChangeRequest{Status: "Confirmed"})
		require.NoError(t, err)
		assert.Equal(t, domain.BookingConfirmed, b.Status)
		assert.Equal(t, []string{events.BookingConfirmed}, f.published())
	})

	t.Run("completing before check-out rejected", func(t *testing.T) {
		f := newBookingFixture(t)
		current := &domain.Booking{ID: 5, RoomID: 3, CheckIn: june(10), CheckOut: june(12), Status: domain.BookingConfirmed}
		f.bookings.On("GetByID", mock.Anything, int64(5)).Return(current, nil)

		_, err := f.svc.ChangeStatus(context.Background(), admin, 5, &domain.StatusChangeRequest{Status: domain.BookingCompleted})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		f.bookings.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, f.published())
	})

	t.Run("admin completes after check-out", func(t *testing.T) {
		f := newBookingFixture(t)
		ctx := context.Background()
		f.svc.now = fixedClock(time.Date(2025, time.June, 12, 8, 0, 0, 0, time.UTC))
		current := &domain.Booking{ID: 5, RoomID: 3, CheckIn: june(10), CheckOut: june(12), Status: domain.BookingConfirmed}
		done := *current
		done.Status = domain.BookingCompleted
		f.bookings.On("GetByID", ctx, int64(5)).Return(current, nil)
		f.bookings.On("UpdateStatus", ctx, int64(5), domain.BookingConfirmed, domain.BookingCompleted, (*string)(nil), (*time.Time)(nil)).
			Return(&done, nil)
		f.refresh.On("RefreshStatus", ctx, int64(3)).Return(nil)

		b, err := f.svc.ChangeStatus(ctx, admin, 5, &domain.StatusChangeRequest{Status: domain.BookingCompleted})
		require.NoError(t, err)
		assert.Equal(t, domain.BookingCompleted, b.Status)
		assert.Equal(t, []string{events.BookingCompleted}, f.published())
	})
}

func TestBookingUpdate(t *testing.T) {
	in, out := june(10), june(12)

	t.Run("dates locked once confirmed", func(t *testing.T) {
		f := newBookingFixture(t)
		f.bookings.On("GetByID", mock.Anything, int64(5)).Return(&domain.Booking{ID: 5, UserID: guest.UserID, Status: domain.BookingConfirmed}, nil)
		_, err := f.svc.Update(context.Background(), guest, 5, &domain.UpdateBookingRequest{CheckIn: &in, CheckOut: &out})
		_, ok := domain.IsValidation(err)
		assert.True(t, ok)
	})

	t.Run("reschedule reprices and rechecks", func(t *testing.T) {
		f := newBookingFixture(t)
		ctx := context.Background()
		current := &domain.Booking{ID: 5, UserID: guest.UserID, RoomID: 3, CheckIn: june(1), CheckOut: june(4),
			GuestCount: 1, TotalPrice: money("300"), Status: domain.BookingPending}
		f.bookings.On("GetByID", ctx, int64(5)).Return(current, nil)
		f.rooms.On("GetByID", ctx, int64(3)).Return(deluxe(), nil)
		f.bookings.On("HasOverlap", ctx, int64(3), domain.Stay{CheckIn: in, CheckOut: out}, int64(5)).Return(false, nil)
		f.bookings.On("Update", ctx, mock.MatchedBy(func(b *domain.Booking) bool {
			return b.TotalPrice.Equal(money("200")) && b.CheckIn == in
		}), true).Return(&domain.Booking{ID: 5, TotalPrice: money("200")}, nil)

		b, err := f.svc.Update(ctx, guest, 5, &domain.UpdateBookingRequest{CheckIn: &in, CheckOut: &out})
		require.NoError(t, err)
		assert.Equal(t, "200.00", b.TotalPrice.StringFixed(2))
	})

	t.Run("special requests on confirmed skip recheck", func(t *testing.T) {
		f := newBookingFixture(t)
		ctx := context.Background()
		note := "late arrival"
		f.bookings.On("GetByID", ctx, int64(5)).Return(&domain.Booking{ID: 5, UserID: guest.UserID, RoomID: 3,
			GuestCount: 1, TotalPrice: money("300"), Status: domain.BookingConfirmed}, nil)
		f.rooms.On("GetByID", ctx, int64(3)).Return(deluxe(), nil)
		f.bookings.On("Update", ctx, mock.MatchedBy(func(b *domain.Booking) bool {
			return b.SpecialRequests == note && b.TotalPrice.Equal(money("300"))
		}), false).Return(&domain.Booking{ID: 5, SpecialRequests: note}, nil)

		_, err := f.svc.Update(ctx, guest, 5, &domain.UpdateBookingRequest{SpecialRequests: &note})
		require.NoError(t, err)
	})

	t.Run("terminal bookings are frozen", func(t *testing.T) {
		f := newBookingFixture(t)
		count := 2
		f.bookings.On("GetByID", mock.Anything, int64(5)).Return(&domain.Booking{ID: 5, UserID: guest.UserID, Status: domain.BookingCancelled}, nil)
		_, err := f.svc.Update(context.Background(), guest, 5, &domain.UpdateBookingRequest{GuestCount: &count})
		assert.ErrorIs(t, err, domain.ErrConflict)
	})
}

func TestBookingCompleteElapsed_RefreshesEachRoomOnce(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	today := domain.NewDate(2025, time.May, 20)

	f.bookings.On("CompleteElapsed", ctx, today).Return([]domain.Booking{
		{ID: 1, RoomID: 3, Status: domain.BookingCompleted},
		{ID: 2, RoomID: 3, Status: domain.BookingCompleted},
		{ID: 3, RoomID: 4, Status: domain.BookingCompleted},
	}, nil)
	f.refresh.On("RefreshStatus", ctx, int64(3)).Return(nil).Once()
	f.refresh.On("RefreshStatus", ctx, int64(4)).Return(nil).Once()

	done, err := f.svc.CompleteElapsed(ctx)
	require.NoError(t, err)
	assert.Len(t, done, 3)
	assert.Len(t, f.published(), 3)
}

func TestBookingExport_PagesUntilShortPage(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	full := make([]domain.Booking, exportPageSize)
	f.bookings.On("List", ctx, domain.BookingFilter{Limit: exportPageSize, Offset: 0}).Return(full, nil).Once()
	f.bookings.On("List", ctx, domain.BookingFilter{Limit: exportPageSize, Offset: exportPageSize}).Return([]domain.Booking{{ID: 1}}, nil).Once()

	all, err := f.svc.Export(ctx, admin, domain.BookingFilter{})
	require.NoError(t, err)
	assert.Len(t, all, exportPageSize+1)

	_, err = f.svc.Export(ctx, guest, domain.BookingFilter{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
