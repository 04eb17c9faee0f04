package main

import (
	"context"
	"fmt"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	"github.com/diagnosis/hotel-bookings/internal/payment"
	"github.com/diagnosis/hotel-bookings/internal/repo/postgres"
	"github.com/diagnosis/hotel-bookings/internal/service"
	"github.com/diagnosis/hotel-bookings/pkg/config"
	"github.com/diagnosis/hotel-bookings/pkg/database"
	"github.com/diagnosis/hotel-bookings/pkg/events"
	"github.com/diagnosis/hotel-bookings/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
)

// app holds the long-lived dependencies shared by the subcommands.
type app struct {
	cfg  *config.Config
	pool *pgxpool.Pool
	bus  events.EventBus

	users   *postgres.UsersRepoImpl
	userSvc service.UserService
	roomSvc service.RoomService
	bookSvc service.BookingService
	paySvc  service.PaymentService
	gateway payment.Gateway
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	bus, err := connectBus(cfg.NATS)
	if err != nil {
		pool.Close()
		return nil, err
	}

	gateway, err := payment.New(cfg.Payments)
	if err != nil {
		pool.Close()
		_ = bus.Close()
		return nil, err
	}

	users := postgres.NewUsersRepo(pool)
	rooms := postgres.NewRoomRepo(pool)
	bookings := postgres.NewBookingRepo(pool)
	payments := postgres.NewPaymentRepo(pool)

	policy := domain.RefundPolicy{
		FreeCancellationWindow: cfg.Booking.FreeCancellationWindow,
		LateRefundPercent:      cfg.Booking.LateRefundPercent,
	}
	roomSvc := service.NewRoomService(rooms, bookings)
	paySvc := service.NewPaymentService(payments, bookings, gateway, roomSvc, bus, policy, cfg.Payments.Currency)
	bookSvc := service.NewBookingService(bookings, rooms, roomSvc, paySvc, bus, cfg.Booking.MaxGuests)

	return &app{
		cfg:     cfg,
		pool:    pool,
		bus:     bus,
		users:   users,
		userSvc: service.NewUserService(users, cfg.Auth),
		roomSvc: roomSvc,
		bookSvc: bookSvc,
		paySvc:  paySvc,
		gateway: gateway,
	}, nil
}

func (a *app) Close() {
	if err := a.bus.Close(); err != nil {
		logger.Warn("Event bus close failed", "error", err)
	}
	a.pool.Close()
}

// connectBus uses NATS when a URL is configured and the in-process bus
// otherwise.
func connectBus(cfg config.NATSConfig) (events.EventBus, error) {
	if cfg.URL == "" {
		logger.Info("NATS_URL empty, using in-process event bus")
		return events.NewMemoryEventBus(), nil
	}
	bus, err := events.NewNATSEventBus(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("event bus: %w", err)
	}
	return bus, nil
}
