package handlers

import (
	"net/http"
	"time"

	mw "github.com/diagnosis/hotel-bookings/internal/http/middleware"
	"github.com/diagnosis/hotel-bookings/internal/service"
	pkgmw "github.com/diagnosis/hotel-bookings/pkg/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Deps struct {
	Users    service.UserService
	Rooms    service.RoomService
	Bookings service.BookingService
	Payments service.PaymentService

	Auth         *mw.Authenticator
	LoginLimiter *mw.RateLimiter

	// Idempotency is optional; without it Idempotency-Key headers are ignored.
	Idempotency    pkgmw.IdempotencyStore
	IdempotencyTTL time.Duration

	AllowedOrigins []string
	RequestTimeout time.Duration
	// TrustProxy rewrites RemoteAddr from forwarding headers. Rate limits
	// key on RemoteAddr, so leave it off unless a proxy sets those headers.
	TrustProxy bool
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(pkgmw.RequestID)
	if d.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(pkgmw.ServiceName("hotel"))
	r.Use(pkgmw.Logging)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID", "Idempotent-Replayed"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(pkgmw.Health)
	r.Use(pkgmw.Metrics)
	if d.RequestTimeout > 0 {
		r.Use(middleware.Timeout(d.RequestTimeout))
	}

	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if d.Idempotency != nil {
			r.Use(pkgmw.IdempotencyMiddleware(d.Idempotency, d.IdempotencyTTL))
		}
		r.Mount("/auth", NewAuthHandler(d.Users, d.LoginLimiter).Routes())
		r.Mount("/users", NewUsersHandler(d.Users, d.Auth).Routes())
		r.Mount("/rooms", NewRoomsHandler(d.Rooms, d.Auth).Routes())
		r.Mount("/bookings", NewBookingsHandler(d.Bookings, d.Auth).Routes())
		r.Mount("/payments", NewPaymentsHandler(d.Payments, d.Auth).Routes())
		r.Mount("/admin", NewAdminHandler(d.Bookings, d.Auth).Routes())
	})
	return r
}
