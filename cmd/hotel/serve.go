package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/diagnosis/hotel-bookings/internal/http/handlers"
	mw "github.com/diagnosis/hotel-bookings/internal/http/middleware"
	"github.com/diagnosis/hotel-bookings/internal/notify"
	"github.com/diagnosis/hotel-bookings/internal/platform/mailer"
	"github.com/diagnosis/hotel-bookings/pkg/config"
	"github.com/diagnosis/hotel-bookings/pkg/idempotency"
	"github.com/diagnosis/hotel-bookings/pkg/logger"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if port, _ := cmd.Flags().GetString("port"); port != "" {
				cfg.Server.Port = port
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().String("port", "", "listen port (overrides PORT)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	n := notify.New(a.bus, a.users, mailer.New(cfg.Email))
	if err := n.Start(); err != nil {
		return err
	}

	deps := handlers.Deps{
		Users:          a.userSvc,
		Rooms:          a.roomSvc,
		Bookings:       a.bookSvc,
		Payments:       a.paySvc,
		Auth:           mw.NewAuthenticator(cfg.Auth.JWTSecret),
		IdempotencyTTL: cfg.Redis.IdempotencyTTL,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.WriteTimeout,
		TrustProxy:     cfg.Server.TrustProxy,
	}

	// Without redis, Idempotency-Key and the login limiter are off.
	rdb, err := idempotency.NewClient(ctx, cfg.Redis.URL)
	if err != nil {
		logger.Warn("Redis unavailable, idempotency and login rate limiting disabled", "error", err)
	} else {
		defer rdb.Close()
		deps.Idempotency = idempotency.NewRedisStore(rdb)
		deps.LoginLimiter = mw.NewRateLimiter(rdb, mw.RateLimitConfig{
			Name:     "login",
			Requests: cfg.RateLimit.LoginRequests,
			Window:   cfg.RateLimit.LoginWindow,
		})
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handlers.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting hotel API", "port", cfg.Server.Port, "gateway", a.gateway.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down hotel API...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Hotel API shutdown error", "error", err)
		return err
	}
	return nil
}
