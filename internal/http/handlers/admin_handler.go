package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	mw "github.com/diagnosis/hotel-bookings/internal/http/middleware"
	"github.com/diagnosis/hotel-bookings/internal/http/response"
	"github.com/diagnosis/hotel-bookings/internal/report"
	"github.com/diagnosis/hotel-bookings/internal/service"
	"github.com/diagnosis/hotel-bookings/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type AdminHandler struct {
	Bookings service.BookingService
	Auth     *mw.Authenticator
}

func NewAdminHandler(bookings service.BookingService, auth *mw.Authenticator) *AdminHandler {
	return &AdminHandler{Bookings: bookings, Auth: auth}
}

func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.Auth.RequireJWT(domain.RoleAdmin))
	r.Post("/bookings/complete", h.completeStays)
	r.Get("/reports/bookings.xlsx", h.bookingsReport)
	return r
}

type completeStaysRes struct {
	Completed int              `json:"completed"`
	Bookings  []domain.Booking `json:"bookings"`
}

func (h *AdminHandler) completeStays(w http.ResponseWriter, r *http.Request) {
	done, err := h.Bookings.CompleteElapsed(r.Context())
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	if done == nil {
		done = []domain.Booking{}
	}
	writeJSON(w, http.StatusOK, completeStaysRes{Completed: len(done), Bookings: done})
}

func (h *AdminHandler) bookingsReport(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	f, _, ok := bookingFilter(w, r)
	if !ok {
		return
	}
	bs, err := h.Bookings.Export(r.Context(), a, f)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteBookings(&buf, bs); err != nil {
		response.FromError(w, r, fmt.Errorf("render bookings report: %w", err))
		return
	}
	logger.InfoContext(r.Context(), "Bookings report exported", "rows", len(bs))

	name := fmt.Sprintf("bookings-%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
