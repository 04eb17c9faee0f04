package handlers

import (
	"net/http"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	mw "github.com/diagnosis/hotel-bookings/internal/http/middleware"
	"github.com/diagnosis/hotel-bookings/internal/http/response"
	"github.com/diagnosis/hotel-bookings/internal/service"
	"github.com/go-chi/chi/v5"
)

type BookingsHandler struct {
	Bookings service.BookingService
	Auth     *mw.Authenticator
}

func NewBookingsHandler(bookings service.BookingService, auth *mw.Authenticator) *BookingsHandler {
	return &BookingsHandler{Bookings: bookings, Auth: auth}
}

func (h *BookingsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.Auth.RequireJWT())
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.getByID)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.cancel)
	r.With(h.Auth.RequireJWT(domain.RoleAdmin)).Patch("/{id}/status", h.changeStatus)
	return r
}

func (h *BookingsHandler) create(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var in domain.CreateBookingRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	b, err := h.Bookings.Create(r.Context(), a, &in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *BookingsHandler) list(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	f, p, ok := bookingFilter(w, r)
	if !ok {
		return
	}
	bs, err := h.Bookings.List(r.Context(), a, f)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writePage(w, r, p, bs)
}

func (h *BookingsHandler) getByID(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	b, err := h.Bookings.Get(r.Context(), a, id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BookingsHandler) update(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var in domain.UpdateBookingRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	b, err := h.Bookings.Update(r.Context(), a, id, &in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BookingsHandler) cancel(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var in domain.CancelBookingRequest
	if !decodeOptionalJSON(w, r, &in) {
		return
	}
	b, err := h.Bookings.Cancel(r.Context(), a, id, &in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BookingsHandler) changeStatus(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var in domain.StatusChangeRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	b, err := h.Bookings.ChangeStatus(r.Context(), a, id, &in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// bookingFilter reads status, room_id and user_id. The service narrows
// non-admin callers to their own bookings.
func bookingFilter(w http.ResponseWriter, r *http.Request) (domain.BookingFilter, page, bool) {
	var f domain.BookingFilter
	p, ok := parsePage(w, r)
	if !ok {
		return f, p, false
	}
	f.Limit, f.Offset = p.Limit, p.Offset

	if raw := r.URL.Query().Get("status"); raw != "" {
		st, ok := domain.ParseBookingStatus(raw)
		if !ok {
			response.FromError(w, r, domain.NewValidationError("status", "must be one of pending, confirmed, cancelled, completed"))
			return f, p, false
		}
		f.Status = &st
	}
	if f.RoomID, ok = optionalInt64(w, r, "room_id"); !ok {
		return f, p, false
	}
	if f.UserID, ok = optionalInt64(w, r, "user_id"); !ok {
		return f, p, false
	}
	return f, p, true
}
