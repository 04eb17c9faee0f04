package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	mw "github.com/diagnosis/hotel-bookings/internal/http/middleware"
	"github.com/diagnosis/hotel-bookings/internal/http/response"
	"github.com/diagnosis/hotel-bookings/internal/service"
	"github.com/go-chi/chi/v5"
)

type RoomsHandler struct {
	Rooms service.RoomService
	Auth  *mw.Authenticator
}

func NewRoomsHandler(rooms service.RoomService, auth *mw.Authenticator) *RoomsHandler {
	return &RoomsHandler{Rooms: rooms, Auth: auth}
}

func (h *RoomsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.search)
	r.Get("/{id}", h.get)
	r.Get("/{id}/availability", h.availability)

	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequireJWT(domain.RoleAdmin))
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
	return r
}

func (h *RoomsHandler) search(w http.ResponseWriter, r *http.Request) {
	p, ok := parsePage(w, r)
	if !ok {
		return
	}
	stay, ok := stayFromQuery(w, r)
	if !ok {
		return
	}
	q := domain.RoomSearch{
		Stay:     stay,
		RoomType: strings.TrimSpace(r.URL.Query().Get("room_type")),
		Limit:    p.Limit,
		Offset:   p.Offset,
	}
	if v := r.URL.Query().Get("guests"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			response.FromError(w, r, domain.NewValidationError("guests", "must be a number"))
			return
		}
		q.Guests = n
	}
	if v := r.URL.Query().Get("status"); v != "" {
		st := domain.RoomStatus(strings.ToLower(v))
		q.Status = &st
	}

	rooms, err := h.Rooms.Search(r.Context(), q)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writePage(w, r, p, rooms)
}

func (h *RoomsHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	rm, err := h.Rooms.Get(r.Context(), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rm)
}

func (h *RoomsHandler) availability(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	stay, ok := stayFromQuery(w, r)
	if !ok {
		return
	}
	if stay == nil {
		response.FromError(w, r, domain.NewValidationError("check_in", "check_in and check_out are required"))
		return
	}
	out, err := h.Rooms.Availability(r.Context(), id, *stay)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *RoomsHandler) create(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var in domain.CreateRoomRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	rm, err := h.Rooms.Create(r.Context(), a, &in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rm)
}

func (h *RoomsHandler) update(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var in domain.UpdateRoomRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	rm, err := h.Rooms.Update(r.Context(), a, id, &in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rm)
}

func (h *RoomsHandler) delete(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.Rooms.Delete(r.Context(), a, id); err != nil {
		response.FromError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
