package handlers

import (
	"net/http"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	mw "github.com/diagnosis/hotel-bookings/internal/http/middleware"
	"github.com/diagnosis/hotel-bookings/internal/http/response"
	"github.com/diagnosis/hotel-bookings/internal/service"
	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	Users   service.UserService
	Limiter *mw.RateLimiter
}

func NewAuthHandler(users service.UserService, limiter *mw.RateLimiter) *AuthHandler {
	return &AuthHandler{Users: users, Limiter: limiter}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	if h.Limiter != nil {
		r.With(h.Limiter.Middleware()).Post("/login", h.login)
	} else {
		r.Post("/login", h.login)
	}
	return r
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var in domain.LoginRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	out, err := h.Users.Login(r.Context(), &in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type UsersHandler struct {
	Users service.UserService
	Auth  *mw.Authenticator
}

func NewUsersHandler(users service.UserService, auth *mw.Authenticator) *UsersHandler {
	return &UsersHandler{Users: users, Auth: auth}
}

func (h *UsersHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.With(h.Auth.OptionalJWT).Post("/", h.register)
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequireJWT())
		r.With(h.Auth.RequireJWT(domain.RoleAdmin)).Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
	return r
}

func (h *UsersHandler) register(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateUserRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	var caller *domain.Actor
	if a, ok := mw.Actor(r); ok {
		caller = &a
	}
	u, err := h.Users.Register(r.Context(), caller, &in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *UsersHandler) list(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	p, ok := parsePage(w, r)
	if !ok {
		return
	}
	users, err := h.Users.List(r.Context(), a, p.Limit, p.Offset)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writePage(w, r, p, users)
}

func (h *UsersHandler) get(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	u, err := h.Users.Get(r.Context(), a, id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UsersHandler) update(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var in domain.UpdateUserRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	u, err := h.Users.Update(r.Context(), a, id, &in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UsersHandler) delete(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.Users.Delete(r.Context(), a, id); err != nil {
		response.FromError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
