package handlers

import (
	"net/http"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	mw "github.com/diagnosis/hotel-bookings/internal/http/middleware"
	"github.com/diagnosis/hotel-bookings/internal/http/response"
	"github.com/diagnosis/hotel-bookings/internal/service"
	"github.com/go-chi/chi/v5"
)

type PaymentsHandler struct {
	Payments service.PaymentService
	Auth     *mw.Authenticator
}

func NewPaymentsHandler(payments service.PaymentService, auth *mw.Authenticator) *PaymentsHandler {
	return &PaymentsHandler{Payments: payments, Auth: auth}
}

func (h *PaymentsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.Auth.RequireJWT())
	r.Post("/", h.create)
	r.Get("/{id}", h.get)

	admin := h.Auth.RequireJWT(domain.RoleAdmin)
	r.With(admin).Get("/", h.list)
	r.With(admin).Put("/{id}", h.callback)
	r.With(admin).Delete("/{id}", h.delete)
	r.With(admin).Post("/{id}/refund", h.refund)
	return r
}

func (h *PaymentsHandler) create(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var in domain.CreatePaymentRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.Payments.Create(r.Context(), a, &in, r.Header.Get("Idempotency-Key"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *PaymentsHandler) list(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	pg, ok := parsePage(w, r)
	if !ok {
		return
	}
	f := domain.PaymentFilter{Limit: pg.Limit, Offset: pg.Offset}
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, ok := domain.ParsePaymentStatus(raw)
		if !ok {
			response.FromError(w, r, domain.NewValidationError("status", "must be one of pending, completed, failed, refunded"))
			return
		}
		f.Status = &st
	}
	ps, err := h.Payments.List(r.Context(), a, f)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writePage(w, r, pg, ps)
}

func (h *PaymentsHandler) get(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	p, err := h.Payments.Get(r.Context(), a, id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PaymentsHandler) callback(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var in domain.PaymentCallback
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.Payments.ApplyCallback(r.Context(), a, id, &in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PaymentsHandler) refund(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var in domain.RefundRequest
	if !decodeOptionalJSON(w, r, &in) {
		return
	}
	p, err := h.Payments.Refund(r.Context(), a, id, &in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PaymentsHandler) delete(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.Payments.Delete(r.Context(), a, id); err != nil {
		response.FromError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
