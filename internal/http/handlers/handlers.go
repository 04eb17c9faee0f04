package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	mw "github.com/diagnosis/hotel-bookings/internal/http/middleware"
	"github.com/diagnosis/hotel-bookings/internal/http/response"
	"github.com/go-chi/chi/v5"
	"github.com/google/go-querystring/query"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	response.JSON(w, status, v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst); err != nil {
		response.BadRequest(w, "invalid json: "+err.Error())
		return false
	}
	return true
}

// decodeOptionalJSON accepts an empty body and leaves dst untouched.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.ContentLength == 0 {
		return true
	}
	return decodeJSON(w, r, dst)
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "invalid id")
		return 0, false
	}
	return id, true
}

func actor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	a, ok := mw.Actor(r)
	if !ok {
		response.Unauthorized(w, "unauthorized")
	}
	return a, ok
}

type page struct {
	Limit  int `url:"limit"`
	Offset int `url:"offset"`
}

func parsePage(w http.ResponseWriter, r *http.Request) (page, bool) {
	p := page{Limit: defaultLimit}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			response.BadRequest(w, "invalid limit")
			return p, false
		}
		if n > maxLimit {
			n = maxLimit
		}
		if n > 0 {
			p.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			response.BadRequest(w, "invalid offset")
			return p, false
		}
		p.Offset = n
	}
	return p, true
}

// writePage writes a list body and, when the page is full, a Link header
// pointing at the next page with the caller's other filters preserved.
func writePage[T any](w http.ResponseWriter, r *http.Request, p page, items []T) {
	if items == nil {
		items = []T{}
	}
	if len(items) == p.Limit {
		next, err := query.Values(page{Limit: p.Limit, Offset: p.Offset + p.Limit})
		if err == nil {
			q := r.URL.Query()
			for k, v := range next {
				q[k] = v
			}
			u := *r.URL
			u.RawQuery = q.Encode()
			w.Header().Set("Link", fmt.Sprintf(`<%s>; rel="next"`, u.RequestURI()))
		}
	}
	writeJSON(w, http.StatusOK, items)
}

func optionalInt64(w http.ResponseWriter, r *http.Request, name string) (*int64, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, true
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		response.FromError(w, r, domain.NewValidationError(name, "must be a positive integer"))
		return nil, false
	}
	return &n, true
}

// stayFromQuery reads check_in/check_out. Both absent yields nil.
func stayFromQuery(w http.ResponseWriter, r *http.Request) (*domain.Stay, bool) {
	in, out := r.URL.Query().Get("check_in"), r.URL.Query().Get("check_out")
	if in == "" && out == "" {
		return nil, true
	}
	v := &domain.ValidationError{}
	var s domain.Stay
	var err error
	if in != "" {
		if s.CheckIn, err = domain.ParseDate(in); err != nil {
			v.Add("check_in", "must be a YYYY-MM-DD date")
		}
	}
	if out != "" {
		if s.CheckOut, err = domain.ParseDate(out); err != nil {
			v.Add("check_out", "must be a YYYY-MM-DD date")
		}
	}
	if err := v.OrNil(); err != nil {
		response.FromError(w, r, err)
		return nil, false
	}
	if err := s.Validate(); err != nil {
		response.FromError(w, r, err)
		return nil, false
	}
	return &s, true
}
