package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	"github.com/diagnosis/hotel-bookings/pkg/auth"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func bearer(t *testing.T, sub int64, role domain.Role) string {
	t.Helper()
	tok, err := auth.NewAccessToken(sub, "u@example.com", string(role), testSecret, time.Minute)
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestRequireJWT(t *testing.T) {
	a := NewAuthenticator(testSecret)

	var seen domain.Actor
	h := a.RequireJWT(domain.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = Actor(r)
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
		{"wrong role", bearer(t, 7, domain.RoleCustomer), http.StatusForbidden},
		{"admin", bearer(t, 1, domain.RoleAdmin), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
	assert.Equal(t, int64(1), seen.UserID)
	assert.True(t, seen.IsAdmin())
}

func TestOptionalJWT(t *testing.T) {
	a := NewAuthenticator(testSecret)
	var ok bool
	h := a.OptionalJWT(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok = Actor(r)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", bearer(t, 7, domain.RoleCustomer))
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, ok)
}

func TestRateLimiter(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rl := NewRateLimiter(db, RateLimitConfig{Name: "login", Requests: 2, Window: time.Minute})
	key := rl.redisKey("ip:10.0.0.1")

	for i := int64(1); i <= 3; i++ {
		mock.ExpectTxPipeline()
		mock.ExpectIncr(key).SetVal(i)
		mock.ExpectExpireNX(key, time.Minute).SetVal(i == 1)
		mock.ExpectTxPipelineExec()
	}

	h := rl.Middleware()(http.HandlerFunc(okHandler))
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:40000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiterFailsOpen(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rl := NewRateLimiter(db, RateLimitConfig{Name: "login", Requests: 1, Window: time.Minute})
	key := rl.redisKey("ip:192.0.2.1")

	mock.ExpectTxPipeline()
	mock.ExpectIncr(key).SetErr(errors.New("connection refused"))
	mock.ExpectExpireNX(key, time.Minute).SetErr(errors.New("connection refused"))
	mock.ExpectTxPipelineExec().SetErr(errors.New("connection refused"))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	assert.True(t, rl.Allow(req.Context(), IPKeyFunc(req)[0]))
}

func TestGetClientIP_IgnoresForwardingHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:1234"
	assert.Equal(t, "203.0.113.9", getClientIP(req))

	keys := map[string]bool{}
	for _, xff := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
		req.Header.Set("X-Forwarded-For", xff)
		req.Header.Set("X-Real-IP", xff)
		keys[IPKeyFunc(req)[0]] = true
	}
	assert.Equal(t, map[string]bool{"ip:203.0.113.9": true}, keys)

	req.RemoteAddr = "unix-socket"
	assert.Equal(t, "unix-socket", getClientIP(req))
}
