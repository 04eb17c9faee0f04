package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	"github.com/diagnosis/hotel-bookings/internal/http/response"
	"github.com/diagnosis/hotel-bookings/pkg/auth"
	"github.com/diagnosis/hotel-bookings/pkg/logger"
)

type ctxKey string

const CtxClaims ctxKey = "claims"

// Authenticator validates bearer tokens signed with the configured secret.
type Authenticator struct {
	secret string
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: secret}
}

// RequireJWT rejects requests without a valid bearer token. When roles are
// given the token's role must be one of them.
func (a *Authenticator) RequireJWT(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := a.parse(r)
			if !ok {
				response.WriteError(w, http.StatusUnauthorized, "invalid authorization token", response.CodeInvalidToken)
				return
			}
			if len(roles) > 0 && !hasRole(claims.Role, roles) {
				response.Forbidden(w, "insufficient role")
				return
			}
			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

// OptionalJWT attaches claims when a valid token is present and otherwise
// lets the request through anonymously.
func (a *Authenticator) OptionalJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := a.parse(r); ok {
			r = r.WithContext(withClaims(r.Context(), claims))
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Authenticator) parse(r *http.Request) (*auth.Claims, bool) {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		return nil, false
	}
	claims, err := auth.Parse(strings.TrimPrefix(authz, "Bearer "), a.secret)
	if err != nil || claims.Sub == 0 {
		return nil, false
	}
	return claims, true
}

func withClaims(ctx context.Context, claims *auth.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxClaims, claims)
	return context.WithValue(ctx, logger.UserIDKey, claims.Sub)
}

func hasRole(role string, roles []domain.Role) bool {
	for _, r := range roles {
		if string(r) == role {
			return true
		}
	}
	return false
}

func Claims(r *http.Request) *auth.Claims {
	v, _ := r.Context().Value(CtxClaims).(*auth.Claims)
	return v
}

// Actor returns the authenticated caller, or false for anonymous requests.
func Actor(r *http.Request) (domain.Actor, bool) {
	c := Claims(r)
	if c == nil {
		return domain.Actor{}, false
	}
	return domain.Actor{UserID: c.Sub, Email: c.Email, Role: domain.Role(c.Role)}, true
}
