package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ndeks/nextlevel-backend/internal/domain"
)

type contextKey string

const (
	PrincipalKey contextKey = "principal"
	TokenKey     contextKey = "token"
)

// Authenticator resolves a bearer token to the principal it belongs to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Principal, error)
}

// ErrorWriter renders an error response.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Gate protects routes with bearer-token authentication and role checks.
type Gate struct {
	auth     Authenticator
	writeErr ErrorWriter
}

func NewGate(auth Authenticator, writeErr ErrorWriter) *Gate {
	return &Gate{auth: auth, writeErr: writeErr}
}

// Authenticate checks a raw access token. Websocket upgrades use it
// directly since browsers cannot set headers on them.
func (g *Gate) Authenticate(ctx context.Context, token string) (*domain.Principal, error) {
	return g.auth.Authenticate(ctx, token)
}

// Middleware rejects requests without a current access token and attaches
// the principal to the request context.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := BearerToken(r)
		if err != nil {
			g.writeErr(w, r, err)
			return
		}

		principal, err := g.auth.Authenticate(r.Context(), token)
		if err != nil {
			g.writeErr(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal, token)))
	})
}

// RequireRole rejects principals that do not hold role. It must run after
// Middleware.
func (g *Gate) RequireRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, _ := PrincipalFromContext(r.Context())
			if err := domain.RequireRole(principal, role); err != nil {
				g.writeErr(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", domain.ErrMissingToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", domain.ErrMissingToken
	}
	return token, nil
}

func WithPrincipal(ctx context.Context, principal *domain.Principal, token string) context.Context {
	ctx = context.WithValue(ctx, PrincipalKey, principal)
	return context.WithValue(ctx, TokenKey, token)
}

func PrincipalFromContext(ctx context.Context) (*domain.Principal, bool) {
	principal, ok := ctx.Value(PrincipalKey).(*domain.Principal)
	return principal, ok && principal != nil
}

func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(TokenKey).(string)
	return token
}
