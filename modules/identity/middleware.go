package identity

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrymomot/tourkit/pkg/cookie"
)

// Authenticator is the part of the service the access guard needs. Narrowed
// to an interface so middleware tests run against a mock instead of a full
// service stack.
type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (*Identity, error)
}

// Guard protects routes with bearer authentication and role checks. It
// extracts the credential from the Authorization header or, failing that,
// from the auth cookie, resolves it to a live identity and attaches the
// identity to the request context.
type Guard struct {
	auth       Authenticator
	cookies    *cookie.Manager
	cookieName string
	onError    func(w http.ResponseWriter, r *http.Request, err error)
}

// NewGuard creates a guard resolving tokens through auth. onError renders
// guard failures; the handler package supplies its envelope renderer so
// guard errors look like every other API error.
func NewGuard(auth Authenticator, cookies *cookie.Manager, cookieName string, onError func(http.ResponseWriter, *http.Request, error)) *Guard {
	return &Guard{
		auth:       auth,
		cookies:    cookies,
		cookieName: cookieName,
		onError:    onError,
	}
}

// bearerToken extracts the raw credential: "Authorization: Bearer <token>"
// wins, the auth cookie is the fallback. Empty string means anonymous.
func (g *Guard) bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if value, err := g.cookies.Get(r, g.cookieName); err == nil {
		return value
	}
	return ""
}

// Protect rejects anonymous and invalid requests before the wrapped handler
// runs. On success the resolved identity is available via FromContext.
func (g *Guard) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, err := g.auth.Authenticate(r.Context(), g.bearerToken(r))
		if err != nil {
			g.onError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), ident)))
	})
}

// Optional resolves an identity when a valid credential is present and
// passes the request through anonymously otherwise. Useful for routes that
// render differently for logged-in users but never reject.
func (g *Guard) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ident, err := g.auth.Authenticate(r.Context(), g.bearerToken(r)); err == nil {
			r = r.WithContext(NewContext(r.Context(), ident))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole allows only identities holding one of the given roles. It must
// run inside Protect; without a resolved identity it rejects as
// unauthenticated rather than panicking.
func (g *Guard) RequireRole(roles ...Role) func(http.Handler) http.Handler {
	allowed := make(map[Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, ok := FromContext(r.Context())
			if !ok {
				g.onError(w, r, ErrNotAuthenticated)
				return
			}
			if _, ok := allowed[ident.Role]; !ok {
				g.onError(w, r, ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
