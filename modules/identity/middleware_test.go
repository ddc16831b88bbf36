package identity_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tourkit/modules/identity"
	"github.com/dmitrymomot/tourkit/pkg/cookie"
)

const authCookieName = "jwt"

func newGuard(auth *mockAuthenticator) *identity.Guard {
	return identity.NewGuard(auth, cookie.New(), authCookieName,
		func(w http.ResponseWriter, r *http.Request, err error) {
			status := http.StatusUnauthorized
			if errors.Is(err, identity.ErrForbidden) {
				status = http.StatusForbidden
			}
			http.Error(w, err.Error(), status)
		})
}

// okHandler records the identity the guard attached to the context.
func okHandler(t *testing.T, seen **identity.Identity) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ident, ok := identity.FromContext(r.Context()); ok {
			*seen = ident
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestGuard_Protect(t *testing.T) {
	t.Parallel()

	ident := testIdentity(identity.RoleUser)

	t.Run("header bearer wins over cookie", func(t *testing.T) {
		t.Parallel()

		auth := &mockAuthenticator{}
		auth.On("Authenticate", mock.Anything, "header-token").Return(ident, nil)

		var seen *identity.Identity
		handler := newGuard(auth).Protect(okHandler(t, &seen))

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer header-token")
		req.AddCookie(&http.Cookie{Name: authCookieName, Value: "cookie-token"})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, ident.ID, seen.ID)
		auth.AssertCalled(t, "Authenticate", mock.Anything, "header-token")
	})

	t.Run("falls back to cookie", func(t *testing.T) {
		t.Parallel()

		auth := &mockAuthenticator{}
		auth.On("Authenticate", mock.Anything, "cookie-token").Return(ident, nil)

		var seen *identity.Identity
		handler := newGuard(auth).Protect(okHandler(t, &seen))

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: authCookieName, Value: "cookie-token"})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotNil(t, seen)
	})

	t.Run("anonymous request is rejected", func(t *testing.T) {
		t.Parallel()

		auth := &mockAuthenticator{}
		auth.On("Authenticate", mock.Anything, "").Return(nil, identity.ErrNotAuthenticated)

		handler := newGuard(auth).Protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run")
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("non-bearer authorization header is ignored", func(t *testing.T) {
		t.Parallel()

		auth := &mockAuthenticator{}
		auth.On("Authenticate", mock.Anything, "").Return(nil, identity.ErrNotAuthenticated)

		handler := newGuard(auth).Protect(okHandler(t, new(*identity.Identity)))

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestGuard_Optional(t *testing.T) {
	t.Parallel()

	t.Run("attaches identity when token is valid", func(t *testing.T) {
		t.Parallel()

		ident := testIdentity(identity.RoleUser)
		auth := &mockAuthenticator{}
		auth.On("Authenticate", mock.Anything, "valid").Return(ident, nil)

		var seen *identity.Identity
		handler := newGuard(auth).Optional(okHandler(t, &seen))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer valid")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotNil(t, seen)
	})

	t.Run("passes through anonymously on failure", func(t *testing.T) {
		t.Parallel()

		auth := &mockAuthenticator{}
		auth.On("Authenticate", mock.Anything, mock.Anything).Return(nil, identity.ErrInvalidToken)

		var seen *identity.Identity
		handler := newGuard(auth).Optional(okHandler(t, &seen))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer garbage")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, seen)
	})
}

func TestGuard_RequireRole(t *testing.T) {
	t.Parallel()

	protect := func(t *testing.T, role identity.Role, allowed ...identity.Role) *httptest.ResponseRecorder {
		t.Helper()

		ident := testIdentity(role)
		auth := &mockAuthenticator{}
		auth.On("Authenticate", mock.Anything, "valid").Return(ident, nil)

		guard := newGuard(auth)
		handler := guard.Protect(guard.RequireRole(allowed...)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}),
		))

		req := httptest.NewRequest(http.MethodDelete, "/tours/1", nil)
		req.Header.Set("Authorization", "Bearer valid")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("allowed role passes", func(t *testing.T) {
		t.Parallel()
		rec := protect(t, identity.RoleAdmin, identity.RoleAdmin, identity.RoleLeadGuide)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("excluded role is forbidden", func(t *testing.T) {
		t.Parallel()
		rec := protect(t, identity.RoleUser, identity.RoleAdmin, identity.RoleLeadGuide)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("without guard context rejects as unauthenticated", func(t *testing.T) {
		t.Parallel()

		guard := newGuard(&mockAuthenticator{})
		handler := guard.RequireRole(identity.RoleAdmin)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not run")
			}),
		)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
