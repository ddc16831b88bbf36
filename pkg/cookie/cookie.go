package cookie

import (
	"errors"
	"net/http"
	"time"
)

// Manager writes and reads cookies with a consistent set of security
// attributes. Defaults are httpOnly + SameSite=Lax; Secure is a deployment
// decision flipped on for production behind TLS.
type Manager struct {
	defaults Options
}

// New creates a Manager with the given default options applied to every
// cookie it writes.
func New(opts ...Option) *Manager {
	defaults := Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &Manager{defaults: applyOptions(defaults, opts)}
}

// Set writes a cookie, merging per-call options over the manager defaults.
func (m *Manager) Set(w http.ResponseWriter, name, value string, opts ...Option) {
	options := applyOptions(m.defaults, opts)

	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     options.Path,
		Domain:   options.Domain,
		MaxAge:   options.MaxAge,
		Expires:  options.Expires,
		Secure:   options.Secure,
		HttpOnly: options.HttpOnly,
		SameSite: options.SameSite,
	})
}

// Get returns the named cookie's value, or ErrCookieNotFound.
func (m *Manager) Get(r *http.Request, name string) (string, error) {
	cookie, err := r.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrCookieNotFound
		}
		return "", err
	}
	return cookie.Value, nil
}

// Expire replaces the named cookie with an immediately-expired placeholder
// value. Browsers drop the cookie on receipt; the placeholder makes the
// logout visible in debugging tools instead of an empty string.
func (m *Manager) Expire(w http.ResponseWriter, name, placeholder string) {
	m.Set(w, name, placeholder,
		WithMaxAge(-1),
		WithExpires(time.Unix(0, 0)),
	)
}
