package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/tourkit/pkg/cookie"
	"github.com/dmitrymomot/tourkit/pkg/validator"
)

// loggedOutValue replaces the token in the cookie on logout so the logout is
// visible in browser tooling instead of an empty value.
const loggedOutValue = "loggedout"

// Handler exposes the identity service over HTTP. Every response uses the
// same envelope: status "success" with optional token and data, "fail" for
// client errors with a message, "error" for server faults.
type Handler struct {
	service      *Service
	cookies      *cookie.Manager
	cookieName   string
	cookieSecure bool
	tokenTTL     time.Duration
	log          *slog.Logger
}

// NewHandler creates the HTTP surface of the identity service. The cookie
// lifetime always matches the token TTL so a browser never sends a cookie
// whose token is already expired.
func NewHandler(service *Service, cookies *cookie.Manager, cfg Config, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		service:      service,
		cookies:      cookies,
		cookieName:   cfg.CookieName,
		cookieSecure: cfg.CookieSecure,
		tokenTTL:     cfg.TokenTTL,
		log:          log,
	}
}

// Routes mounts the identity endpoints on a chi router. The guard is built
// by the caller since it also protects routes outside this module. Throttle
// middleware, when given, wraps only login and forgot-password, the two
// endpoints that drive guessing attacks.
func (h *Handler) Routes(guard *Guard, throttle ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/signup", h.Signup)
	r.Get("/logout", h.Logout)
	r.Patch("/reset-password/{token}", h.ResetPassword)

	r.Group(func(r chi.Router) {
		for _, mw := range throttle {
			r.Use(mw)
		}
		r.Post("/login", h.Login)
		r.Post("/forgot-password", h.ForgotPassword)
	})

	r.Group(func(r chi.Router) {
		r.Use(guard.Protect)
		r.Patch("/update-password", h.UpdatePassword)
		r.Get("/me", h.Me)
		r.Patch("/update-me", h.UpdateMe)
		r.Delete("/delete-me", h.DeleteMe)
	})

	r.Group(func(r chi.Router) {
		r.Use(guard.Protect, guard.RequireRole(RoleAdmin))
		r.Get("/", h.List)
	})

	return r
}

type envelope struct {
	Status  string `json:"status"`
	Token   string `json:"token,omitempty"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("failed to write response", slog.Any("error", err))
	}
}

// setAuthCookie mirrors the issued token into the auth cookie so browser
// clients are authenticated without handling the token themselves.
func (h *Handler) setAuthCookie(w http.ResponseWriter, bearer string) {
	h.cookies.Set(w, h.cookieName, bearer,
		cookie.WithMaxAge(int(h.tokenTTL.Seconds())),
		cookie.WithSecure(h.cookieSecure),
	)
}

// respondWithToken is the shared success shape of every endpoint that ends
// an authentication flow: the token in both body and cookie, the identity
// under data.user.
func (h *Handler) respondWithToken(w http.ResponseWriter, status int, ident *Identity, bearer string) {
	h.setAuthCookie(w, bearer)
	h.writeJSON(w, status, envelope{
		Status: "success",
		Token:  bearer,
		Data:   map[string]any{"user": ident},
	})
}

// RenderError maps an error to its response. Operational errors carry their
// own safe message; anything unrecognized is logged with full detail and
// reported as a generic server fault.
func (h *Handler) RenderError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, ve := range verrs {
			fields[ve.Field] = ve.Message
		}
		h.writeJSON(w, http.StatusBadRequest, envelope{
			Status:  "fail",
			Message: "invalid input data",
			Errors:  fields,
		})
		return
	}

	status, ok := statusFor(err)
	if !ok {
		h.log.ErrorContext(r.Context(), "unhandled error",
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
		h.writeJSON(w, http.StatusInternalServerError, envelope{
			Status:  "error",
			Message: "something went wrong",
		})
		return
	}

	class := "fail"
	if status >= http.StatusInternalServerError {
		class = "error"
	}
	h.writeJSON(w, status, envelope{Status: class, Message: err.Error()})
}

func statusFor(err error) (int, bool) {
	switch {
	case errors.Is(err, ErrNotAuthenticated),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrExpiredToken),
		errors.Is(err, ErrStaleIdentity),
		errors.Is(err, ErrPasswordChanged),
		errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized, true
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, true
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, ErrResetTokenInvalid),
		errors.Is(err, ErrEmailAlreadyExists),
		errors.Is(err, ErrPasswordFieldNotAllowed):
		return http.StatusBadRequest, true
	case errors.Is(err, ErrDeliveryFailed):
		return http.StatusInternalServerError, true
	}
	return 0, false
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return validator.ValidationErrors{{Field: "body", Message: "must be valid JSON"}}
	}
	return nil
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var params SignupParams
	if err := decodeBody(r, &params); err != nil {
		h.RenderError(w, r, err)
		return
	}

	ident, bearer, err := h.service.Signup(r.Context(), params)
	if err != nil {
		h.RenderError(w, r, err)
		return
	}

	h.respondWithToken(w, http.StatusCreated, ident, bearer)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var params struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &params); err != nil {
		h.RenderError(w, r, err)
		return
	}

	ident, bearer, err := h.service.Login(r.Context(), params.Email, params.Password)
	if err != nil {
		h.RenderError(w, r, err)
		return
	}

	h.respondWithToken(w, http.StatusOK, ident, bearer)
}

// Logout replaces the auth cookie with an expired placeholder. Tokens held
// outside the cookie stay valid until expiry; statelessness means there is
// no server-side session to destroy.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.Expire(w, h.cookieName, loggedOutValue)
	h.writeJSON(w, http.StatusOK, envelope{Status: "success"})
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var params struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &params); err != nil {
		h.RenderError(w, r, err)
		return
	}
	if err := validator.Apply(validator.ValidEmail("email", params.Email)); err != nil {
		h.RenderError(w, r, err)
		return
	}

	err := h.service.ForgotPassword(r.Context(), params.Email, func(rawToken string) string {
		return h.resetURL(r, rawToken)
	})
	if err != nil {
		h.RenderError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope{
		Status:  "success",
		Message: "token sent to email",
	})
}

// resetURL builds the link mailed to the user from the incoming request, so
// the API works unchanged across environments and reverse proxies that set
// X-Forwarded-Proto.
func (h *Handler) resetURL(r *http.Request, rawToken string) string {
	scheme := "http"
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	} else if r.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/api/v1/users/reset-password/%s", scheme, r.Host, rawToken)
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var params struct {
		Password        string `json:"password"`
		PasswordConfirm string `json:"passwordConfirm"`
	}
	if err := decodeBody(r, &params); err != nil {
		h.RenderError(w, r, err)
		return
	}

	ident, bearer, err := h.service.ResetPassword(r.Context(),
		chi.URLParam(r, "token"), params.Password, params.PasswordConfirm)
	if err != nil {
		h.RenderError(w, r, err)
		return
	}

	h.respondWithToken(w, http.StatusOK, ident, bearer)
}

func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	ident, ok := FromContext(r.Context())
	if !ok {
		h.RenderError(w, r, ErrNotAuthenticated)
		return
	}

	var params struct {
		PasswordCurrent string `json:"passwordCurrent"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"passwordConfirm"`
	}
	if err := decodeBody(r, &params); err != nil {
		h.RenderError(w, r, err)
		return
	}

	updated, bearer, err := h.service.UpdatePassword(r.Context(), ident.ID,
		params.PasswordCurrent, params.Password, params.PasswordConfirm)
	if err != nil {
		h.RenderError(w, r, err)
		return
	}

	h.respondWithToken(w, http.StatusOK, updated, bearer)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	ident, ok := FromContext(r.Context())
	if !ok {
		h.RenderError(w, r, ErrNotAuthenticated)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope{
		Status: "success",
		Data:   map[string]any{"user": ident},
	})
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	ident, ok := FromContext(r.Context())
	if !ok {
		h.RenderError(w, r, ErrNotAuthenticated)
		return
	}

	// Decoded into a map first to detect password fields, which this route
	// must refuse rather than silently drop. Role is silently ignored; mass
	// assignment of privileges is not an input error worth advertising.
	var raw map[string]json.RawMessage
	if err := decodeBody(r, &raw); err != nil {
		h.RenderError(w, r, err)
		return
	}
	if _, ok := raw["password"]; ok {
		h.RenderError(w, r, ErrPasswordFieldNotAllowed)
		return
	}
	if _, ok := raw["passwordConfirm"]; ok {
		h.RenderError(w, r, ErrPasswordFieldNotAllowed)
		return
	}

	var update ProfileUpdate
	assign := func(key string, dst **string) {
		if value, ok := raw[key]; ok {
			var s string
			if json.Unmarshal(value, &s) == nil {
				*dst = &s
			}
		}
	}
	assign("name", &update.Name)
	assign("email", &update.Email)
	assign("photo", &update.Photo)

	updated, err := h.service.UpdateProfile(r.Context(), ident.ID, update)
	if err != nil {
		h.RenderError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope{
		Status: "success",
		Data:   map[string]any{"user": updated},
	})
}

func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	ident, ok := FromContext(r.Context())
	if !ok {
		h.RenderError(w, r, ErrNotAuthenticated)
		return
	}

	if err := h.service.Deactivate(r.Context(), ident.ID); err != nil {
		h.RenderError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	identities, err := h.service.List(r.Context())
	if err != nil {
		h.RenderError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope{
		Status: "success",
		Data:   map[string]any{"users": identities},
	})
}
