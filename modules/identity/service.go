package identity

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tourkit/pkg/async"
	"github.com/dmitrymomot/tourkit/pkg/jwt"
	"github.com/dmitrymomot/tourkit/pkg/password"
	"github.com/dmitrymomot/tourkit/pkg/sanitizer"
	"github.com/dmitrymomot/tourkit/pkg/token"
	"github.com/dmitrymomot/tourkit/pkg/validator"
)

// Service implements the identity lifecycle: signup, login, access guarding,
// password reset and self-service account management. It owns every path
// that touches a password hash; nothing outside this package ever sees one.
type Service struct {
	storage  Storage
	hasher   *password.Hasher
	tokens   *jwt.Service
	notifier Notifier
	log      *slog.Logger

	// hashPool bounds concurrent key derivations so a burst of signups or
	// logins cannot monopolize the CPU budget of the process.
	hashPool *async.Pool

	resetTokenTTL time.Duration
	notifyTimeout time.Duration
}

// Option configures optional Service behavior.
type Option func(*Service)

// WithLogger sets the logger. Default discards.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithResetTokenTTL overrides the reset token validity window.
func WithResetTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.resetTokenTTL = ttl
		}
	}
}

// WithNotifyTimeout overrides the delivery deadline for outbound
// notifications. A notification still in flight past the deadline counts as
// a delivery failure.
func WithNotifyTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.notifyTimeout = timeout
		}
	}
}

// WithHashPool sets the bounded pool used for password hashing.
func WithHashPool(pool *async.Pool) Option {
	return func(s *Service) {
		if pool != nil {
			s.hashPool = pool
		}
	}
}

// NewService assembles an identity service from its dependencies.
func NewService(storage Storage, hasher *password.Hasher, tokens *jwt.Service, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		storage:       storage,
		hasher:        hasher,
		tokens:        tokens,
		notifier:      notifier,
		log:           slog.New(slog.DiscardHandler),
		hashPool:      async.NewPool(0),
		resetTokenTTL: 10 * time.Minute,
		notifyTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const minPasswordLength = 8

// SignupParams is the input of Signup. Role is absent on purpose: every
// signup creates a plain user, privileged roles are assigned out of band.
type SignupParams struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// Validate checks the signup input and returns accumulated field errors.
func (p SignupParams) Validate() error {
	return validator.Apply(
		validator.Required("name", p.Name),
		validator.Required("email", p.Email),
		validator.ValidEmail("email", p.Email),
		validator.MinLength("password", p.Password, minPasswordLength),
		validator.Equals("passwordConfirm", p.PasswordConfirm, p.Password),
	)
}

// Signup registers a new identity and returns it with a freshly issued
// bearer token. The welcome message is best effort; its failure is logged
// and never surfaces to the caller.
func (s *Service) Signup(ctx context.Context, params SignupParams) (*Identity, string, error) {
	if err := params.Validate(); err != nil {
		return nil, "", err
	}

	hash, err := async.Run(ctx, s.hashPool, func() (string, error) {
		return s.hasher.Hash(params.Password)
	})
	if err != nil {
		return nil, "", err
	}

	ident, err := s.storage.Create(ctx, params.Name, sanitizer.NormalizeEmail(params.Email), hash, RoleUser)
	if err != nil {
		return nil, "", err
	}

	bearer, err := s.tokens.Issue(ident.ID)
	if err != nil {
		return nil, "", err
	}

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()
	if err := s.notifier.SendWelcome(notifyCtx, ident.Email, ident.Name); err != nil {
		s.log.WarnContext(ctx, "failed to send welcome email",
			slog.String("identity_id", ident.ID.String()),
			slog.Any("error", err))
	}

	return ident, bearer, nil
}

// Login verifies an email/password pair and returns the identity with a
// fresh bearer token. Unknown email and wrong password collapse into the
// same ErrInvalidCredentials so responses cannot be used to enumerate
// accounts.
func (s *Service) Login(ctx context.Context, emailAddr, plainPassword string) (*Identity, string, error) {
	if emailAddr == "" || plainPassword == "" {
		return nil, "", validator.Apply(
			validator.Required("email", emailAddr),
			validator.Required("password", plainPassword),
		)
	}

	creds, err := s.storage.CredentialsByEmail(ctx, sanitizer.NormalizeEmail(emailAddr))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	ok, err := async.Run(ctx, s.hashPool, func() (bool, error) {
		return s.hasher.Verify(plainPassword, creds.PasswordHash)
	})
	if err != nil || !ok {
		return nil, "", ErrInvalidCredentials
	}

	bearer, err := s.tokens.Issue(creds.ID)
	if err != nil {
		return nil, "", err
	}

	return &creds.Identity, bearer, nil
}

// Authenticate resolves a raw bearer token into a live identity. The checks
// run in a fixed order: structural/signature validity, expiry, the identity
// still existing, and the password not having changed at or after the
// token's issue time.
func (s *Service) Authenticate(ctx context.Context, rawToken string) (*Identity, error) {
	if rawToken == "" {
		return nil, ErrNotAuthenticated
	}

	claims, err := s.tokens.Verify(rawToken)
	if err != nil {
		if errors.Is(err, jwt.ErrExpiredToken) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	ident, err := s.storage.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrStaleIdentity) || errors.Is(err, ErrNotFound) {
			return nil, ErrStaleIdentity
		}
		return nil, err
	}

	if ident.PasswordChangedSince(claims.IssuedAt) {
		return nil, ErrPasswordChanged
	}

	return ident, nil
}

// ForgotPassword issues a single-use reset token for the account and mails
// the raw token link. Only the SHA-256 digest is persisted. When delivery
// fails or exceeds the notify timeout, the stored digest is rolled back so
// no orphaned token stays live, and ErrDeliveryFailed is returned.
//
// An unknown email returns ErrNotFound. This mirrors long-standing API
// behavior and is a known account-enumeration trade-off; the rate limit on
// the endpoint is the compensating control.
func (s *Service) ForgotPassword(ctx context.Context, emailAddr string, resetURL func(rawToken string) string) error {
	ident, err := s.storage.FindByEmail(ctx, sanitizer.NormalizeEmail(emailAddr))
	if err != nil {
		return err
	}

	raw, err := token.New()
	if err != nil {
		return err
	}

	expiresAt := time.Now().Add(s.resetTokenTTL)
	if err := s.storage.SetResetToken(ctx, ident.ID, token.Hash(raw), expiresAt); err != nil {
		return err
	}

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()

	if err := s.notifier.SendPasswordReset(notifyCtx, ident.Email, ident.Name, resetURL(raw)); err != nil {
		s.log.ErrorContext(ctx, "failed to deliver reset token, rolling back",
			slog.String("identity_id", ident.ID.String()),
			slog.Any("error", err))

		if rbErr := s.storage.ClearResetToken(context.WithoutCancel(ctx), ident.ID); rbErr != nil {
			s.log.ErrorContext(ctx, "failed to roll back reset token",
				slog.String("identity_id", ident.ID.String()),
				slog.Any("error", rbErr))
		}
		return ErrDeliveryFailed
	}

	return nil
}

// ResetPassword consumes a raw reset token and sets a new password,
// returning the identity with a fresh bearer token. Consumption and the
// password write happen in one storage call, so a token can never be
// redeemed twice. Unknown and expired tokens are indistinguishable.
func (s *Service) ResetPassword(ctx context.Context, rawToken, newPassword, confirm string) (*Identity, string, error) {
	if err := validator.Apply(
		validator.MinLength("password", newPassword, minPasswordLength),
		validator.Equals("passwordConfirm", confirm, newPassword),
	); err != nil {
		return nil, "", err
	}

	ident, err := s.storage.FindByResetTokenHash(ctx, token.Hash(rawToken), time.Now())
	if err != nil {
		return nil, "", err
	}

	return s.changePassword(ctx, ident, newPassword)
}

// UpdatePassword changes the password of an authenticated identity after
// re-verifying the current one, and returns a fresh bearer token so the
// caller's session survives the change that invalidates all older tokens.
func (s *Service) UpdatePassword(ctx context.Context, id uuid.UUID, current, newPassword, confirm string) (*Identity, string, error) {
	if err := validator.Apply(
		validator.Required("passwordCurrent", current),
		validator.MinLength("password", newPassword, minPasswordLength),
		validator.Equals("passwordConfirm", confirm, newPassword),
	); err != nil {
		return nil, "", err
	}

	creds, err := s.storage.CredentialsByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", ErrStaleIdentity
		}
		return nil, "", err
	}

	ok, err := async.Run(ctx, s.hashPool, func() (bool, error) {
		return s.hasher.Verify(current, creds.PasswordHash)
	})
	if err != nil || !ok {
		return nil, "", ErrInvalidCredentials
	}

	return s.changePassword(ctx, &creds.Identity, newPassword)
}

// changePassword is the single write path for password changes. The change
// timestamp is stamped one second in the past so the token issued right
// after, whose iat has one-second resolution, is not invalidated by its own
// change.
func (s *Service) changePassword(ctx context.Context, ident *Identity, newPassword string) (*Identity, string, error) {
	hash, err := async.Run(ctx, s.hashPool, func() (string, error) {
		return s.hasher.Hash(newPassword)
	})
	if err != nil {
		return nil, "", err
	}

	changedAt := time.Now().Add(-time.Second)
	if err := s.storage.UpdatePassword(ctx, ident.ID, hash, changedAt); err != nil {
		return nil, "", err
	}
	ident.PasswordChangedAt = &changedAt

	bearer, err := s.tokens.Issue(ident.ID)
	if err != nil {
		return nil, "", err
	}

	s.log.InfoContext(ctx, "password changed",
		slog.String("identity_id", ident.ID.String()))

	return ident, bearer, nil
}

// UpdateProfile applies a self-service profile change.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*Identity, error) {
	if update.Email != nil {
		if err := validator.Apply(validator.ValidEmail("email", *update.Email)); err != nil {
			return nil, err
		}
		normalized := sanitizer.NormalizeEmail(*update.Email)
		update.Email = &normalized
	}
	if update.Name != nil {
		if err := validator.Apply(validator.Required("name", *update.Name)); err != nil {
			return nil, err
		}
	}

	return s.storage.UpdateProfile(ctx, id, update)
}

// Deactivate soft-deletes the identity. All outstanding tokens become
// useless at the next guard check because no read path returns the row.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.storage.Deactivate(ctx, id); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "identity deactivated", slog.String("identity_id", id.String()))
	return nil
}

// List returns all active identities.
func (s *Service) List(ctx context.Context) ([]Identity, error) {
	return s.storage.List(ctx)
}
