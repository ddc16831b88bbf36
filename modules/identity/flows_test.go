package identity_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tourkit/modules/identity"
	"github.com/dmitrymomot/tourkit/pkg/token"
)

// memStorage is a map-backed Storage with the same visibility rules as the
// SQL implementation: inactive rows are invisible, reset tokens expire and
// are cleared by the password write. It backs the end-to-end flow tests that
// mocks cannot express, such as a reset token being usable exactly once.
type memStorage struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*memRow
}

type memRow struct {
	identity.Credentials
	active            bool
	resetTokenHash    string
	resetTokenExpires time.Time
}

func newMemStorage() *memStorage {
	return &memStorage{rows: make(map[uuid.UUID]*memRow)}
}

func (s *memStorage) Create(_ context.Context, name, email, passwordHash string, role identity.Role) (*identity.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.rows {
		if row.Email == email {
			return nil, identity.ErrEmailAlreadyExists
		}
	}

	row := &memRow{
		Credentials: identity.Credentials{
			Identity: identity.Identity{
				ID:        uuid.New(),
				Name:      name,
				Email:     email,
				Role:      role,
				CreatedAt: time.Now(),
			},
			PasswordHash: passwordHash,
		},
		active: true,
	}
	s.rows[row.ID] = row

	ident := row.Identity
	return &ident, nil
}

func (s *memStorage) FindByID(_ context.Context, id uuid.UUID) (*identity.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok || !row.active {
		return nil, identity.ErrStaleIdentity
	}
	ident := row.Identity
	return &ident, nil
}

func (s *memStorage) findActiveByEmail(email string) *memRow {
	for _, row := range s.rows {
		if row.active && row.Email == email {
			return row
		}
	}
	return nil
}

func (s *memStorage) FindByEmail(_ context.Context, email string) (*identity.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.findActiveByEmail(email)
	if row == nil {
		return nil, identity.ErrNotFound
	}
	ident := row.Identity
	return &ident, nil
}

func (s *memStorage) CredentialsByEmail(_ context.Context, email string) (*identity.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.findActiveByEmail(email)
	if row == nil {
		return nil, identity.ErrNotFound
	}
	creds := row.Credentials
	return &creds, nil
}

func (s *memStorage) CredentialsByID(_ context.Context, id uuid.UUID) (*identity.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok || !row.active {
		return nil, identity.ErrNotFound
	}
	creds := row.Credentials
	return &creds, nil
}

func (s *memStorage) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string, changedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok || !row.active {
		return identity.ErrStaleIdentity
	}
	row.PasswordHash = passwordHash
	row.PasswordChangedAt = &changedAt
	row.resetTokenHash = ""
	row.resetTokenExpires = time.Time{}
	return nil
}

func (s *memStorage) SetResetToken(_ context.Context, id uuid.UUID, tokenHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok || !row.active {
		return identity.ErrStaleIdentity
	}
	row.resetTokenHash = tokenHash
	row.resetTokenExpires = expiresAt
	return nil
}

func (s *memStorage) ClearResetToken(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if row, ok := s.rows[id]; ok {
		row.resetTokenHash = ""
		row.resetTokenExpires = time.Time{}
	}
	return nil
}

func (s *memStorage) FindByResetTokenHash(_ context.Context, tokenHash string, now time.Time) (*identity.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.rows {
		if row.active && row.resetTokenHash == tokenHash && row.resetTokenExpires.After(now) {
			ident := row.Identity
			return &ident, nil
		}
	}
	return nil, identity.ErrResetTokenInvalid
}

func (s *memStorage) UpdateProfile(_ context.Context, id uuid.UUID, update identity.ProfileUpdate) (*identity.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok || !row.active {
		return nil, identity.ErrStaleIdentity
	}
	if update.Name != nil {
		row.Name = *update.Name
	}
	if update.Email != nil {
		row.Email = *update.Email
	}
	if update.Photo != nil {
		row.Photo = *update.Photo
	}
	ident := row.Identity
	return &ident, nil
}

func (s *memStorage) Deactivate(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok || !row.active {
		return identity.ErrStaleIdentity
	}
	row.active = false
	return nil
}

func (s *memStorage) List(_ context.Context) ([]identity.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []identity.Identity
	for _, row := range s.rows {
		if row.active {
			out = append(out, row.Identity)
		}
	}
	return out, nil
}

// capture returns a notifier that records the reset URL it was asked to send.
func captureNotifier(mailedURL *string) *mockNotifier {
	n := &mockNotifier{}
	n.On("SendWelcome", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	n.On("SendPasswordReset", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { *mailedURL = args.String(3) }).
		Return(nil).Maybe()
	return n
}

func signupFlow(t *testing.T, svc *identity.Service) *identity.Identity {
	t.Helper()
	ident, _, err := svc.Signup(context.Background(), identity.SignupParams{
		Name:            "Flow User",
		Email:           "flow@example.com",
		Password:        "original password",
		PasswordConfirm: "original password",
	})
	require.NoError(t, err)
	return ident
}

func TestFlow_ResetTokenSingleUse(t *testing.T) {
	t.Parallel()

	var mailedURL string
	store := newMemStorage()
	notifier := captureNotifier(&mailedURL)
	svc := identity.NewService(store, fastHasher(t), tokenService(t, time.Hour), notifier)

	ident := signupFlow(t, svc)
	ctx := context.Background()

	resetURL := func(raw string) string { return "https://app.test/reset/" + raw }
	require.NoError(t, svc.ForgotPassword(ctx, ident.Email, resetURL))

	raw := strings.TrimPrefix(mailedURL, "https://app.test/reset/")
	require.NotEmpty(t, raw)

	_, bearer, err := svc.ResetPassword(ctx, raw, "fresh password!", "fresh password!")
	require.NoError(t, err)

	// The fresh token authenticates even though the change just happened.
	_, err = svc.Authenticate(ctx, bearer)
	require.NoError(t, err)

	// Second redemption of the same plaintext token must fail.
	_, _, err = svc.ResetPassword(ctx, raw, "another password!", "another password!")
	assert.ErrorIs(t, err, identity.ErrResetTokenInvalid)

	// And the new password is live.
	_, _, err = svc.Login(ctx, ident.Email, "fresh password!")
	assert.NoError(t, err)
	_, _, err = svc.Login(ctx, ident.Email, "original password")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
}

func TestFlow_ResetTokenExpiry(t *testing.T) {
	t.Parallel()

	var mailedURL string
	store := newMemStorage()
	svc := identity.NewService(store, fastHasher(t), tokenService(t, time.Hour), captureNotifier(&mailedURL),
		identity.WithResetTokenTTL(30*time.Millisecond))

	ident := signupFlow(t, svc)
	ctx := context.Background()

	require.NoError(t, svc.ForgotPassword(ctx, ident.Email, func(raw string) string { return raw }))
	raw := mailedURL

	time.Sleep(60 * time.Millisecond)

	_, _, err := svc.ResetPassword(ctx, raw, "fresh password!", "fresh password!")
	assert.ErrorIs(t, err, identity.ErrResetTokenInvalid)
}

func TestFlow_RollbackLeavesNoUsableToken(t *testing.T) {
	t.Parallel()

	store := newMemStorage()

	notifier := &mockNotifier{}
	notifier.On("SendWelcome", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	var mailedURL string
	notifier.On("SendPasswordReset", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { mailedURL = args.String(3) }).
		Return(assert.AnError)

	svc := identity.NewService(store, fastHasher(t), tokenService(t, time.Hour), notifier)

	ident := signupFlow(t, svc)
	ctx := context.Background()

	err := svc.ForgotPassword(ctx, ident.Email, func(raw string) string { return raw })
	require.ErrorIs(t, err, identity.ErrDeliveryFailed)

	// The token that was never delivered must not be redeemable.
	require.NotEmpty(t, mailedURL)
	_, _, err = svc.ResetPassword(ctx, mailedURL, "fresh password!", "fresh password!")
	assert.ErrorIs(t, err, identity.ErrResetTokenInvalid)

	_, err = store.FindByResetTokenHash(ctx, token.Hash(mailedURL), time.Now())
	assert.ErrorIs(t, err, identity.ErrResetTokenInvalid)
}

func TestFlow_SoftDelete(t *testing.T) {
	t.Parallel()

	store := newMemStorage()
	var mailedURL string
	svc := identity.NewService(store, fastHasher(t), tokenService(t, time.Hour), captureNotifier(&mailedURL))

	ident := signupFlow(t, svc)
	ctx := context.Background()

	bearer, err := tokenService(t, time.Hour).Issue(ident.ID)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, bearer)
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, ident.ID))

	// Login behaves as if the identity never existed.
	_, _, err = svc.Login(ctx, ident.Email, "original password")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)

	// Outstanding tokens stop resolving.
	_, err = svc.Authenticate(ctx, bearer)
	assert.ErrorIs(t, err, identity.ErrStaleIdentity)

	// Gone from default listings.
	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFlow_PasswordChangeInvalidatesOldTokens(t *testing.T) {
	t.Parallel()

	store := newMemStorage()
	var mailedURL string
	svc := identity.NewService(store, fastHasher(t), tokenService(t, time.Hour), captureNotifier(&mailedURL))

	ident := signupFlow(t, svc)
	ctx := context.Background()

	// A token from well before the change.
	oldBearer, err := tokenService(t, time.Hour).IssueAt(ident.ID, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, oldBearer)
	require.NoError(t, err)

	_, newBearer, err := svc.UpdatePassword(ctx, ident.ID, "original password", "changed password!", "changed password!")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, oldBearer)
	assert.ErrorIs(t, err, identity.ErrPasswordChanged)

	_, err = svc.Authenticate(ctx, newBearer)
	assert.NoError(t, err)
}
