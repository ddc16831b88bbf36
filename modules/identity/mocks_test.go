package identity_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/tourkit/modules/identity"
)

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) Create(ctx context.Context, name, email, passwordHash string, role identity.Role) (*identity.Identity, error) {
	args := m.Called(ctx, name, email, passwordHash, role)
	if ident := args.Get(0); ident != nil {
		return ident.(*identity.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStorage) FindByID(ctx context.Context, id uuid.UUID) (*identity.Identity, error) {
	args := m.Called(ctx, id)
	if ident := args.Get(0); ident != nil {
		return ident.(*identity.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStorage) FindByEmail(ctx context.Context, email string) (*identity.Identity, error) {
	args := m.Called(ctx, email)
	if ident := args.Get(0); ident != nil {
		return ident.(*identity.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStorage) CredentialsByEmail(ctx context.Context, email string) (*identity.Credentials, error) {
	args := m.Called(ctx, email)
	if creds := args.Get(0); creds != nil {
		return creds.(*identity.Credentials), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStorage) CredentialsByID(ctx context.Context, id uuid.UUID) (*identity.Credentials, error) {
	args := m.Called(ctx, id)
	if creds := args.Get(0); creds != nil {
		return creds.(*identity.Credentials), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStorage) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, changedAt time.Time) error {
	return m.Called(ctx, id, passwordHash, changedAt).Error(0)
}

func (m *mockStorage) SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expiresAt time.Time) error {
	return m.Called(ctx, id, tokenHash, expiresAt).Error(0)
}

func (m *mockStorage) ClearResetToken(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStorage) FindByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*identity.Identity, error) {
	args := m.Called(ctx, tokenHash, now)
	if ident := args.Get(0); ident != nil {
		return ident.(*identity.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStorage) UpdateProfile(ctx context.Context, id uuid.UUID, update identity.ProfileUpdate) (*identity.Identity, error) {
	args := m.Called(ctx, id, update)
	if ident := args.Get(0); ident != nil {
		return ident.(*identity.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStorage) Deactivate(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStorage) List(ctx context.Context) ([]identity.Identity, error) {
	args := m.Called(ctx)
	if list := args.Get(0); list != nil {
		return list.([]identity.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SendWelcome(ctx context.Context, to, name string) error {
	return m.Called(ctx, to, name).Error(0)
}

func (m *mockNotifier) SendPasswordReset(ctx context.Context, to, name, resetURL string) error {
	return m.Called(ctx, to, name, resetURL).Error(0)
}

type mockAuthenticator struct {
	mock.Mock
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, rawToken string) (*identity.Identity, error) {
	args := m.Called(ctx, rawToken)
	if ident := args.Get(0); ident != nil {
		return ident.(*identity.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}
