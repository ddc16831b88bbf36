package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Storage is the persistence contract of the identity service. Every read
// excludes deactivated rows; there is no flag to opt back in, deactivated
// identities are invisible to the application by construction.
//
// Methods returning Identity never include the password hash. The two
// Credentials lookups are the only paths that do, and they exist solely for
// login and self-service password change.
type Storage interface {
	// Create inserts a new identity and returns the stored row.
	Create(ctx context.Context, name, email, passwordHash string, role Role) (*Identity, error)

	// FindByID returns the active identity with the given id.
	FindByID(ctx context.Context, id uuid.UUID) (*Identity, error)

	// FindByEmail returns the active identity with the given email.
	FindByEmail(ctx context.Context, email string) (*Identity, error)

	// CredentialsByEmail returns the active identity with its password hash.
	CredentialsByEmail(ctx context.Context, email string) (*Credentials, error)

	// CredentialsByID returns the active identity with its password hash.
	CredentialsByID(ctx context.Context, id uuid.UUID) (*Credentials, error)

	// UpdatePassword sets a new password hash and change timestamp, and in
	// the same statement clears any outstanding reset token so it cannot be
	// replayed.
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, changedAt time.Time) error

	// SetResetToken stores the reset token digest and its expiry.
	SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expiresAt time.Time) error

	// ClearResetToken removes an outstanding reset token. Used to roll back
	// when the reset notification cannot be delivered.
	ClearResetToken(ctx context.Context, id uuid.UUID) error

	// FindByResetTokenHash returns the active identity holding the given
	// unexpired reset token digest. Expired or unknown digests are a
	// not-found, indistinguishable to the caller.
	FindByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*Identity, error)

	// UpdateProfile applies the non-nil fields of the update.
	UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*Identity, error)

	// Deactivate soft-deletes the identity. The row survives for audit and
	// uniqueness purposes but no read path returns it again.
	Deactivate(ctx context.Context, id uuid.UUID) error

	// List returns all active identities.
	List(ctx context.Context) ([]Identity, error)
}
