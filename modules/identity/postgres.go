package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/tourkit/pkg/pg"
)

// identityColumns is the default projection: everything the application
// needs about a principal except the password hash and reset token state.
const identityColumns = "id, name, email, photo, role, password_changed_at, created_at"

// PostgresStorage implements Storage on a pgx connection pool. All reads go
// through selectActive, which appends the active filter, so forgetting the
// soft-delete predicate on a new query path is structurally impossible.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage wraps a pgx pool as identity storage.
func NewPostgresStorage(pool *pgxpool.Pool) *PostgresStorage {
	return &PostgresStorage{pool: pool}
}

// selectActive builds a SELECT over active identities only. The where clause
// must not contain the active predicate; it is appended here.
func selectActive(columns, where string) string {
	q := fmt.Sprintf("SELECT %s FROM identities WHERE active = TRUE", columns)
	if where != "" {
		q += " AND " + where
	}
	return q
}

func (s *PostgresStorage) scanIdentity(row interface{ Scan(...any) error }) (*Identity, error) {
	var ident Identity
	err := row.Scan(
		&ident.ID,
		&ident.Name,
		&ident.Email,
		&ident.Photo,
		&ident.Role,
		&ident.PasswordChangedAt,
		&ident.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ident, nil
}

func (s *PostgresStorage) Create(ctx context.Context, name, email, passwordHash string, role Role) (*Identity, error) {
	query := `
		INSERT INTO identities (id, name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + identityColumns

	row := s.pool.QueryRow(ctx, query, uuid.New(), name, strings.ToLower(email), passwordHash, role)

	ident, err := s.scanIdentity(row)
	if err != nil {
		if pg.IsDuplicateKey(err) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("failed to create identity: %w", err)
	}
	return ident, nil
}

func (s *PostgresStorage) FindByID(ctx context.Context, id uuid.UUID) (*Identity, error) {
	row := s.pool.QueryRow(ctx, selectActive(identityColumns, "id = $1"), id)

	ident, err := s.scanIdentity(row)
	if err != nil {
		if pg.IsNotFound(err) {
			return nil, ErrStaleIdentity
		}
		return nil, fmt.Errorf("failed to find identity by id: %w", err)
	}
	return ident, nil
}

func (s *PostgresStorage) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	row := s.pool.QueryRow(ctx, selectActive(identityColumns, "email = $1"), strings.ToLower(email))

	ident, err := s.scanIdentity(row)
	if err != nil {
		if pg.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find identity by email: %w", err)
	}
	return ident, nil
}

func (s *PostgresStorage) credentials(ctx context.Context, where string, arg any) (*Credentials, error) {
	query := selectActive(identityColumns+", password_hash", where)

	var creds Credentials
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&creds.ID,
		&creds.Name,
		&creds.Email,
		&creds.Photo,
		&creds.Role,
		&creds.PasswordChangedAt,
		&creds.CreatedAt,
		&creds.PasswordHash,
	)
	if err != nil {
		if pg.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	return &creds, nil
}

func (s *PostgresStorage) CredentialsByEmail(ctx context.Context, email string) (*Credentials, error) {
	return s.credentials(ctx, "email = $1", strings.ToLower(email))
}

func (s *PostgresStorage) CredentialsByID(ctx context.Context, id uuid.UUID) (*Credentials, error) {
	return s.credentials(ctx, "id = $1", id)
}

// UpdatePassword clears the reset token columns in the same statement that
// sets the new hash, making consumption of a reset token atomic with the
// password change.
func (s *PostgresStorage) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, changedAt time.Time) error {
	query := `
		UPDATE identities
		SET password_hash = $2,
		    password_changed_at = $3,
		    reset_token_hash = NULL,
		    reset_token_expires_at = NULL
		WHERE id = $1 AND active = TRUE`

	tag, err := s.pool.Exec(ctx, query, id, passwordHash, changedAt)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleIdentity
	}
	return nil
}

func (s *PostgresStorage) SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expiresAt time.Time) error {
	query := `
		UPDATE identities
		SET reset_token_hash = $2, reset_token_expires_at = $3
		WHERE id = $1 AND active = TRUE`

	tag, err := s.pool.Exec(ctx, query, id, tokenHash, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleIdentity
	}
	return nil
}

func (s *PostgresStorage) ClearResetToken(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE identities
		SET reset_token_hash = NULL, reset_token_expires_at = NULL
		WHERE id = $1`

	if _, err := s.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to clear reset token: %w", err)
	}
	return nil
}

func (s *PostgresStorage) FindByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*Identity, error) {
	query := selectActive(identityColumns, "reset_token_hash = $1 AND reset_token_expires_at > $2")

	row := s.pool.QueryRow(ctx, query, tokenHash, now)

	ident, err := s.scanIdentity(row)
	if err != nil {
		if pg.IsNotFound(err) {
			return nil, ErrResetTokenInvalid
		}
		return nil, fmt.Errorf("failed to find identity by reset token: %w", err)
	}
	return ident, nil
}

func (s *PostgresStorage) UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*Identity, error) {
	set := make([]string, 0, 3)
	args := []any{id}

	add := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, *value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("name", update.Name)
	if update.Email != nil {
		lower := strings.ToLower(*update.Email)
		update.Email = &lower
	}
	add("email", update.Email)
	add("photo", update.Photo)

	if len(set) == 0 {
		return s.FindByID(ctx, id)
	}

	query := fmt.Sprintf(`
		UPDATE identities SET %s
		WHERE id = $1 AND active = TRUE
		RETURNING %s`, strings.Join(set, ", "), identityColumns)

	ident, err := s.scanIdentity(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if pg.IsNotFound(err) {
			return nil, ErrStaleIdentity
		}
		if pg.IsDuplicateKey(err) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return ident, nil
}

func (s *PostgresStorage) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE identities SET active = FALSE WHERE id = $1 AND active = TRUE`

	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate identity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleIdentity
	}
	return nil
}

func (s *PostgresStorage) List(ctx context.Context) ([]Identity, error) {
	rows, err := s.pool.Query(ctx, selectActive(identityColumns, "")+" ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}
	defer rows.Close()

	var identities []Identity
	for rows.Next() {
		ident, err := s.scanIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan identity: %w", err)
		}
		identities = append(identities, *ident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read identities: %w", err)
	}
	return identities, nil
}
