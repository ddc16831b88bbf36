package pg

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrFailedToConnect         = errors.New("pg: failed to open db connection")
	ErrFailedToParseConfig     = errors.New("pg: failed to parse db config")
	ErrFailedToApplyMigrations = errors.New("pg: failed to apply migrations")
	ErrMigrationPathNotSet     = errors.New("pg: migrations path not provided")
)

// IsNotFound detects pgx.ErrNoRows for consistent "not found" handling.
func IsNotFound(err error) bool {
	return err != nil && errors.Is(err, pgx.ErrNoRows)
}

// IsDuplicateKey detects unique constraint violations (SQLSTATE 23505),
// used for the email uniqueness check on signup.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
