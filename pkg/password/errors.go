package password

import "errors"

var (
	// ErrInvalidParams indicates that the hasher was configured below safe minimums.
	ErrInvalidParams = errors.New("password: invalid argon2id params")

	// ErrInvalidHash indicates a stored hash that is not a valid argon2id PHC string.
	ErrInvalidHash = errors.New("password: malformed password hash")
)
