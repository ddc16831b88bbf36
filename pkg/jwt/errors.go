package jwt

import "errors"

var (
	ErrInvalidToken            = errors.New("jwt: invalid token")
	ErrExpiredToken            = errors.New("jwt: token is expired")
	ErrMissingSigningKey       = errors.New("jwt: missing signing key")
	ErrInvalidTTL              = errors.New("jwt: ttl must be positive")
	ErrUnexpectedSigningMethod = errors.New("jwt: unexpected signing method")
)
