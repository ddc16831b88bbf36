package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the payload carried by every bearer token: who the token belongs
// to and when it was issued. IssuedAt is what the access guard compares
// against the password-change timestamp, so it is always populated.
type Claims struct {
	Subject  uuid.UUID
	IssuedAt time.Time
}

// Service issues and verifies stateless HS256 bearer tokens. There is no
// server-side record of live tokens; a token is revoked only by expiry or by
// the password-change invalidation rule enforced at the guard layer.
type Service struct {
	signingKey []byte
	ttl        time.Duration
}

// New creates a token service bound to a signing secret and expiry window.
// Both come from deployment configuration; the package has no built-in
// defaults for either.
func New(signingKey []byte, ttl time.Duration) (*Service, error) {
	if len(signingKey) == 0 {
		return nil, ErrMissingSigningKey
	}
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}

	return &Service{
		signingKey: signingKey,
		ttl:        ttl,
	}, nil
}

// Issue signs a token for the given subject with iat set to now and exp set
// to now plus the configured TTL.
func (s *Service) Issue(subject uuid.UUID) (string, error) {
	return s.IssueAt(subject, time.Now())
}

// IssueAt is Issue with an explicit issue time. It exists so callers that
// just changed a password can control the iat relative to the change
// timestamp, and so tests can exercise expiry without sleeping.
func (s *Service) IssueAt(subject uuid.UUID, issuedAt time.Time) (string, error) {
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.RegisteredClaims{
		Subject:   subject.String(),
		IssuedAt:  jwtlib.NewNumericDate(issuedAt),
		ExpiresAt: jwtlib.NewNumericDate(issuedAt.Add(s.ttl)),
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify checks the signature and temporal claims of a token and returns its
// payload. Expiry is reported as ErrExpiredToken, distinct from
// ErrInvalidToken, so callers can present a different user-facing message.
func (s *Service) Verify(tokenString string) (Claims, error) {
	var registered jwtlib.RegisteredClaims

	_, err := jwtlib.ParseWithClaims(tokenString, &registered,
		func(t *jwtlib.Token) (any, error) {
			if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
				return nil, ErrUnexpectedSigningMethod
			}
			return s.signingKey, nil
		},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return Claims{}, ErrExpiredToken
		}
		return Claims{}, ErrInvalidToken
	}

	subject, err := uuid.Parse(registered.Subject)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	if registered.IssuedAt == nil {
		return Claims{}, ErrInvalidToken
	}

	return Claims{
		Subject:  subject,
		IssuedAt: registered.IssuedAt.Time,
	}, nil
}

// TTL returns the configured expiry window. The handler layer uses it to set
// the cookie lifetime to match the token's.
func (s *Service) TTL() time.Duration {
	return s.ttl
}
