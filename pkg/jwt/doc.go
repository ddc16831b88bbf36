// Package jwt provides stateless bearer token issuance and verification on
// top of HMAC-SHA256 signed JWTs.
//
// Tokens carry only a subject (identity id) and issued-at timestamp; the
// signing secret and expiry window are injected at construction rather than
// read from ambient state:
//
//	svc, err := jwt.New([]byte(cfg.SigningKey), cfg.TTL)
//	token, err := svc.Issue(identityID)
//	claims, err := svc.Verify(token)
//
// Verify distinguishes jwt.ErrExpiredToken from jwt.ErrInvalidToken so the
// HTTP layer can tell a user to log in again instead of reporting a tampered
// credential. Because issuance is stateless there is no way to revoke a
// single token before expiry; the only indirect revocation is the
// password-change rule applied by the access guard.
package jwt
