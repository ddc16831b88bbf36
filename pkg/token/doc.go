// Package token generates single-use opaque tokens for out-of-band flows
// such as password reset.
//
// A token has two representations: the raw hex string delivered to the user
// (never persisted), and its SHA-256 digest stored alongside an expiry. The
// consume path re-hashes the presented value and looks the digest up, so
// leaking the store leaks nothing usable:
//
//	raw, err := token.New()
//	digest := token.Hash(raw)   // persist digest + expiry
//	// later:
//	token.Hash(presented) == digest  // or token.Match(presented, digest)
package token
