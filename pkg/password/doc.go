// Package password provides memory-hard password hashing built on argon2id.
//
// Hashes are encoded in the PHC string format so the cost parameters travel
// with the hash and can be raised over time without invalidating existing
// credentials:
//
//	hasher, err := password.New(password.DefaultParams())
//	if err != nil {
//		// handle invalid params
//	}
//
//	encoded, err := hasher.Hash("correct horse battery staple")
//	ok, err := hasher.Verify("correct horse battery staple", encoded)
//
// Verification compares derived keys in constant time. Hashing is deliberately
// expensive; callers on a request path should run it through a bounded worker
// pool (see pkg/async) rather than inline on the dispatch goroutine.
package password
