// Package identity is the authentication and authorization core: credential
// storage with soft-delete, argon2id password hashing, stateless JWT
// sessions, a guard middleware with role checks, and the single-use password
// reset flow.
//
// The package is assembled from small dependencies (Storage, Notifier, the
// hashing and token services) so every flow is testable without a database
// or mail provider. See Service for the lifecycle operations and Guard for
// route protection.
package identity
