// Package ratelimiter implements token-bucket request throttling with
// pluggable storage: in-process memory for single nodes and tests, redis for
// deployments where multiple instances must share counters.
//
// The HTTP middleware is applied to authentication endpoints (login,
// forgot-password) to slow credential stuffing and reset-token farming.
package ratelimiter
