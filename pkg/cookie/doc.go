// Package cookie wraps net/http cookie handling with centralized security
// defaults (httpOnly, SameSite=Lax) and an Expire helper for logout-style
// immediate invalidation.
package cookie
