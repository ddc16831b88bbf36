// Package redis provides a configured go-redis client constructor with
// connection retry, used by the rate limiter's shared store.
package redis
