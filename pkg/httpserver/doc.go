// Package httpserver runs the API's HTTP listener with graceful shutdown on
// SIGINT/SIGTERM and a combined liveness/readiness probe handler.
package httpserver
