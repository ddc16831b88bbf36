// Package pg provides PostgreSQL connection pooling via pgx with startup
// retry, goose-based schema migrations, and error classification helpers
// shared by every repository in the application.
package pg
