// Package pg provides PostgreSQL connectivity for the platform: an
// env-configured pgx pool with retrying startup, goose migrations and
// pg error classification helpers.
package pg
