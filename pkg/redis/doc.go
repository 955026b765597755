// Package redis provides an env-configured go-redis client with
// retrying startup and a healthcheck probe.
package redis
