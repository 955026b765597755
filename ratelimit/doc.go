// Package ratelimit provides a per-key sliding-window rate limiter.
//
// The limiter tracks individual request timestamps within a trailing
// window, giving exact per-window fairness with no burst edge effects
// at bucket boundaries. Storage is pluggable: an in-memory store for
// single-process deployments and a Redis sorted-set store when the
// quota must hold across processes. Memory per key is bounded by the
// quota.
package ratelimit
