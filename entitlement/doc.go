// Package entitlement decides whether a subscription snapshot grants
// access to a gated feature. It is a pure policy over the snapshot, the
// required tier and the current time, with no persistence or caching.
package entitlement
