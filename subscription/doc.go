// Package subscription implements the subscription lifecycle for the
// learning platform: plan tiers, billing cycles, grace-period
// cancellation and scheduled downgrades.
//
// # Lifecycle
//
// Each user holds at most one current subscription record. The Service
// exposes the state machine:
//
//   - Create: free -> paid, opens a billing period of one month or year
//   - ChangePlan: to a higher tier immediately (clearing any pending
//     downgrade or cancellation), to a lower tier scheduled for the end
//     of the paid period
//   - CancelScheduledChange: drops a pending downgrade
//   - Cancel: flips status to cancelled; access continues through the
//     paid period's end (grace period)
//
// Time-driven transitions (a scheduled change coming due, a grace
// period elapsing) are applied lazily on every read, inside the same
// per-user transaction, so external observers see exactly the state a
// continuously running sweep would produce.
//
// # Stores
//
// Store implementations must serialize mutations per user. The
// PostgreSQL store takes a row-level lock inside one transaction; the
// in-memory store is intended for tests.
package subscription
