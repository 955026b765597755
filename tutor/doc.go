// Package tutor gates access to the platform's conversational AI
// tutor. Every request passes the entitlement check against the
// caller's subscription snapshot, then the per-user sliding-window rate
// limit for the caller's tier, before the provider is invoked with the
// bounded conversation history. Denials are reported outcomes with
// distinct errors, never faults.
package tutor
