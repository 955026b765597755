// Package promo implements counted-redemption promo codes: active,
// date-bounded, usage-capped records whose redemption increments the
// usage counter atomically with the cap check.
package promo
