package promo

import "errors"

var (
	ErrCodeNotFound  = errors.New("promo code not found")
	ErrCodeInactive  = errors.New("promo code is not active")
	ErrCodeExpired   = errors.New("promo code is outside its validity window")
	ErrCodeExhausted = errors.New("promo code has no redemptions left")

	ErrStoreFailure = errors.New("promo store failure")
)
