package services

import (
	"errors"
	"fmt"
)

// Caller-visible business-rule rejections. Storage errors are never passed
// through raw; every service translates them into one of these or wraps
// them as an internal error.
var (
	ErrBlacklisted       = errors.New("customer is blacklisted")
	ErrCouponNotRedeemed = errors.New("coupon not found or not in a redeemed state")
	ErrCustomerNotFound  = errors.New("customer not found")
)

// ValidationError rejects bad input before any side effect.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// InsufficientCouponsError rejects a redemption that asks for more coupons
// than the card has pending. Carries both numbers for the caller's message.
type InsufficientCouponsError struct {
	Requested int
	Available int
	ClaimType string
}

func (e *InsufficientCouponsError) Error() string {
	if e.ClaimType != "" {
		return fmt.Sprintf("not enough pending coupons for item %q", e.ClaimType)
	}
	return fmt.Sprintf("requested %d coupons, but only %d are available", e.Requested, e.Available)
}
