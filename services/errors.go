package services

import "errors"

// Business-rule violations. Each one maps to a user-displayable reason and
// must never leave a ledger half-mutated: reject cleanly, mutate nothing.
var (
	ErrCouponNotFound    = errors.New("coupon not found")
	ErrCouponInactive    = errors.New("coupon is not active")
	ErrCouponNotYetValid = errors.New("coupon is not valid yet")
	ErrCouponExpired     = errors.New("coupon has expired")
	ErrCouponExhausted   = errors.New("coupon usage limit reached")
	ErrCouponMinOrder    = errors.New("order subtotal is below the coupon minimum")
	ErrCouponFirstOrder  = errors.New("coupon is valid for first orders only")

	ErrAccountNotFound    = errors.New("loyalty account not found")
	ErrBelowMinRedeem     = errors.New("points below the minimum redemption amount")
	ErrInsufficientPoints = errors.New("insufficient points balance")

	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderAlreadyFinal = errors.New("order is already in a terminal state")
	ErrPartnerRequired   = errors.New("delivery partner is required for this status")
	ErrAgentNotAssigned  = errors.New("order is not assigned to this agent")
	ErrPartnerNotFound   = errors.New("delivery partner not found")

	ErrEmptyCart        = errors.New("order must contain at least one item")
	ErrInvalidQuantity  = errors.New("item quantity must be at least 1")
	ErrMissingAddress   = errors.New("missing required address fields")
	ErrInvalidTotals    = errors.New("order totals are inconsistent")
	ErrTrackingDisabled = errors.New("tracking is not available for this order")
)
