package models

import "time"

// Coupon discount types.
const (
	DiscountPercentage = "PERCENTAGE"
	DiscountFixed      = "FIXED"
)

type Coupon struct {
	ID             int        `json:"id"`
	Code           string     `json:"code"`
	DiscountType   string     `json:"discount_type"`
	Value          float64    `json:"value"`
	MaxDiscount    *float64   `json:"max_discount,omitempty"`
	MinOrderAmount float64    `json:"min_order_amount"`
	UsageLimit     *int       `json:"usage_limit,omitempty"` // nil means unlimited
	UsedCount      int        `json:"used_count"`
	FirstTimeOnly  bool       `json:"first_time_only"`
	Active         bool       `json:"active"`
	ValidFrom      time.Time  `json:"valid_from"`
	ValidTo        *time.Time `json:"valid_to,omitempty"` // nil means no expiry
}

type CouponPreviewRequest struct {
	Code     string  `json:"code" binding:"required"`
	Subtotal float64 `json:"subtotal" binding:"min=0"`
}

type CouponPreviewResponse struct {
	Valid    bool    `json:"valid"`
	Discount float64 `json:"discount"`
	Message  string  `json:"message"`
}
