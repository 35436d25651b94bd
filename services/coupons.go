package services

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"bakery-service/models"
)

// CouponStore is the persistence surface the coupon ledger needs. The
// IncrementUsage implementation must be an atomic check-and-increment:
// concurrent redemptions at the usage limit must not both succeed.
type CouponStore interface {
	GetByCode(ctx context.Context, code string) (models.Coupon, error)
	CountOrdersForUser(ctx context.Context, userID int) (int, error)
	IncrementUsage(ctx context.Context, couponID int) (bool, error)
}

type CouponService struct {
	store CouponStore
	now   func() time.Time
}

func NewCouponService(store CouponStore) *CouponService {
	return &CouponService{store: store, now: time.Now}
}

// Validate runs the read-only checks and computes the discount for the given
// subtotal. It never increments the usage counter, so it is safe for the
// pre-checkout preview endpoint.
func (s *CouponService) Validate(ctx context.Context, code string, subtotal float64, userID int) (models.Coupon, float64, error) {
	coupon, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return models.Coupon{}, 0, err
	}

	if !coupon.Active {
		return models.Coupon{}, 0, ErrCouponInactive
	}

	now := s.now()
	if now.Before(coupon.ValidFrom) {
		return models.Coupon{}, 0, ErrCouponNotYetValid
	}
	if coupon.ValidTo != nil && now.After(*coupon.ValidTo) {
		return models.Coupon{}, 0, ErrCouponExpired
	}
	if coupon.UsageLimit != nil && coupon.UsedCount >= *coupon.UsageLimit {
		return models.Coupon{}, 0, ErrCouponExhausted
	}
	if subtotal < coupon.MinOrderAmount {
		return models.Coupon{}, 0, ErrCouponMinOrder
	}
	if coupon.FirstTimeOnly {
		prior, err := s.store.CountOrdersForUser(ctx, userID)
		if err != nil {
			return models.Coupon{}, 0, err
		}
		if prior > 0 {
			return models.Coupon{}, 0, ErrCouponFirstOrder
		}
	}

	return coupon, ComputeDiscount(coupon, subtotal), nil
}

// Apply validates the coupon and consumes one use. A false result from the
// guarded increment means a concurrent redemption took the last slot.
func (s *CouponService) Apply(ctx context.Context, code string, subtotal float64, userID int) (models.Coupon, float64, error) {
	coupon, discount, err := s.Validate(ctx, code, subtotal, userID)
	if err != nil {
		return models.Coupon{}, 0, err
	}

	ok, err := s.store.IncrementUsage(ctx, coupon.ID)
	if err != nil {
		return models.Coupon{}, 0, err
	}
	if !ok {
		zap.S().Warnw("coupon exhausted during apply", "code", code, "coupon_id", coupon.ID)
		return models.Coupon{}, 0, ErrCouponExhausted
	}

	return coupon, discount, nil
}

// ComputeDiscount returns the discount a coupon yields on a subtotal:
// PERCENTAGE is rounded and capped at max_discount, FIXED is the flat value.
// The result never exceeds the subtotal, so a total cannot go negative.
func ComputeDiscount(coupon models.Coupon, subtotal float64) float64 {
	var discount float64
	switch coupon.DiscountType {
	case models.DiscountPercentage:
		discount = math.Round(subtotal * coupon.Value / 100)
		if coupon.MaxDiscount != nil && discount > *coupon.MaxDiscount {
			discount = *coupon.MaxDiscount
		}
	case models.DiscountFixed:
		discount = coupon.Value
	}

	if discount > subtotal {
		discount = subtotal
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}
