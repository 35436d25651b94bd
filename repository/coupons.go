package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bakery-service/models"
	"bakery-service/services"
)

type CouponRepo struct {
	db *sql.DB
}

func NewCouponRepo(db *sql.DB) *CouponRepo {
	return &CouponRepo{db: db}
}

func (r *CouponRepo) GetByCode(ctx context.Context, code string) (models.Coupon, error) {
	var c models.Coupon
	var maxDiscount sql.NullFloat64
	var usageLimit sql.NullInt64
	var validTo sql.NullTime

	err := r.db.QueryRowContext(ctx, `
		SELECT id, code, discount_type, value, max_discount, min_order_amount,
			usage_limit, used_count, first_time_only, active, valid_from, valid_to
		FROM coupons WHERE code = ?`, code,
	).Scan(&c.ID, &c.Code, &c.DiscountType, &c.Value, &maxDiscount, &c.MinOrderAmount,
		&usageLimit, &c.UsedCount, &c.FirstTimeOnly, &c.Active, &c.ValidFrom, &validTo)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Coupon{}, services.ErrCouponNotFound
	}
	if err != nil {
		return models.Coupon{}, fmt.Errorf("query coupon: %w", err)
	}

	if maxDiscount.Valid {
		c.MaxDiscount = &maxDiscount.Float64
	}
	if usageLimit.Valid {
		v := int(usageLimit.Int64)
		c.UsageLimit = &v
	}
	if validTo.Valid {
		c.ValidTo = &validTo.Time
	}
	return c, nil
}

func (r *CouponRepo) CountOrdersForUser(ctx context.Context, userID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE user_id = ?`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count user orders: %w", err)
	}
	return count, nil
}

// IncrementUsage is the atomic check-and-increment: the usage-limit
// condition is inside the UPDATE itself, so concurrent redemptions at the
// limit boundary cannot both pass.
func (r *CouponRepo) IncrementUsage(ctx context.Context, couponID int) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE coupons SET used_count = used_count + 1
		WHERE id = ? AND active = TRUE
			AND (usage_limit IS NULL OR used_count < usage_limit)`,
		couponID,
	)
	if err != nil {
		return false, fmt.Errorf("increment coupon usage: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("increment coupon usage: %w", err)
	}
	return affected > 0, nil
}
