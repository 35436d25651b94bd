package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"bakery-service/models"
)

type stubCouponStore struct {
	getFn   func(ctx context.Context, code string) (models.Coupon, error)
	countFn func(ctx context.Context, userID int) (int, error)
	incrFn  func(ctx context.Context, couponID int) (bool, error)
}

func (s *stubCouponStore) GetByCode(ctx context.Context, code string) (models.Coupon, error) {
	if s.getFn != nil {
		return s.getFn(ctx, code)
	}
	return models.Coupon{}, ErrCouponNotFound
}

func (s *stubCouponStore) CountOrdersForUser(ctx context.Context, userID int) (int, error) {
	if s.countFn != nil {
		return s.countFn(ctx, userID)
	}
	return 0, nil
}

func (s *stubCouponStore) IncrementUsage(ctx context.Context, couponID int) (bool, error) {
	if s.incrFn != nil {
		return s.incrFn(ctx, couponID)
	}
	return true, nil
}

func percentCoupon(value float64, maxDiscount *float64) models.Coupon {
	return models.Coupon{
		ID:           1,
		Code:         "SAVE20",
		DiscountType: models.DiscountPercentage,
		Value:        value,
		MaxDiscount:  maxDiscount,
		Active:       true,
		ValidFrom:    time.Now().Add(-24 * time.Hour),
	}
}

func newCouponServiceWith(store *stubCouponStore) *CouponService {
	svc := NewCouponService(store)
	return svc
}

func TestComputeDiscountPercentageCappedAtMax(t *testing.T) {
	max := 150.0
	coupon := percentCoupon(20, &max)

	// subtotal 1000 at 20% would be 200, capped at 150.
	if got := ComputeDiscount(coupon, 1000); got != 150 {
		t.Fatalf("expected discount 150, got %v", got)
	}

	coupon.MaxDiscount = nil
	if got := ComputeDiscount(coupon, 1000); got != 200 {
		t.Fatalf("expected discount 200 without cap, got %v", got)
	}
}

func TestComputeDiscountNeverExceedsSubtotal(t *testing.T) {
	coupon := models.Coupon{DiscountType: models.DiscountFixed, Value: 500}
	if got := ComputeDiscount(coupon, 200); got != 200 {
		t.Fatalf("expected discount clamped to subtotal 200, got %v", got)
	}
}

func TestValidateMinOrderAmount(t *testing.T) {
	coupon := percentCoupon(10, nil)
	coupon.MinOrderAmount = 200
	store := &stubCouponStore{
		getFn: func(_ context.Context, _ string) (models.Coupon, error) { return coupon, nil },
	}
	svc := newCouponServiceWith(store)

	_, _, err := svc.Validate(context.Background(), "SAVE20", 150, 7)
	if !errors.Is(err, ErrCouponMinOrder) {
		t.Fatalf("expected ErrCouponMinOrder, got %v", err)
	}
}

func TestValidateTimeWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		validFrom time.Time
		validTo   *time.Time
		wantErr   error
	}{
		{"not yet valid", now.Add(time.Hour), nil, ErrCouponNotYetValid},
		{"expired", now.Add(-48 * time.Hour), timePtr(now.Add(-time.Hour)), ErrCouponExpired},
		{"open ended", now.Add(-48 * time.Hour), nil, nil},
		{"inside window", now.Add(-time.Hour), timePtr(now.Add(time.Hour)), nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			coupon := percentCoupon(10, nil)
			coupon.ValidFrom = tc.validFrom
			coupon.ValidTo = tc.validTo
			store := &stubCouponStore{
				getFn: func(_ context.Context, _ string) (models.Coupon, error) { return coupon, nil },
			}
			svc := newCouponServiceWith(store)
			svc.now = func() time.Time { return now }

			_, _, err := svc.Validate(context.Background(), "SAVE20", 500, 7)
			if tc.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestValidateUsageLimit(t *testing.T) {
	limit := 10
	coupon := percentCoupon(10, nil)
	coupon.UsageLimit = &limit
	coupon.UsedCount = 10
	store := &stubCouponStore{
		getFn: func(_ context.Context, _ string) (models.Coupon, error) { return coupon, nil },
	}
	svc := newCouponServiceWith(store)

	_, _, err := svc.Validate(context.Background(), "SAVE20", 500, 7)
	if !errors.Is(err, ErrCouponExhausted) {
		t.Fatalf("expected ErrCouponExhausted, got %v", err)
	}

	// nil usage limit means unlimited.
	coupon.UsageLimit = nil
	coupon.UsedCount = 100000
	if _, _, err := svc.Validate(context.Background(), "SAVE20", 500, 7); err != nil {
		t.Fatalf("unexpected error for unlimited coupon: %v", err)
	}
}

func TestValidateFirstTimeOnly(t *testing.T) {
	coupon := percentCoupon(10, nil)
	coupon.FirstTimeOnly = true
	prior := 3
	store := &stubCouponStore{
		getFn:   func(_ context.Context, _ string) (models.Coupon, error) { return coupon, nil },
		countFn: func(_ context.Context, _ int) (int, error) { return prior, nil },
	}
	svc := newCouponServiceWith(store)

	_, _, err := svc.Validate(context.Background(), "SAVE20", 500, 7)
	if !errors.Is(err, ErrCouponFirstOrder) {
		t.Fatalf("expected ErrCouponFirstOrder, got %v", err)
	}

	prior = 0
	if _, _, err := svc.Validate(context.Background(), "SAVE20", 500, 7); err != nil {
		t.Fatalf("unexpected error for first order: %v", err)
	}
}

func TestValidateDoesNotConsumeUse(t *testing.T) {
	coupon := percentCoupon(10, nil)
	incremented := false
	store := &stubCouponStore{
		getFn:  func(_ context.Context, _ string) (models.Coupon, error) { return coupon, nil },
		incrFn: func(_ context.Context, _ int) (bool, error) { incremented = true; return true, nil },
	}
	svc := newCouponServiceWith(store)

	if _, _, err := svc.Validate(context.Background(), "SAVE20", 500, 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if incremented {
		t.Fatal("preview validation must not increment the usage counter")
	}
}

func TestApplyLosesRaceAtUsageLimit(t *testing.T) {
	coupon := percentCoupon(10, nil)
	store := &stubCouponStore{
		getFn: func(_ context.Context, _ string) (models.Coupon, error) { return coupon, nil },
		// The guarded increment reports the limit was taken concurrently.
		incrFn: func(_ context.Context, _ int) (bool, error) { return false, nil },
	}
	svc := newCouponServiceWith(store)

	_, _, err := svc.Apply(context.Background(), "SAVE20", 500, 7)
	if !errors.Is(err, ErrCouponExhausted) {
		t.Fatalf("expected ErrCouponExhausted on lost race, got %v", err)
	}
}

func TestApplyIncrementsUsage(t *testing.T) {
	coupon := percentCoupon(20, nil)
	var incrementedID int
	store := &stubCouponStore{
		getFn:  func(_ context.Context, _ string) (models.Coupon, error) { return coupon, nil },
		incrFn: func(_ context.Context, id int) (bool, error) { incrementedID = id; return true, nil },
	}
	svc := newCouponServiceWith(store)

	_, discount, err := svc.Apply(context.Background(), "SAVE20", 500, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if discount != 100 {
		t.Fatalf("expected discount 100, got %v", discount)
	}
	if incrementedID != coupon.ID {
		t.Fatalf("expected usage increment for coupon %d, got %d", coupon.ID, incrementedID)
	}
}

func timePtr(t time.Time) *time.Time { return &t }
