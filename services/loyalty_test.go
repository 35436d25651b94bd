package services

import (
	"context"
	"errors"
	"testing"

	"bakery-service/models"
)

type stubLoyaltyStore struct {
	getFn    func(ctx context.Context, userID int) (models.LoyaltyAccount, error)
	accrueFn func(ctx context.Context, userID, points int, orderID *int, description string) (models.LoyaltyAccount, error)
	listFn   func(ctx context.Context, userID int) ([]models.PointsTransaction, error)
}

func (s *stubLoyaltyStore) GetAccount(ctx context.Context, userID int) (models.LoyaltyAccount, error) {
	if s.getFn != nil {
		return s.getFn(ctx, userID)
	}
	return models.LoyaltyAccount{}, ErrAccountNotFound
}

func (s *stubLoyaltyStore) AccruePoints(ctx context.Context, userID, points int, orderID *int, description string) (models.LoyaltyAccount, error) {
	if s.accrueFn != nil {
		return s.accrueFn(ctx, userID, points, orderID, description)
	}
	return models.LoyaltyAccount{}, errors.New("not implemented")
}

func (s *stubLoyaltyStore) ListTransactions(ctx context.Context, userID int) ([]models.PointsTransaction, error) {
	if s.listFn != nil {
		return s.listFn(ctx, userID)
	}
	return nil, nil
}

func TestTierForPoints(t *testing.T) {
	cases := []struct {
		points int
		want   string
	}{
		{0, models.TierBronze},
		{499, models.TierBronze},
		{500, models.TierSilver},
		{1999, models.TierSilver},
		{2000, models.TierGold},
		{4999, models.TierGold},
		{5000, models.TierPlatinum},
		{100000, models.TierPlatinum},
	}
	for _, tc := range cases {
		if got := models.TierForPoints(tc.points); got != tc.want {
			t.Fatalf("TierForPoints(%d) = %s, want %s", tc.points, got, tc.want)
		}
	}
}

func TestTierCrossesSilverThreshold(t *testing.T) {
	// 450 points plus 80 earned lands at 530: BRONZE becomes SILVER.
	before := models.TierForPoints(450)
	after := models.TierForPoints(450 + 80)
	if before != models.TierBronze || after != models.TierSilver {
		t.Fatalf("expected BRONZE -> SILVER, got %s -> %s", before, after)
	}
}

func TestPointsForTotal(t *testing.T) {
	cases := []struct {
		total float64
		want  int
	}{
		{0, 0},
		{9.99, 0},
		{10, 1},
		{108, 10},
		{999.99, 99},
		{-5, 0},
	}
	for _, tc := range cases {
		if got := PointsForTotal(tc.total); got != tc.want {
			t.Fatalf("PointsForTotal(%v) = %d, want %d", tc.total, got, tc.want)
		}
	}
}

func TestValidateRedemptionBelowMinimum(t *testing.T) {
	svc := NewLoyaltyService(&stubLoyaltyStore{})
	_, err := svc.ValidateRedemption(context.Background(), 7, MinRedeemPoints-1, 1000)
	if !errors.Is(err, ErrBelowMinRedeem) {
		t.Fatalf("expected ErrBelowMinRedeem, got %v", err)
	}
}

func TestValidateRedemptionInsufficientBalance(t *testing.T) {
	store := &stubLoyaltyStore{
		getFn: func(_ context.Context, _ int) (models.LoyaltyAccount, error) {
			return models.LoyaltyAccount{UserID: 7, Points: 150, Tier: models.TierBronze}, nil
		},
	}
	svc := NewLoyaltyService(store)

	_, err := svc.ValidateRedemption(context.Background(), 7, 200, 1000)
	if !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("expected ErrInsufficientPoints, got %v", err)
	}
}

func TestValidateRedemptionMissingAccount(t *testing.T) {
	svc := NewLoyaltyService(&stubLoyaltyStore{})
	_, err := svc.ValidateRedemption(context.Background(), 7, 200, 1000)
	if !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("expected ErrInsufficientPoints for missing account, got %v", err)
	}
}

func TestValidateRedemptionCapsAtSubtotal(t *testing.T) {
	store := &stubLoyaltyStore{
		getFn: func(_ context.Context, _ int) (models.LoyaltyAccount, error) {
			return models.LoyaltyAccount{UserID: 7, Points: 1000, Tier: models.TierSilver}, nil
		},
	}
	svc := NewLoyaltyService(store)

	// 500 points are worth 500, but the order is only 300.
	discount, err := svc.ValidateRedemption(context.Background(), 7, 500, 300)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if discount != 300 {
		t.Fatalf("expected discount capped at 300, got %v", discount)
	}
}

func TestAccrueComputesPointsFromTotal(t *testing.T) {
	var gotPoints int
	var gotOrderID *int
	store := &stubLoyaltyStore{
		accrueFn: func(_ context.Context, _ int, points int, orderID *int, _ string) (models.LoyaltyAccount, error) {
			gotPoints = points
			gotOrderID = orderID
			return models.LoyaltyAccount{UserID: 7, Points: points, Tier: models.TierForPoints(points)}, nil
		},
	}
	svc := NewLoyaltyService(store)

	earned, err := svc.Accrue(context.Background(), 7, 257.50, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if earned != 25 || gotPoints != 25 {
		t.Fatalf("expected 25 points earned, got %d (store saw %d)", earned, gotPoints)
	}
	if gotOrderID == nil || *gotOrderID != 42 {
		t.Fatalf("expected EARNED entry to reference order 42, got %v", gotOrderID)
	}
}

func TestAccrueSkipsZeroPoints(t *testing.T) {
	called := false
	store := &stubLoyaltyStore{
		accrueFn: func(_ context.Context, _ int, _ int, _ *int, _ string) (models.LoyaltyAccount, error) {
			called = true
			return models.LoyaltyAccount{}, nil
		},
	}
	svc := NewLoyaltyService(store)

	earned, err := svc.Accrue(context.Background(), 7, 9.50, 42)
	if err != nil || earned != 0 {
		t.Fatalf("expected no accrual, got earned=%d err=%v", earned, err)
	}
	if called {
		t.Fatal("store must not be touched when nothing is earned")
	}
}

// fakeLedgerStore keeps balance and ledger in memory with the same contract
// as the real store: one ledger row per balance change.
type fakeLedgerStore struct {
	balance      int
	transactions []models.PointsTransaction
}

func (f *fakeLedgerStore) GetAccount(_ context.Context, userID int) (models.LoyaltyAccount, error) {
	return models.LoyaltyAccount{UserID: userID, Points: f.balance, Tier: models.TierForPoints(f.balance)}, nil
}

func (f *fakeLedgerStore) AccruePoints(_ context.Context, userID, points int, orderID *int, description string) (models.LoyaltyAccount, error) {
	f.balance += points
	f.transactions = append(f.transactions, models.PointsTransaction{
		UserID: userID, Points: points, Type: models.PointsEarned, OrderID: orderID, Description: description,
	})
	return models.LoyaltyAccount{UserID: userID, Points: f.balance, Tier: models.TierForPoints(f.balance)}, nil
}

func (f *fakeLedgerStore) ListTransactions(_ context.Context, _ int) ([]models.PointsTransaction, error) {
	return f.transactions, nil
}

func TestBalanceReconcilesWithLedger(t *testing.T) {
	store := &fakeLedgerStore{}
	svc := NewLoyaltyService(store)
	ctx := context.Background()

	for _, total := range []float64{120, 85, 990, 42.99} {
		if _, err := svc.Accrue(ctx, 7, total, 1); err != nil {
			t.Fatalf("accrue failed: %v", err)
		}
	}

	account, transactions, err := svc.Account(ctx, 7)
	if err != nil {
		t.Fatalf("account failed: %v", err)
	}

	sum := 0
	for _, tx := range transactions {
		sum += tx.Points
	}
	if account.Points != sum {
		t.Fatalf("balance %d does not reconcile with ledger sum %d", account.Points, sum)
	}
	if account.Tier != models.TierForPoints(account.Points) {
		t.Fatalf("tier %s drifted from balance %d", account.Tier, account.Points)
	}
}
