package services

import (
	"context"
	"errors"
	"math"

	"go.uber.org/zap"

	"bakery-service/models"
)

// MinRedeemPoints is the smallest redemption the ledger accepts.
// Redemption value is 1 point = 1 currency unit.
const MinRedeemPoints = 100

// LoyaltyStore is the persistence surface of the points ledger. Every
// balance mutation must write exactly one points_transactions row in the
// same transaction, so the balance always reconciles with the ledger sum.
type LoyaltyStore interface {
	GetAccount(ctx context.Context, userID int) (models.LoyaltyAccount, error)
	// AccruePoints upserts the account (BRONZE if absent), adds points,
	// recomputes the tier and appends an EARNED entry.
	AccruePoints(ctx context.Context, userID, points int, orderID *int, description string) (models.LoyaltyAccount, error)
	ListTransactions(ctx context.Context, userID int) ([]models.PointsTransaction, error)
}

type LoyaltyService struct {
	store LoyaltyStore
}

func NewLoyaltyService(store LoyaltyStore) *LoyaltyService {
	return &LoyaltyService{store: store}
}

// ValidateRedemption checks a redemption request against the account balance
// and the order subtotal without mutating anything. It returns the discount
// the redemption would yield (1:1, capped at the subtotal).
func (s *LoyaltyService) ValidateRedemption(ctx context.Context, userID, points int, subtotal float64) (float64, error) {
	if points < MinRedeemPoints {
		return 0, ErrBelowMinRedeem
	}

	account, err := s.store.GetAccount(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return 0, ErrInsufficientPoints
		}
		return 0, err
	}
	if account.Points < points {
		return 0, ErrInsufficientPoints
	}

	discount := float64(points)
	if discount > subtotal {
		discount = subtotal
	}
	return discount, nil
}

// Accrue awards points for a completed order placement. Accrual failure is
// never fatal to the order, so the caller only gets the result for logging.
func (s *LoyaltyService) Accrue(ctx context.Context, userID int, orderTotal float64, orderID int) (int, error) {
	points := PointsForTotal(orderTotal)
	if points <= 0 {
		return 0, nil
	}

	account, err := s.store.AccruePoints(ctx, userID, points, &orderID, "Points earned on order")
	if err != nil {
		return 0, err
	}
	zap.S().Infow("loyalty points accrued",
		"user_id", userID, "order_id", orderID, "points", points, "tier", account.Tier)
	return points, nil
}

// Account returns the balance, tier and full ledger for the profile screen.
func (s *LoyaltyService) Account(ctx context.Context, userID int) (models.LoyaltyAccount, []models.PointsTransaction, error) {
	account, err := s.store.GetAccount(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			// A customer who never earned points still has a zero-balance view.
			return models.LoyaltyAccount{UserID: userID, Tier: models.TierBronze}, nil, nil
		}
		return models.LoyaltyAccount{}, nil, err
	}

	transactions, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return models.LoyaltyAccount{}, nil, err
	}
	return account, transactions, nil
}

// PointsForTotal is the accrual rule: one point per 10 currency units spent.
func PointsForTotal(total float64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Floor(total / 10))
}
