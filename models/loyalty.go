package models

import "time"

// Loyalty tiers, derived purely from the cumulative point balance.
const (
	TierBronze   = "BRONZE"
	TierSilver   = "SILVER"
	TierGold     = "GOLD"
	TierPlatinum = "PLATINUM"
)

// Tier thresholds. Highest threshold met wins.
const (
	SilverThreshold   = 500
	GoldThreshold     = 2000
	PlatinumThreshold = 5000
)

// TierForPoints maps a point balance to its tier. The tier is never stored
// independently of the balance in a way that can drift; every balance change
// goes back through this function.
func TierForPoints(points int) string {
	switch {
	case points >= PlatinumThreshold:
		return TierPlatinum
	case points >= GoldThreshold:
		return TierGold
	case points >= SilverThreshold:
		return TierSilver
	default:
		return TierBronze
	}
}

type LoyaltyAccount struct {
	UserID    int       `json:"user_id"`
	Points    int       `json:"points"`
	Tier      string    `json:"tier"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Points transaction types.
const (
	PointsEarned   = "EARNED"
	PointsRedeemed = "REDEEMED"
)

// PointsTransaction is an immutable ledger entry. The account balance must
// always equal the sum of its entries.
type PointsTransaction struct {
	ID          int       `json:"id"`
	UserID      int       `json:"user_id"`
	Points      int       `json:"points"` // signed: positive EARNED, negative REDEEMED
	Type        string    `json:"type"`
	OrderID     *int      `json:"order_id,omitempty"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type RedeemPreviewRequest struct {
	Points   int     `json:"points" binding:"min=1"`
	Subtotal float64 `json:"subtotal" binding:"min=0"`
}

type RedeemPreviewResponse struct {
	Valid    bool    `json:"valid"`
	Discount float64 `json:"discount"`
	Message  string  `json:"message"`
}
