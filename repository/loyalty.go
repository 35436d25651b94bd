package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bakery-service/models"
	"bakery-service/services"
)

type LoyaltyRepo struct {
	db *sql.DB
}

func NewLoyaltyRepo(db *sql.DB) *LoyaltyRepo {
	return &LoyaltyRepo{db: db}
}

func (r *LoyaltyRepo) GetAccount(ctx context.Context, userID int) (models.LoyaltyAccount, error) {
	var account models.LoyaltyAccount
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, points, tier, updated_at FROM loyalty_accounts WHERE user_id = ?`,
		userID,
	).Scan(&account.UserID, &account.Points, &account.Tier, &account.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.LoyaltyAccount{}, services.ErrAccountNotFound
	}
	if err != nil {
		return models.LoyaltyAccount{}, fmt.Errorf("query loyalty account: %w", err)
	}
	return account, nil
}

// AccruePoints upserts the account, adds the points, recomputes the tier
// from the new balance and appends the EARNED ledger entry, all in one
// transaction.
func (r *LoyaltyRepo) AccruePoints(ctx context.Context, userID, points int, orderID *int, description string) (models.LoyaltyAccount, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.LoyaltyAccount{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO loyalty_accounts (user_id, points, tier)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE points = points + VALUES(points)`,
		userID, points, models.TierForPoints(points),
	)
	if err != nil {
		return models.LoyaltyAccount{}, fmt.Errorf("upsert loyalty account: %w", err)
	}

	var account models.LoyaltyAccount
	err = tx.QueryRowContext(ctx,
		`SELECT user_id, points, updated_at FROM loyalty_accounts WHERE user_id = ? FOR UPDATE`,
		userID,
	).Scan(&account.UserID, &account.Points, &account.UpdatedAt)
	if err != nil {
		return models.LoyaltyAccount{}, fmt.Errorf("read balance: %w", err)
	}

	account.Tier = models.TierForPoints(account.Points)
	_, err = tx.ExecContext(ctx,
		`UPDATE loyalty_accounts SET tier = ? WHERE user_id = ?`,
		account.Tier, userID,
	)
	if err != nil {
		return models.LoyaltyAccount{}, fmt.Errorf("recompute tier: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO points_transactions (user_id, points, type, order_id, description)
		VALUES (?, ?, ?, ?, ?)`,
		userID, points, models.PointsEarned, orderID, description,
	)
	if err != nil {
		return models.LoyaltyAccount{}, fmt.Errorf("insert earned entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.LoyaltyAccount{}, fmt.Errorf("commit transaction: %w", err)
	}
	return account, nil
}

func (r *LoyaltyRepo) ListTransactions(ctx context.Context, userID int) ([]models.PointsTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, points, type, order_id, description, created_at
		FROM points_transactions WHERE user_id = ? ORDER BY id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query points transactions: %w", err)
	}
	defer rows.Close()

	var transactions []models.PointsTransaction
	for rows.Next() {
		var t models.PointsTransaction
		var orderID sql.NullInt64
		if err := rows.Scan(&t.ID, &t.UserID, &t.Points, &t.Type, &orderID, &t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan points transaction: %w", err)
		}
		if orderID.Valid {
			v := int(orderID.Int64)
			t.OrderID = &v
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}
