package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bakery-service/models"
)

var errProductNotFound = errors.New("product not found")

type InventoryRepo struct {
	db *sql.DB
}

func NewInventoryRepo(db *sql.DB) *InventoryRepo {
	return &InventoryRepo{db: db}
}

// DecrementProduct applies the stock decrement as a single atomic UPDATE
// (no read-then-write window) and returns the post-decrement row. The
// quantity is allowed to go negative; oversell is detected afterward.
func (r *InventoryRepo) DecrementProduct(ctx context.Context, productID, qty int) (models.Product, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE products SET quantity = quantity - ? WHERE id = ?`,
		qty, productID,
	)
	if err != nil {
		return models.Product{}, fmt.Errorf("decrement stock: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return models.Product{}, fmt.Errorf("decrement stock: %w", err)
	}
	if affected == 0 {
		return models.Product{}, errProductNotFound
	}

	var p models.Product
	err = r.db.QueryRowContext(ctx, `
		SELECT id, name, price, quantity, low_stock_alert, in_stock
		FROM products WHERE id = ?`, productID,
	).Scan(&p.ID, &p.Name, &p.Price, &p.Quantity, &p.LowStockAlert, &p.InStock)
	if err != nil {
		return models.Product{}, fmt.Errorf("read product: %w", err)
	}
	return p, nil
}

func (r *InventoryRepo) SetInStock(ctx context.Context, productID int, inStock bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE products SET in_stock = ? WHERE id = ?`, inStock, productID)
	if err != nil {
		return fmt.Errorf("set in_stock: %w", err)
	}
	return nil
}

// CreateNotificationIfAbsent deduplicates in a single statement: the insert
// only happens when no unread notification of the same type exists for the
// product, so repeated small orders cannot spam the admin.
func (r *InventoryRepo) CreateNotificationIfAbsent(ctx context.Context, notifType string, productID int, message string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO admin_notifications (type, product_id, message)
		SELECT ?, ?, ?
		FROM DUAL
		WHERE NOT EXISTS (
			SELECT 1 FROM admin_notifications
			WHERE type = ? AND product_id = ? AND is_read = FALSE
		)`,
		notifType, productID, message, notifType, productID,
	)
	if err != nil {
		return false, fmt.Errorf("insert notification: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert notification: %w", err)
	}
	return affected > 0, nil
}

func (r *InventoryRepo) ListNotifications(ctx context.Context, unreadOnly bool) ([]models.AdminNotification, error) {
	query := `
		SELECT id, type, product_id, message, is_read, created_at
		FROM admin_notifications`
	if unreadOnly {
		query += ` WHERE is_read = FALSE`
	}
	query += ` ORDER BY is_read ASC, created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.AdminNotification
	for rows.Next() {
		var n models.AdminNotification
		if err := rows.Scan(&n.ID, &n.Type, &n.ProductID, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *InventoryRepo) MarkNotificationRead(ctx context.Context, id int) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE admin_notifications SET is_read = TRUE WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("mark notification read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark notification read: %w", err)
	}
	return affected > 0, nil
}
