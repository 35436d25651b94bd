package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"bakery-service/models"
)

// InventoryStore is the persistence surface of the stock ledger. Decrements
// must be atomic per product row; two concurrent orders must both land their
// decrement without lost updates.
type InventoryStore interface {
	// DecrementProduct subtracts qty and returns the post-decrement row.
	DecrementProduct(ctx context.Context, productID, qty int) (models.Product, error)
	SetInStock(ctx context.Context, productID int, inStock bool) error
	// CreateNotificationIfAbsent inserts an unread notification unless an
	// unread one of the same type already exists for the product.
	CreateNotificationIfAbsent(ctx context.Context, notifType string, productID int, message string) (bool, error)
	ListNotifications(ctx context.Context, unreadOnly bool) ([]models.AdminNotification, error)
	MarkNotificationRead(ctx context.Context, id int) (bool, error)
}

type InventoryService struct {
	store InventoryStore
}

func NewInventoryService(store InventoryStore) *InventoryService {
	return &InventoryService{store: store}
}

// DecrementStock reduces stock for every line item of a placed order and
// raises deduplicated low/out-of-stock alerts. There is no availability
// pre-check: stock may go negative and is only reacted to afterward. Once a
// decrement lands it is never compensated, so per-item failures are logged
// and the remaining items are still attempted.
func (s *InventoryService) DecrementStock(ctx context.Context, items []models.OrderItem) {
	for _, item := range items {
		product, err := s.store.DecrementProduct(ctx, item.ProductID, item.Quantity)
		if err != nil {
			zap.S().Errorw("stock decrement failed",
				"product_id", item.ProductID, "quantity", item.Quantity, "error", err)
			continue
		}

		if err := s.evaluateStockLevel(ctx, product); err != nil {
			zap.S().Errorw("stock level evaluation failed",
				"product_id", product.ID, "error", err)
		}
	}
}

// Notifications returns the admin alert feed, unread first.
func (s *InventoryService) Notifications(ctx context.Context, unreadOnly bool) ([]models.AdminNotification, error) {
	return s.store.ListNotifications(ctx, unreadOnly)
}

func (s *InventoryService) MarkNotificationRead(ctx context.Context, id int) (bool, error) {
	return s.store.MarkNotificationRead(ctx, id)
}

func (s *InventoryService) evaluateStockLevel(ctx context.Context, product models.Product) error {
	if product.Quantity <= 0 {
		if product.InStock {
			if err := s.store.SetInStock(ctx, product.ID, false); err != nil {
				return err
			}
		}
		created, err := s.store.CreateNotificationIfAbsent(ctx,
			models.NotificationOutOfStock, product.ID,
			fmt.Sprintf("%s is out of stock", product.Name))
		if err != nil {
			return err
		}
		if created {
			zap.S().Warnw("product out of stock", "product_id", product.ID, "name", product.Name)
		}
		return nil
	}

	if product.Quantity <= product.LowStockAlert {
		created, err := s.store.CreateNotificationIfAbsent(ctx,
			models.NotificationLowStock, product.ID,
			fmt.Sprintf("%s is running low (%d left)", product.Name, product.Quantity))
		if err != nil {
			return err
		}
		if created {
			zap.S().Infow("product low on stock",
				"product_id", product.ID, "name", product.Name, "quantity", product.Quantity)
		}
	}
	return nil
}
