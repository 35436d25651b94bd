package models

import "time"

// Admin notification types.
const (
	NotificationLowStock   = "LOW_STOCK"
	NotificationOutOfStock = "OUT_OF_STOCK"
)

// AdminNotification is a deduplicated stock alert: at most one unread row
// per (type, product) at any time.
type AdminNotification struct {
	ID        int       `json:"id"`
	Type      string    `json:"type"`
	ProductID int       `json:"product_id"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
