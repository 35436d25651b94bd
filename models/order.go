package models

import (
	"time"
)

// Order statuses. ASSIGNED additionally requires a delivery partner to be
// set in the same update.
const (
	StatusPending        = "PENDING"
	StatusConfirmed      = "CONFIRMED"
	StatusPreparing      = "PREPARING"
	StatusAssigned       = "ASSIGNED"
	StatusPickedUp       = "PICKED_UP"
	StatusOutForDelivery = "OUT_FOR_DELIVERY"
	StatusDelivered      = "DELIVERED"
	StatusCancelled      = "CANCELLED"
)

// IsTerminalStatus reports whether no further transitions are allowed.
func IsTerminalStatus(status string) bool {
	return status == StatusDelivered || status == StatusCancelled
}

// IsInTransitStatus reports whether the agent is on the road, which is the
// only window in which an ETA is meaningful.
func IsInTransitStatus(status string) bool {
	return status == StatusPickedUp || status == StatusOutForDelivery
}

type Order struct {
	ID                int         `json:"id"`
	OrderNumber       string      `json:"order_number"`
	UserID            int         `json:"user_id"`
	Status            string      `json:"status"`
	Subtotal          float64     `json:"subtotal"`
	DeliveryFee       float64     `json:"delivery_fee"`
	Tax               float64     `json:"tax"`
	Discount          float64     `json:"discount"`
	Total             float64     `json:"total"`
	CouponID          *int        `json:"coupon_id,omitempty"`
	PointsRedeemed    int         `json:"points_redeemed"`
	PointsEarned      int         `json:"points_earned"`
	DeliveryPartnerID *int        `json:"delivery_partner_id,omitempty"`
	AgentLat          *float64    `json:"agent_lat,omitempty"`
	AgentLng          *float64    `json:"agent_lng,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
	Items             []OrderItem `json:"items,omitempty"`
	Address           *Address    `json:"address,omitempty"`
}

type OrderItem struct {
	ProductID   int     `json:"product_id" binding:"required"`
	ProductName string  `json:"product_name" binding:"required"`
	Quantity    int     `json:"quantity" binding:"required,min=1"`
	Price       float64 `json:"price"`
}

// Address location sources, so the tracking screen can label how precise
// the customer pin is.
const (
	LocationSourceGPS      = "gps"
	LocationSourceGeocoded = "geocoded"
)

// Address is the per-order snapshot taken at checkout. Later edits to a
// saved address never touch past orders.
type Address struct {
	Name           string   `json:"name" binding:"required"`
	Phone          string   `json:"phone" binding:"required"`
	Street         string   `json:"street" binding:"required"`
	City           string   `json:"city" binding:"required"`
	PostalCode     string   `json:"postal_code" binding:"required"`
	CustomerLat    *float64 `json:"customer_lat,omitempty"`
	CustomerLng    *float64 `json:"customer_lng,omitempty"`
	LocationSource string   `json:"location_source,omitempty"`
}

// StatusHistoryEntry is one row of the append-only status log.
type StatusHistoryEntry struct {
	Status    string    `json:"status"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PlaceOrderRequest is the checkout payload. Totals are computed client-side
// and re-validated server-side; discount and total are always recomputed.
type PlaceOrderRequest struct {
	Address        Address     `json:"address" binding:"required"`
	Items          []OrderItem `json:"items" binding:"required"`
	Subtotal       float64     `json:"subtotal"`
	DeliveryFee    float64     `json:"delivery_fee"`
	Tax            float64     `json:"tax"`
	CouponCode     string      `json:"coupon_code,omitempty"`
	PointsToRedeem int         `json:"points_to_redeem,omitempty"`
}

type PlaceOrderResponse struct {
	OrderID       int    `json:"order_id"`
	OrderNumber   string `json:"order_number"`
	PointsEarned  int    `json:"points_earned"`
	CouponMessage string `json:"coupon_message,omitempty"`
	PointsMessage string `json:"points_message,omitempty"`
}

// UpdateStatusRequest drives the order status machine. Admin and delivery
// agents only.
type UpdateStatusRequest struct {
	Status            string `json:"status" binding:"required,oneof=PENDING CONFIRMED PREPARING ASSIGNED PICKED_UP OUT_FOR_DELIVERY DELIVERED CANCELLED"`
	DeliveryPartnerID *int   `json:"delivery_partner_id,omitempty"`
	Note              string `json:"note,omitempty"`
}

// LocationPushRequest is the agent's periodic GPS ping. Zero is a valid
// coordinate on either axis, so only the ranges are validated.
type LocationPushRequest struct {
	Lat float64 `json:"lat" binding:"min=-90,max=90"`
	Lng float64 `json:"lng" binding:"min=-180,max=180"`
}

// TrackingResponse is the customer-facing poll read model.
type TrackingResponse struct {
	OrderID        int                  `json:"order_id"`
	OrderNumber    string               `json:"order_number"`
	Status         string               `json:"status"`
	AgentName      string               `json:"agent_name,omitempty"`
	AgentLat       *float64             `json:"agent_lat,omitempty"`
	AgentLng       *float64             `json:"agent_lng,omitempty"`
	CustomerLat    *float64             `json:"customer_lat,omitempty"`
	CustomerLng    *float64             `json:"customer_lng,omitempty"`
	LocationSource string               `json:"location_source,omitempty"`
	ETAMinutes     *int                 `json:"eta_minutes,omitempty"`
	StatusHistory  []StatusHistoryEntry `json:"status_history"`
}

// OrderSummary is the list-view projection used by the customer history and
// the kitchen screen.
type OrderSummary struct {
	ID          int       `json:"id"`
	OrderNumber string    `json:"order_number"`
	Status      string    `json:"status"`
	Total       float64   `json:"total"`
	CreatedAt   time.Time `json:"created_at"`
}

// OrderEvent is the message published to the order exchange after commits.
type OrderEvent struct {
	OrderID  int       `json:"order_id"`
	UserID   int       `json:"user_id"`
	Type     string    `json:"type"` // created, status_updated, pending_check
	Status   string    `json:"status"`
	Total    float64   `json:"total"`
	Occurred time.Time `json:"occurred"`
}
