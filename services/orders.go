package services

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"bakery-service/models"
)

// OrderStore is the persistence surface of order placement and the status
// machine. CreateOrder persists the order, its items, the address snapshot
// and the PENDING history seed in one transaction; when PointsRedeemed is
// set it also performs the guarded balance deduction plus the REDEEMED
// ledger row in that same transaction, failing the whole insert with
// ErrInsufficientPoints if a concurrent redemption got there first.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, orderID int) (models.Order, error)
	GetOrderForUser(ctx context.Context, orderID, userID int) (models.Order, error)
	ListOrdersForUser(ctx context.Context, userID int) ([]models.OrderSummary, error)
	ListOrdersByStatus(ctx context.Context, status string) ([]models.OrderSummary, error)
	// TransitionStatus updates the status (and assigns the partner when
	// given) guarded against terminal states, appends the history row, and
	// on DELIVERED increments the partner's delivery counter, all in one
	// transaction. The terminal guard is what makes a duplicate DELIVERED
	// call unable to double-increment the counter.
	TransitionStatus(ctx context.Context, orderID int, status string, partnerID *int, note string) (models.Order, error)
}

// EventPublisher pushes order lifecycle events to the message broker.
type EventPublisher interface {
	PublishOrderEvent(event models.OrderEvent, priority uint8) error
	PublishDelayedEvent(event models.OrderEvent, delay time.Duration) error
}

type OrderService struct {
	store          OrderStore
	coupons        *CouponService
	loyalty        *LoyaltyService
	inventory      *InventoryService
	publisher      EventPublisher
	pendingTimeout time.Duration
}

func NewOrderService(store OrderStore, coupons *CouponService, loyalty *LoyaltyService, inventory *InventoryService, publisher EventPublisher, pendingTimeout time.Duration) *OrderService {
	return &OrderService{
		store:          store,
		coupons:        coupons,
		loyalty:        loyalty,
		inventory:      inventory,
		publisher:      publisher,
		pendingTimeout: pendingTimeout,
	}
}

// PlaceOrder is the checkout transaction. Validation failures reject before
// any mutation. Coupon and points failures degrade gracefully: the order
// still places without the discount and the response carries the reason.
// Inventory decrement and loyalty accrual run after the order is committed
// and are never compensated.
func (s *OrderService) PlaceOrder(ctx context.Context, userID int, req models.PlaceOrderRequest) (models.PlaceOrderResponse, error) {
	if err := validatePlaceOrder(req); err != nil {
		return models.PlaceOrderResponse{}, err
	}

	var resp models.PlaceOrderResponse

	// Coupon: validated against the current subtotal and consumed up front.
	var couponID *int
	var couponDiscount float64
	if req.CouponCode != "" {
		coupon, discount, err := s.coupons.Apply(ctx, req.CouponCode, req.Subtotal, userID)
		switch {
		case err == nil:
			couponID = &coupon.ID
			couponDiscount = discount
		case IsBusinessError(err):
			resp.CouponMessage = err.Error()
		default:
			return models.PlaceOrderResponse{}, err
		}
	}

	// Points: validated here, deducted inside the order transaction so the
	// ledger row can reference the order.
	pointsToRedeem := 0
	var redeemDiscount float64
	if req.PointsToRedeem > 0 {
		discount, err := s.loyalty.ValidateRedemption(ctx, userID, req.PointsToRedeem, req.Subtotal)
		switch {
		case err == nil:
			pointsToRedeem = req.PointsToRedeem
			redeemDiscount = discount
		case IsBusinessError(err):
			resp.PointsMessage = err.Error()
		default:
			return models.PlaceOrderResponse{}, err
		}
	}

	order := s.buildOrder(userID, req, couponID, couponDiscount, pointsToRedeem, redeemDiscount)

	err := s.store.CreateOrder(ctx, &order)
	if errors.Is(err, ErrInsufficientPoints) && pointsToRedeem > 0 {
		// Lost a race on the balance between validation and deduction.
		// Place the order without the redemption rather than failing it.
		resp.PointsMessage = ErrInsufficientPoints.Error()
		order = s.buildOrder(userID, req, couponID, couponDiscount, 0, 0)
		err = s.store.CreateOrder(ctx, &order)
	}
	if err != nil {
		return models.PlaceOrderResponse{}, err
	}

	// The order is committed: stock decrement and its notifications always
	// run, and stay, even if accrual fails afterwards.
	s.inventory.DecrementStock(ctx, req.Items)

	if order.PointsEarned > 0 {
		if _, err := s.loyalty.Accrue(ctx, userID, order.Total, order.ID); err != nil {
			zap.S().Errorw("loyalty accrual failed", "order_id", order.ID, "error", err)
		}
	}

	s.publishEvent(order, "created", placementPriority(order.Total))
	s.publishPendingCheck(order)

	resp.OrderID = order.ID
	resp.OrderNumber = order.OrderNumber
	resp.PointsEarned = order.PointsEarned
	return resp, nil
}

func (s *OrderService) buildOrder(userID int, req models.PlaceOrderRequest, couponID *int, couponDiscount float64, pointsRedeemed int, redeemDiscount float64) models.Order {
	discount := couponDiscount + redeemDiscount
	if discount > req.Subtotal {
		discount = req.Subtotal
	}
	total := req.Subtotal + req.DeliveryFee + req.Tax - discount

	address := req.Address
	if address.CustomerLat == nil || address.CustomerLng == nil {
		address.LocationSource = ""
	} else if address.LocationSource != models.LocationSourceGPS {
		address.LocationSource = models.LocationSourceGeocoded
	}

	return models.Order{
		UserID:         userID,
		Status:         models.StatusPending,
		Subtotal:       req.Subtotal,
		DeliveryFee:    req.DeliveryFee,
		Tax:            req.Tax,
		Discount:       discount,
		Total:          total,
		CouponID:       couponID,
		PointsRedeemed: pointsRedeemed,
		PointsEarned:   PointsForTotal(total),
		Items:          req.Items,
		Address:        &address,
	}
}

// UpdateStatus drives the status machine for admin and agent callers.
// Transitions are permissive except that terminal states are frozen and
// ASSIGNED requires a delivery partner in the same operation.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int, req models.UpdateStatusRequest) (models.Order, error) {
	current, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}

	if err := ValidateTransition(current, req.Status, req.DeliveryPartnerID); err != nil {
		return models.Order{}, err
	}

	note := req.Note
	if note == "" {
		note = defaultStatusNote(req.Status)
	}

	updated, err := s.store.TransitionStatus(ctx, orderID, req.Status, req.DeliveryPartnerID, note)
	if err != nil {
		return models.Order{}, err
	}

	priority := statusPriority(req.Status)
	s.publishEvent(updated, "status_updated", priority)
	return updated, nil
}

// CancelOwnOrder lets a customer cancel their own order while it is still
// PENDING. Anything further along goes through the kitchen.
func (s *OrderService) CancelOwnOrder(ctx context.Context, userID, orderID int) (models.Order, error) {
	current, err := s.store.GetOrderForUser(ctx, orderID, userID)
	if err != nil {
		return models.Order{}, err
	}
	if current.Status != models.StatusPending {
		return models.Order{}, ErrOrderAlreadyFinal
	}

	updated, err := s.store.TransitionStatus(ctx, orderID, models.StatusCancelled, nil, "Cancelled by customer")
	if err != nil {
		return models.Order{}, err
	}

	s.publishEvent(updated, "status_updated", statusPriority(models.StatusCancelled))
	return updated, nil
}

// AutoCancelPending cancels an order that is still PENDING when its
// confirmation window expires. Invoked by the delayed pending_check event.
func (s *OrderService) AutoCancelPending(ctx context.Context, orderID int) error {
	current, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if current.Status != models.StatusPending {
		return nil
	}

	updated, err := s.store.TransitionStatus(ctx, orderID, models.StatusCancelled, nil, "Cancelled automatically: not confirmed in time")
	if errors.Is(err, ErrOrderAlreadyFinal) {
		return nil
	}
	if err != nil {
		return err
	}

	zap.S().Infow("order auto-cancelled", "order_id", orderID)
	s.publishEvent(updated, "status_updated", statusPriority(models.StatusCancelled))
	return nil
}

func (s *OrderService) GetOrderForUser(ctx context.Context, orderID, userID int) (models.Order, error) {
	return s.store.GetOrderForUser(ctx, orderID, userID)
}

func (s *OrderService) ListOrdersForUser(ctx context.Context, userID int) ([]models.OrderSummary, error) {
	return s.store.ListOrdersForUser(ctx, userID)
}

func (s *OrderService) ListOrdersByStatus(ctx context.Context, status string) ([]models.OrderSummary, error) {
	return s.store.ListOrdersByStatus(ctx, status)
}

// ValidateTransition applies the status machine rules that depend on the
// current order state. The repository re-checks the terminal guard
// atomically, so a race between two updates still cannot escape a terminal
// state.
func ValidateTransition(current models.Order, newStatus string, partnerID *int) error {
	if models.IsTerminalStatus(current.Status) {
		return ErrOrderAlreadyFinal
	}
	if newStatus == models.StatusAssigned && partnerID == nil && current.DeliveryPartnerID == nil {
		return ErrPartnerRequired
	}
	return nil
}

func (s *OrderService) publishEvent(order models.Order, eventType string, priority uint8) {
	if s.publisher == nil {
		return
	}
	event := models.OrderEvent{
		OrderID:  order.ID,
		UserID:   order.UserID,
		Type:     eventType,
		Status:   order.Status,
		Total:    order.Total,
		Occurred: time.Now(),
	}
	if err := s.publisher.PublishOrderEvent(event, priority); err != nil {
		zap.S().Errorw("failed to publish order event",
			"order_id", order.ID, "type", eventType, "error", err)
	}
}

func (s *OrderService) publishPendingCheck(order models.Order) {
	if s.publisher == nil || s.pendingTimeout <= 0 {
		return
	}
	event := models.OrderEvent{
		OrderID:  order.ID,
		UserID:   order.UserID,
		Type:     "pending_check",
		Status:   order.Status,
		Total:    order.Total,
		Occurred: time.Now(),
	}
	if err := s.publisher.PublishDelayedEvent(event, s.pendingTimeout); err != nil {
		zap.S().Errorw("failed to publish pending check",
			"order_id", order.ID, "error", err)
	}
}

func validatePlaceOrder(req models.PlaceOrderRequest) error {
	if len(req.Items) == 0 {
		return ErrEmptyCart
	}
	var subtotal float64
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return ErrInvalidQuantity
		}
		if item.Price < 0 {
			return ErrInvalidTotals
		}
		subtotal += item.Price * float64(item.Quantity)
	}

	addr := req.Address
	if addr.Name == "" || addr.Phone == "" || addr.Street == "" || addr.City == "" || addr.PostalCode == "" {
		return ErrMissingAddress
	}

	if req.Subtotal < 0 || req.DeliveryFee < 0 || req.Tax < 0 {
		return ErrInvalidTotals
	}
	// The client-computed subtotal must match the line items it sent.
	if math.Abs(subtotal-req.Subtotal) > 0.01 {
		return ErrInvalidTotals
	}
	return nil
}

func defaultStatusNote(status string) string {
	switch status {
	case models.StatusConfirmed:
		return "Order confirmed by the bakery"
	case models.StatusPreparing:
		return "Order is being prepared"
	case models.StatusAssigned:
		return "Delivery partner assigned"
	case models.StatusPickedUp:
		return "Order picked up"
	case models.StatusOutForDelivery:
		return "Order is out for delivery"
	case models.StatusDelivered:
		return "Order delivered"
	case models.StatusCancelled:
		return "Order cancelled"
	default:
		return ""
	}
}

// placementPriority mirrors the broker queue priority rule: large orders
// jump the queue.
func placementPriority(total float64) uint8 {
	if total > 1000 {
		return 9
	}
	return 5
}

func statusPriority(status string) uint8 {
	if status == models.StatusCancelled {
		return 8
	}
	return 5
}

// IsBusinessError reports whether an error is a clean rule violation that
// degrades checkout instead of failing it.
func IsBusinessError(err error) bool {
	for _, target := range []error{
		ErrCouponNotFound, ErrCouponInactive, ErrCouponNotYetValid,
		ErrCouponExpired, ErrCouponExhausted, ErrCouponMinOrder,
		ErrCouponFirstOrder, ErrAccountNotFound, ErrBelowMinRedeem,
		ErrInsufficientPoints,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
