package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bakery-service/services"
)

var (
	orderService     *services.OrderService
	couponService    *services.CouponService
	loyaltyService   *services.LoyaltyService
	inventoryService *services.InventoryService
	trackingService  *services.TrackingService
)

// SetServices wires the service layer into the handler package.
func SetServices(orders *services.OrderService, coupons *services.CouponService, loyalty *services.LoyaltyService, inventory *services.InventoryService, tracking *services.TrackingService) {
	orderService = orders
	couponService = coupons
	loyaltyService = loyalty
	inventoryService = inventory
	trackingService = tracking
}

func userID(c *gin.Context) (int, bool) {
	id, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return 0, false
	}
	return id.(int), true
}

// respondError maps business-rule violations to user-displayable reasons
// and everything else to a 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrCouponNotFound),
		errors.Is(err, services.ErrAccountNotFound),
		errors.Is(err, services.ErrPartnerNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrOrderAlreadyFinal),
		errors.Is(err, services.ErrTrackingDisabled):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrAgentNotAssigned):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrEmptyCart),
		errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrMissingAddress),
		errors.Is(err, services.ErrInvalidTotals),
		errors.Is(err, services.ErrPartnerRequired),
		errors.Is(err, services.ErrBelowMinRedeem),
		errors.Is(err, services.ErrInsufficientPoints):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
