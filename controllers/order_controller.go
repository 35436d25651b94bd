package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bakery-service/middlewares"
	"bakery-service/models"
)

// CreateOrder places an order: the checkout transaction over inventory,
// coupon and loyalty ledgers.
func CreateOrder(c *gin.Context) {
	defer func() {
		ok := c.Writer.Status() >= 200 && c.Writer.Status() < 300
		middlewares.RecordOrderOperation("create", ok)
	}()

	uid, ok := userID(c)
	if !ok {
		return
	}

	var req models.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := orderService.PlaceOrder(c.Request.Context(), uid, req)
	if err != nil {
		respondError(c, err)
		return
	}

	zap.S().Infow("order placed",
		"order_id", resp.OrderID, "order_number", resp.OrderNumber, "user_id", uid)
	c.JSON(http.StatusCreated, resp)
}

func GetUserOrders(c *gin.Context) {
	defer func() {
		ok := c.Writer.Status() >= 200 && c.Writer.Status() < 300
		middlewares.RecordOrderOperation("list", ok)
	}()

	uid, ok := userID(c)
	if !ok {
		return
	}

	orders, err := orderService.ListOrdersForUser(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	if orders == nil {
		orders = []models.OrderSummary{}
	}
	c.JSON(http.StatusOK, orders)
}

func GetOrderDetails(c *gin.Context) {
	defer func() {
		ok := c.Writer.Status() >= 200 && c.Writer.Status() < 300
		middlewares.RecordOrderOperation("details", ok)
	}()

	uid, ok := userID(c)
	if !ok {
		return
	}

	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	order, err := orderService.GetOrderForUser(c.Request.Context(), orderID, uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateOrderStatus drives the status machine. Admin and delivery agents
// only; assigning a partner and moving to ASSIGNED is one operation.
func UpdateOrderStatus(c *gin.Context) {
	defer func() {
		ok := c.Writer.Status() >= 200 && c.Writer.Status() < 300
		middlewares.RecordOrderOperation("update_status", ok)
	}()

	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	var req models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := orderService.UpdateStatus(c.Request.Context(), orderID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	zap.S().Infow("order status updated",
		"order_id", orderID, "status", req.Status)
	c.JSON(http.StatusOK, order)
}

// CancelOrder lets the owning customer cancel an order that is still
// PENDING.
func CancelOrder(c *gin.Context) {
	defer func() {
		ok := c.Writer.Status() >= 200 && c.Writer.Status() < 300
		middlewares.RecordOrderOperation("cancel", ok)
	}()

	uid, ok := userID(c)
	if !ok {
		return
	}

	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	order, err := orderService.CancelOwnOrder(c.Request.Context(), uid, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
