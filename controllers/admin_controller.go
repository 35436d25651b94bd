package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bakery-service/models"
)

// ListNotifications returns the stock alert feed for the admin dashboard,
// unread first. Pass ?unread=true for unread only.
func ListNotifications(c *gin.Context) {
	unreadOnly := c.Query("unread") == "true"

	notifications, err := inventoryService.Notifications(c.Request.Context(), unreadOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	if notifications == nil {
		notifications = []models.AdminNotification{}
	}
	c.JSON(http.StatusOK, notifications)
}

func MarkNotificationRead(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification ID"})
		return
	}

	ok, err := inventoryService.MarkNotificationRead(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// ListOrdersByStatus feeds the kitchen screen: all orders in a given state,
// oldest first.
func ListOrdersByStatus(c *gin.Context) {
	status := c.Query("status")
	if status == "" {
		status = models.StatusPending
	}

	orders, err := orderService.ListOrdersByStatus(c.Request.Context(), status)
	if err != nil {
		respondError(c, err)
		return
	}
	if orders == nil {
		orders = []models.OrderSummary{}
	}
	c.JSON(http.StatusOK, orders)
}
