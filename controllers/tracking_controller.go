package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bakery-service/middlewares"
	"bakery-service/models"
)

// PushLocation accepts the agent's periodic GPS ping for an order assigned
// to them. Pushes arrive on a fixed client-side interval; the server keeps
// no session state and each push is a narrow last-write-wins update.
func PushLocation(c *gin.Context) {
	defer func() {
		ok := c.Writer.Status() >= 200 && c.Writer.Status() < 300
		middlewares.RecordTrackingRequest("push", ok)
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

	var req models.LocationPushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := trackingService.RecordAgentLocation(c.Request.Context(), uid, orderID, req.Lat, req.Lng); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Location updated"})
}

// TrackOrder is the customer poll endpoint: status, both last-known
// coordinates, agent name, status history and the derived ETA.
func TrackOrder(c *gin.Context) {
	defer func() {
		ok := c.Writer.Status() >= 200 && c.Writer.Status() < 300
		middlewares.RecordTrackingRequest("poll", ok)
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

	resp, err := trackingService.Track(c.Request.Context(), orderID, uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
