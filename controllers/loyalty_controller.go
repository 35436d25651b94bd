package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bakery-service/models"
	"bakery-service/services"
)

// GetLoyaltyAccount returns the caller's balance, tier and ledger history.
func GetLoyaltyAccount(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	account, transactions, err := loyaltyService.Account(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	if transactions == nil {
		transactions = []models.PointsTransaction{}
	}
	c.JSON(http.StatusOK, gin.H{
		"account":      account,
		"transactions": transactions,
	})
}

// RedeemPreview computes the discount a redemption would yield without
// mutating the balance. The actual redemption happens at order placement.
func RedeemPreview(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req models.RedeemPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	discount, err := loyaltyService.ValidateRedemption(c.Request.Context(), uid, req.Points, req.Subtotal)
	if err != nil {
		if services.IsBusinessError(err) {
			c.JSON(http.StatusOK, models.RedeemPreviewResponse{
				Valid:   false,
				Message: err.Error(),
			})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.RedeemPreviewResponse{
		Valid:    true,
		Discount: discount,
		Message:  "Points applied",
	})
}
