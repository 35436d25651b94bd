package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bakery-service/models"
	"bakery-service/services"
)

// ValidateCoupon is the pre-checkout preview: read-only, never consumes a
// use. The actual redemption happens at order placement.
func ValidateCoupon(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req models.CouponPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, discount, err := couponService.Validate(c.Request.Context(), req.Code, req.Subtotal, uid)
	if err != nil {
		// Rule violations come back as a valid=false preview, not an error
		// response: the storefront shows the reason inline.
		if services.IsBusinessError(err) || errors.Is(err, services.ErrCouponNotFound) {
			c.JSON(http.StatusOK, models.CouponPreviewResponse{
				Valid:   false,
				Message: err.Error(),
			})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.CouponPreviewResponse{
		Valid:    true,
		Discount: discount,
		Message:  "Coupon applied",
	})
}
