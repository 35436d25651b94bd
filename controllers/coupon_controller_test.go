package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bakery-service/models"
	"bakery-service/services"
)

type couponStoreStub struct {
	getFn func(ctx context.Context, code string) (models.Coupon, error)
}

func (s *couponStoreStub) GetByCode(ctx context.Context, code string) (models.Coupon, error) {
	return s.getFn(ctx, code)
}

func (s *couponStoreStub) CountOrdersForUser(_ context.Context, _ int) (int, error) {
	return 0, nil
}

func (s *couponStoreStub) IncrementUsage(_ context.Context, _ int) (bool, error) {
	return true, nil
}

func couponRouter(store services.CouponStore, authenticated bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	SetServices(nil, services.NewCouponService(store), nil, nil, nil)

	r := gin.New()
	r.POST("/api/coupons/validate", func(c *gin.Context) {
		if authenticated {
			c.Set("userID", 7)
		}
		c.Next()
	}, ValidateCoupon)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestValidateCouponPreview(t *testing.T) {
	maxDiscount := 150.0
	store := &couponStoreStub{
		getFn: func(_ context.Context, code string) (models.Coupon, error) {
			return models.Coupon{
				ID: 3, Code: code, DiscountType: models.DiscountPercentage,
				Value: 20, MaxDiscount: &maxDiscount, Active: true,
				ValidFrom: time.Now().Add(-time.Hour),
			}, nil
		},
	}
	r := couponRouter(store, true)

	w := postJSON(t, r, "/api/coupons/validate", `{"code":"SAVE20","subtotal":1000}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.CouponPreviewResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Valid)
	assert.Equal(t, 150.0, resp.Discount)
}

func TestValidateCouponRejectionIsInlineNotError(t *testing.T) {
	store := &couponStoreStub{
		getFn: func(_ context.Context, _ string) (models.Coupon, error) {
			return models.Coupon{}, services.ErrCouponNotFound
		},
	}
	r := couponRouter(store, true)

	w := postJSON(t, r, "/api/coupons/validate", `{"code":"NOPE","subtotal":1000}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.CouponPreviewResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Valid)
	assert.NotEmpty(t, resp.Message)
}

func TestValidateCouponInfraErrorIs500(t *testing.T) {
	store := &couponStoreStub{
		getFn: func(_ context.Context, _ string) (models.Coupon, error) {
			return models.Coupon{}, errors.New("connection refused")
		},
	}
	r := couponRouter(store, true)

	w := postJSON(t, r, "/api/coupons/validate", `{"code":"SAVE20","subtotal":1000}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestValidateCouponRequiresAuth(t *testing.T) {
	r := couponRouter(&couponStoreStub{}, false)
	w := postJSON(t, r, "/api/coupons/validate", `{"code":"SAVE20","subtotal":1000}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestValidateCouponZeroSubtotal(t *testing.T) {
	store := &couponStoreStub{
		getFn: func(_ context.Context, code string) (models.Coupon, error) {
			return models.Coupon{
				ID: 3, Code: code, DiscountType: models.DiscountPercentage,
				Value: 20, Active: true, ValidFrom: time.Now().Add(-time.Hour),
			}, nil
		},
	}
	r := couponRouter(store, true)

	// An empty cart previewing a coupon is a zero subtotal, not a bad payload.
	w := postJSON(t, r, "/api/coupons/validate", `{"code":"SAVE20","subtotal":0}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.CouponPreviewResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Valid)
	assert.Equal(t, 0.0, resp.Discount)
}

func TestValidateCouponBadPayload(t *testing.T) {
	r := couponRouter(&couponStoreStub{}, true)
	w := postJSON(t, r, "/api/coupons/validate", `{"subtotal":1000}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
