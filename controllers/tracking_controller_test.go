package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bakery-service/models"
	"bakery-service/services"
)

type trackingStoreStub struct {
	updateFn func(ctx context.Context, orderID, partnerID int, lat, lng float64) error
}

func (s *trackingStoreStub) GetPartnerByUserID(_ context.Context, userID int) (models.DeliveryPartner, error) {
	return models.DeliveryPartner{ID: 5, UserID: userID, Name: "Ravi"}, nil
}

func (s *trackingStoreStub) UpdateAgentLocation(ctx context.Context, orderID, partnerID int, lat, lng float64) error {
	return s.updateFn(ctx, orderID, partnerID, lat, lng)
}

func (s *trackingStoreStub) GetTracking(_ context.Context, _, _ int) (services.TrackingData, error) {
	return services.TrackingData{}, services.ErrOrderNotFound
}

func trackingRouter(store services.TrackingStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	SetServices(nil, nil, nil, nil, services.NewTrackingService(store))

	r := gin.New()
	r.POST("/api/orders/:id/location", func(c *gin.Context) {
		c.Set("userID", 31)
		c.Next()
	}, PushLocation)
	return r
}

func TestPushLocationAcceptsZeroCoordinates(t *testing.T) {
	var gotLat, gotLng float64
	pushed := false
	store := &trackingStoreStub{
		updateFn: func(_ context.Context, _, _ int, lat, lng float64) error {
			pushed = true
			gotLat, gotLng = lat, lng
			return nil
		},
	}
	r := trackingRouter(store)

	// The equator and the prime meridian are real places.
	w := postJSON(t, r, "/api/orders/12/location", `{"lat":0,"lng":0}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, pushed)
	assert.Equal(t, 0.0, gotLat)
	assert.Equal(t, 0.0, gotLng)
}

func TestPushLocationRejectsOutOfRange(t *testing.T) {
	store := &trackingStoreStub{
		updateFn: func(_ context.Context, _, _ int, _, _ float64) error {
			t.Fatal("out-of-range coordinates must not reach the store")
			return nil
		},
	}
	r := trackingRouter(store)

	w := postJSON(t, r, "/api/orders/12/location", `{"lat":91,"lng":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
