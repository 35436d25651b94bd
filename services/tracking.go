package services

import (
	"context"
	"math"

	"bakery-service/models"
)

// ETA model shared with clients: any consumer recomputing an estimate from
// the same two coordinates must use the same formula and speed constant, or
// the displayed numbers drift.
const (
	EarthRadiusKm    = 6371.0
	DeliverySpeedKmh = 20.0 // effective urban delivery speed
)

// TrackingData is the raw read model assembled by the store for one order.
type TrackingData struct {
	Order     models.Order
	Address   models.Address
	History   []models.StatusHistoryEntry
	AgentName string
}

// TrackingStore is the persistence surface of the delivery tracking service.
// UpdateAgentLocation must touch only the agent coordinate columns so a push
// can never clobber a concurrent status change.
type TrackingStore interface {
	GetPartnerByUserID(ctx context.Context, userID int) (models.DeliveryPartner, error)
	UpdateAgentLocation(ctx context.Context, orderID, partnerID int, lat, lng float64) error
	GetTracking(ctx context.Context, orderID, userID int) (TrackingData, error)
}

type TrackingService struct {
	store TrackingStore
}

func NewTrackingService(store TrackingStore) *TrackingService {
	return &TrackingService{store: store}
}

// RecordAgentLocation stores the agent's latest ping for an order.
// Last write wins: a stale retry overwriting a newer ping is acceptable and
// silently superseded by the next push.
func (s *TrackingService) RecordAgentLocation(ctx context.Context, agentUserID, orderID int, lat, lng float64) error {
	partner, err := s.store.GetPartnerByUserID(ctx, agentUserID)
	if err != nil {
		return err
	}
	return s.store.UpdateAgentLocation(ctx, orderID, partner.ID, lat, lng)
}

// Track builds the customer poll response: status, both last-known
// coordinates, agent name, status history and a derived ETA. The ETA is only
// present while the order is in transit and both coordinates are known.
func (s *TrackingService) Track(ctx context.Context, orderID, userID int) (models.TrackingResponse, error) {
	data, err := s.store.GetTracking(ctx, orderID, userID)
	if err != nil {
		return models.TrackingResponse{}, err
	}
	// A cancelled order has nothing left to track.
	if data.Order.Status == models.StatusCancelled {
		return models.TrackingResponse{}, ErrTrackingDisabled
	}

	resp := models.TrackingResponse{
		OrderID:        data.Order.ID,
		OrderNumber:    data.Order.OrderNumber,
		Status:         data.Order.Status,
		AgentName:      data.AgentName,
		AgentLat:       data.Order.AgentLat,
		AgentLng:       data.Order.AgentLng,
		CustomerLat:    data.Address.CustomerLat,
		CustomerLng:    data.Address.CustomerLng,
		LocationSource: data.Address.LocationSource,
		StatusHistory:  data.History,
	}

	if models.IsInTransitStatus(data.Order.Status) &&
		data.Order.AgentLat != nil && data.Order.AgentLng != nil &&
		data.Address.CustomerLat != nil && data.Address.CustomerLng != nil {
		distance := Haversine(*data.Order.AgentLat, *data.Order.AgentLng,
			*data.Address.CustomerLat, *data.Address.CustomerLng)
		eta := ETAMinutes(distance)
		resp.ETAMinutes = &eta
	}

	return resp, nil
}

// Haversine returns the great-circle distance between two coordinates in km.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// ETAMinutes converts a distance to a travel-time estimate at the assumed
// urban delivery speed, rounded up to whole minutes, never below one.
func ETAMinutes(distanceKm float64) int {
	minutes := int(math.Ceil(distanceKm / DeliverySpeedKmh * 60))
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
