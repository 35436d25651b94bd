package models

// DeliveryPartner is a delivery agent with a lifetime completed-deliveries
// counter, incremented exactly once per delivered order.
type DeliveryPartner struct {
	ID              int    `json:"id"`
	UserID          int    `json:"user_id"`
	Name            string `json:"name"`
	TotalDeliveries int    `json:"total_deliveries"`
}
