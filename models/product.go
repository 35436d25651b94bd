package models

type Product struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Quantity      int     `json:"quantity"`
	LowStockAlert int     `json:"low_stock_alert"`
	InStock       bool    `json:"in_stock"`
}
