package models

import "time"

// Order is an immutable receipt produced by exactly one successful charge.
// It is never updated or deleted; item lines snapshot name and price at
// charge time so historical reports survive later renames and reprices.
type Order struct {
	ID              int64       `json:"id" db:"id"`
	EventID         int64       `json:"event_id" db:"event_id"`
	TableID         *int64      `json:"table_id,omitempty" db:"table_id"`
	EventManagerID  int64       `json:"event_manager_id" db:"event_manager_id"`
	ClientRequestID *string     `json:"client_request_id,omitempty" db:"client_request_id"`
	OrderTime       time.Time   `json:"order_time" db:"order_time"`
	TotalAmount     float64     `json:"total_amount" db:"total_amount"`
	Items           []OrderItem `json:"items"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
}

// OrderItem is one charged cart line with its charge-time snapshot.
type OrderItem struct {
	ID           int64   `json:"id" db:"id"`
	OrderID      int64   `json:"order_id" db:"order_id"`
	BeverageID   int64   `json:"beverage_id" db:"beverage_id"`
	Name         string  `json:"name" db:"name"`
	Quantity     int     `json:"quantity" db:"quantity"`
	PricePerUnit float64 `json:"price_per_unit" db:"price_per_unit"`
	TotalPrice   float64 `json:"total_price" db:"total_price"`
}

// OrderFilters defines the available filters for querying orders.
type OrderFilters struct {
	EventID  *int64  `form:"event_id"`
	TableID  *int64  `form:"table_id"`
	Date     *string `form:"date"` // Expected format YYYY-MM-DD
	Page     int     `form:"page"`
	PageSize int     `form:"page_size"`
}

// BeverageSales is the per-beverage revenue aggregation over order items,
// recomputed from orders rather than stored.
type BeverageSales struct {
	BeverageID   int64   `json:"beverage_id"`
	QuantitySold int     `json:"quantity_sold"`
	Revenue      float64 `json:"revenue"`
}
