package models

import "time"

// BarTable represents an open tab tied to a physical table at an event.
// The draft cart (Items) is freely edited and saved while the table is open,
// with no stock or spend effect. Closing is terminal and happens through the
// same atomic charge as a direct POS sale.
type BarTable struct {
	ID             int64       `json:"id" db:"id"`
	EventID        int64       `json:"event_id" db:"event_id" binding:"required"`
	EventManagerID int64       `json:"event_manager_id" db:"event_manager_id"`
	TableNumber    string      `json:"table_number" db:"table_number" binding:"required"`
	IsOpen         bool        `json:"is_open" db:"is_open"`
	TotalAmount    float64     `json:"total_amount" db:"total_amount"`
	Items          []TableItem `json:"items"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"`
}

// TableItem is one draft cart line on a table. Name and price are snapshotted
// at save time for display; the charge re-reads them inside its transaction.
type TableItem struct {
	ID           int64   `json:"id" db:"id"`
	TableID      int64   `json:"table_id" db:"table_id"`
	BeverageID   int64   `json:"beverage_id" db:"beverage_id"`
	Name         string  `json:"name" db:"name"`
	Quantity     int     `json:"quantity" db:"quantity"`
	PricePerUnit float64 `json:"price_per_unit" db:"price_per_unit"`
}
