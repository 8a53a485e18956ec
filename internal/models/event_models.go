package models

import "time"

// Event represents a bar-service engagement with its own budget, beverages,
// tables and orders. An event manager may have any number of active events.
type Event struct {
	ID             int64     `json:"id" db:"id"`
	EventManagerID int64     `json:"event_manager_id" db:"event_manager_id"`
	Name           string    `json:"name" db:"name" binding:"required"`
	Date           string    `json:"date" db:"event_date" binding:"required"` // YYYY-MM-DD
	Location       string    `json:"location" db:"location" binding:"required"`
	Budget         float64   `json:"budget" db:"budget" binding:"required,gt=0"`
	CurrentSpend   float64   `json:"current_spend" db:"current_spend"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// BudgetStatus is the budget/spend snapshot for one event.
type BudgetStatus struct {
	EventID      int64   `json:"event_id"`
	Budget       float64 `json:"budget"`
	CurrentSpend float64 `json:"current_spend"`
}

// EventFilters defines the available filters for querying events.
type EventFilters struct {
	IsActive *bool `form:"is_active"`
	Page     int   `form:"page"`
	PageSize int   `form:"page_size"`
}
