package models

import "time"

// BeverageType defines the type for beverage types.
type BeverageType string

const (
	BeverageTypeAlcoholic    BeverageType = "alcoholic"
	BeverageTypeNonAlcoholic BeverageType = "non-alcoholic"
)

// Beverage categories are a fixed enumeration conditioned on the beverage type.
var (
	nonAlcoholicCategories = []string{"Juice", "Fizzy", "Coffee", "Water", "Other Non-Alcoholic"}
	alcoholicCategories    = []string{"Red Wine", "White Wine", "Beers", "Ciders", "Strong Drink", "Other Alcoholic"}
)

// IsValidBeverageType checks if the provided string is a valid BeverageType.
func IsValidBeverageType(beverageType string) bool {
	switch BeverageType(beverageType) {
	case BeverageTypeAlcoholic, BeverageTypeNonAlcoholic:
		return true
	default:
		return false
	}
}

// IsValidBeverageCategory checks that the category belongs to the enumeration
// for the given beverage type.
func IsValidBeverageCategory(beverageType, category string) bool {
	var allowed []string
	switch BeverageType(beverageType) {
	case BeverageTypeAlcoholic:
		allowed = alcoholicCategories
	case BeverageTypeNonAlcoholic:
		allowed = nonAlcoholicCategories
	default:
		return false
	}
	for _, c := range allowed {
		if c == category {
			return true
		}
	}
	return false
}

// Beverage represents a sellable stock item scoped to exactly one event.
// InitialStock only grows (creation and restock); CurrentStock is decremented
// by sales and incremented by restock, and never goes below zero.
type Beverage struct {
	ID             int64      `json:"id" db:"id"`
	EventID        int64      `json:"event_id" db:"event_id" binding:"required"`
	EventManagerID int64      `json:"event_manager_id" db:"event_manager_id"`
	Name           string     `json:"name" db:"name" binding:"required"`
	Category       string     `json:"category" db:"category" binding:"required"`
	Type           string     `json:"type" db:"beverage_type" binding:"required"`
	ImageURL       *string    `json:"image_url,omitempty" db:"image_url"`
	InitialStock   int        `json:"initial_stock" db:"initial_stock"`
	CurrentStock   int        `json:"current_stock" db:"current_stock"`
	Price          float64    `json:"price" db:"price" binding:"required,gt=0"`
	AuditedStock   *int       `json:"audited_stock,omitempty" db:"audited_stock"`
	LastAuditedAt  *time.Time `json:"last_audited_at,omitempty" db:"last_audited_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}
