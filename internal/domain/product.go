package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product in the catalog
type Product struct {
	ID         int64           `json:"id" db:"id"`
	Name       string          `json:"name" db:"name"`
	Price      decimal.Decimal `json:"price" db:"price"`
	CategoryID *int64          `json:"category_id" db:"category_id"`
	ImageURL   *string         `json:"image_url,omitempty" db:"image_url"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// HasCategory reports whether the product references a category at all.
// The referenced category may still be missing from the directory.
func (p *Product) HasCategory() bool {
	return p.CategoryID != nil
}

// Category represents a product category
type Category struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
