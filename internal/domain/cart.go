package domain

import "time"

// ShoppingCart is a customer's cart as read at a point in time
type ShoppingCart struct {
	ID         int64      `json:"id" db:"id"`
	CustomerID int64      `json:"customer_id" db:"customer_id"`
	Items      []CartItem `json:"items"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// CartItem is a single cart line. A product appears at most once per cart.
type CartItem struct {
	ProductID int64 `json:"product_id" db:"product_id"`
	Quantity  int   `json:"quantity" db:"quantity"`
}

// IsEmpty reports whether there is nothing to check out.
func (c *ShoppingCart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}
