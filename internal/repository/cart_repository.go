package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"loyalty-points/internal/domain"
)

var (
	ErrCartNotFound     = errors.New("shopping cart not found")
	ErrCartItemNotFound = errors.New("cart item not found")

	// ErrQuantityOutOfRange is returned when a line would leave the allowed quantity range
	ErrQuantityOutOfRange = errors.New("cart item quantity out of range")
)

// ShoppingCartRepository defines the interface for cart data access
type ShoppingCartRepository interface {
	// FindByCustomerID reads the customer's cart with its lines in insertion order.
	FindByCustomerID(ctx context.Context, customerID int64) (*domain.ShoppingCart, error)
	GetOrCreate(ctx context.Context, customerID int64) (*domain.ShoppingCart, error)
	// AddItem inserts a line or increments the quantity of an existing one.
	AddItem(ctx context.Context, cartID, productID int64, quantity int) error
	UpdateItemQuantity(ctx context.Context, cartID, productID int64, quantity int) error
	RemoveItem(ctx context.Context, cartID, productID int64) error
	RemoveItems(ctx context.Context, cartID int64, productIDs []int64) error
	Clear(ctx context.Context, cartID int64) error
}

type shoppingCartRepository struct {
	db DBTX
}

// NewShoppingCartRepository creates a new instance of ShoppingCartRepository
func NewShoppingCartRepository(db DBTX) ShoppingCartRepository {
	return &shoppingCartRepository{db: db}
}

func (r *shoppingCartRepository) FindByCustomerID(ctx context.Context, customerID int64) (*domain.ShoppingCart, error) {
	query := `
		SELECT id, customer_id, created_at
		FROM shopping_carts
		WHERE customer_id = $1
	`

	cart := &domain.ShoppingCart{}
	err := r.db.QueryRowContext(ctx, query, customerID).Scan(&cart.ID, &cart.CustomerID, &cart.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to find shopping cart: %w", err)
	}

	items, err := r.listItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Items = items

	return cart, nil
}

func (r *shoppingCartRepository) GetOrCreate(ctx context.Context, customerID int64) (*domain.ShoppingCart, error) {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO shopping_carts (customer_id) VALUES ($1) ON CONFLICT (customer_id) DO NOTHING`,
		customerID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to create shopping cart: %w", err)
	}

	return r.FindByCustomerID(ctx, customerID)
}

func (r *shoppingCartRepository) AddItem(ctx context.Context, cartID, productID int64, quantity int) error {
	query := `
		INSERT INTO shopping_cart_items (cart_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = shopping_cart_items.quantity + EXCLUDED.quantity
	`

	if _, err := r.db.ExecContext(ctx, query, cartID, productID, quantity); err != nil {
		if isForeignKeyViolation(err) {
			return ErrCartNotFound
		}
		if isOutOfRange(err) {
			return ErrQuantityOutOfRange
		}
		return fmt.Errorf("failed to add cart item: %w", err)
	}

	return nil
}

func (r *shoppingCartRepository) UpdateItemQuantity(ctx context.Context, cartID, productID int64, quantity int) error {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE shopping_cart_items SET quantity = $3 WHERE cart_id = $1 AND product_id = $2`,
		cartID, productID, quantity,
	)
	if err != nil {
		if isOutOfRange(err) {
			return ErrQuantityOutOfRange
		}
		return fmt.Errorf("failed to update cart item: %w", err)
	}

	return checkRowsAffected(result, ErrCartItemNotFound)
}

func (r *shoppingCartRepository) RemoveItem(ctx context.Context, cartID, productID int64) error {
	result, err := r.db.ExecContext(
		ctx,
		`DELETE FROM shopping_cart_items WHERE cart_id = $1 AND product_id = $2`,
		cartID, productID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}

	return checkRowsAffected(result, ErrCartItemNotFound)
}

// RemoveItems deletes the given lines; product ids not in the cart are ignored.
func (r *shoppingCartRepository) RemoveItems(ctx context.Context, cartID int64, productIDs []int64) error {
	if len(productIDs) == 0 {
		return nil
	}

	query := `DELETE FROM shopping_cart_items WHERE cart_id = $1 AND product_id = ANY($2)`

	if _, err := r.db.ExecContext(ctx, query, cartID, productIDs); err != nil {
		return fmt.Errorf("failed to remove cart items: %w", err)
	}

	return nil
}

func (r *shoppingCartRepository) Clear(ctx context.Context, cartID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM shopping_cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("failed to clear shopping cart: %w", err)
	}
	return nil
}

func (r *shoppingCartRepository) listItems(ctx context.Context, cartID int64) ([]domain.CartItem, error) {
	query := `
		SELECT product_id, quantity
		FROM shopping_cart_items
		WHERE cart_id = $1
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	defer rows.Close()

	items := []domain.CartItem{}
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ProductID, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return items, nil
}
