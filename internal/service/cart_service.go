package service

import (
	"context"
	"errors"
	"fmt"

	"loyalty-points/internal/domain"
	"loyalty-points/internal/repository"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity = fmt.Errorf("quantity must be between 1 and %d", domain.MaxQuantity)
)

// CartLine is a cart item joined with its catalog entry. Product is nil when
// the product no longer exists.
type CartLine struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Product   *domain.Product `json:"product,omitempty"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// CartView is the customer-facing cart
type CartView struct {
	CustomerID int64           `json:"customer_id"`
	Items      []CartLine      `json:"items"`
	Total      decimal.Decimal `json:"total"`
}

// CartService manages the customer's shopping cart
type CartService interface {
	GetCart(ctx context.Context, customerID int64) (*CartView, error)
	AddItem(ctx context.Context, customerID, productID int64, quantity int) error
	// UpdateItemQuantity sets the quantity of a line; zero removes it.
	UpdateItemQuantity(ctx context.Context, customerID, productID int64, quantity int) error
	RemoveItem(ctx context.Context, customerID, productID int64) error
	Clear(ctx context.Context, customerID int64) error
}

type cartService struct {
	cartRepo    repository.ShoppingCartRepository
	productRepo repository.ProductRepository
}

// NewCartService creates a new instance of CartService
func NewCartService(cartRepo repository.ShoppingCartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

func (s *cartService) GetCart(ctx context.Context, customerID int64) (*CartView, error) {
	view := &CartView{CustomerID: customerID, Items: []CartLine{}, Total: decimal.Zero}

	cart, err := s.cartRepo.FindByCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return view, nil
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	for _, item := range cart.Items {
		line := CartLine{ProductID: item.ProductID, Quantity: item.Quantity, LineTotal: decimal.Zero}

		product, err := s.productRepo.FindByID(ctx, item.ProductID)
		switch {
		case err == nil:
			line.Product = product
			line.LineTotal = product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		case !errors.Is(err, repository.ErrProductNotFound):
			return nil, fmt.Errorf("failed to load cart product: %w", err)
		}

		view.Total = view.Total.Add(line.LineTotal)
		view.Items = append(view.Items, line)
	}

	return view, nil
}

func (s *cartService) AddItem(ctx context.Context, customerID, productID int64, quantity int) error {
	if quantity <= 0 || quantity > domain.MaxQuantity {
		return ErrInvalidQuantity
	}

	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return err
	}

	cart, err := s.cartRepo.GetOrCreate(ctx, customerID)
	if err != nil {
		return err
	}

	for _, item := range cart.Items {
		if item.ProductID == productID && item.Quantity > domain.MaxQuantity-quantity {
			return ErrInvalidQuantity
		}
	}

	err = s.cartRepo.AddItem(ctx, cart.ID, productID, quantity)
	if errors.Is(err, repository.ErrQuantityOutOfRange) {
		return ErrInvalidQuantity
	}
	return err
}

func (s *cartService) UpdateItemQuantity(ctx context.Context, customerID, productID int64, quantity int) error {
	if quantity < 0 || quantity > domain.MaxQuantity {
		return ErrInvalidQuantity
	}

	cart, err := s.cartRepo.FindByCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return repository.ErrCartItemNotFound
		}
		return err
	}

	if quantity == 0 {
		return s.cartRepo.RemoveItem(ctx, cart.ID, productID)
	}
	return s.cartRepo.UpdateItemQuantity(ctx, cart.ID, productID, quantity)
}

func (s *cartService) RemoveItem(ctx context.Context, customerID, productID int64) error {
	return s.UpdateItemQuantity(ctx, customerID, productID, 0)
}

func (s *cartService) Clear(ctx context.Context, customerID int64) error {
	cart, err := s.cartRepo.FindByCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return nil
		}
		return err
	}
	return s.cartRepo.Clear(ctx, cart.ID)
}
