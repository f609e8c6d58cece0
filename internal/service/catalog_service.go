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
	ErrInvalidPrice = errors.New("price must not be negative")
)

// ProductInput carries the writable product attributes
type ProductInput struct {
	Name       string
	Price      decimal.Decimal
	CategoryID *int64
	ImageURL   *string
}

// ProductFilter selects a page of the catalog
type ProductFilter struct {
	CategoryID *int64
	Query      string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  repository.SortOrder
}

// CatalogService manages products and categories
type CatalogService interface {
	CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id int64, input ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]*domain.Product, int, error)

	CreateCategory(ctx context.Context, name string) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	GetCategory(ctx context.Context, id int64) (*domain.Category, error)
}

type catalogService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository) CatalogService {
	return &catalogService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
	}
}

func (s *catalogService) validateProduct(ctx context.Context, input ProductInput) error {
	if input.Price.IsNegative() {
		return ErrInvalidPrice
	}
	if input.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *input.CategoryID); err != nil {
			return err
		}
	}
	return nil
}

func (s *catalogService) CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error) {
	if err := s.validateProduct(ctx, input); err != nil {
		return nil, err
	}

	product := &domain.Product{
		Name:       input.Name,
		Price:      input.Price,
		CategoryID: input.CategoryID,
		ImageURL:   input.ImageURL,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id int64, input ProductInput) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.validateProduct(ctx, input); err != nil {
		return nil, err
	}

	product.Name = input.Name
	product.Price = input.Price
	product.CategoryID = input.CategoryID
	product.ImageURL = input.ImageURL

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, id int64) error {
	return s.productRepo.Delete(ctx, id)
}

func (s *catalogService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

func (s *catalogService) ListProducts(ctx context.Context, filter ProductFilter) ([]*domain.Product, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	if filter.Query != "" {
		products, total, err := s.productRepo.Search(ctx, filter.Query, filter.Page, filter.PageSize)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to search products: %w", err)
		}
		return products, total, nil
	}

	products, total, err := s.productRepo.List(ctx, filter.CategoryID, filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

func (s *catalogService) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	category := &domain.Category{Name: name}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *catalogService) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	return s.categoryRepo.FindByID(ctx, id)
}
