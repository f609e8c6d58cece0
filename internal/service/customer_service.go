package service

import (
	"context"
	"fmt"

	"loyalty-points/internal/domain"
	"loyalty-points/internal/repository"

	"go.uber.org/zap"
)

// CustomerService manages customers and opens their loyalty accounts
type CustomerService interface {
	// Register creates the customer and an empty loyalty account atomically.
	Register(ctx context.Context, name, email string) (*domain.Customer, error)
	Get(ctx context.Context, id int64) (*domain.Customer, error)
	List(ctx context.Context) ([]*domain.Customer, error)
	Update(ctx context.Context, id int64, name, email string) (*domain.Customer, error)
	Delete(ctx context.Context, id int64) error
}

type customerService struct {
	txManager    repository.TxManager
	customerRepo repository.CustomerRepository
	logger       *zap.Logger
}

// NewCustomerService creates a new instance of CustomerService
func NewCustomerService(txManager repository.TxManager, customerRepo repository.CustomerRepository, logger *zap.Logger) CustomerService {
	return &customerService{
		txManager:    txManager,
		customerRepo: customerRepo,
		logger:       logger,
	}
}

func (s *customerService) Register(ctx context.Context, name, email string) (*domain.Customer, error) {
	customer := &domain.Customer{Name: name, Email: email}

	err := s.txManager.WithinTransaction(ctx, func(repos repository.Repositories) error {
		if err := repos.Customers.Create(ctx, customer); err != nil {
			return err
		}
		return repos.Accounts.Create(ctx, &domain.LoyaltyAccount{CustomerID: customer.ID})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Customer registered", zap.Int64("customer_id", customer.ID))
	return customer, nil
}

func (s *customerService) Get(ctx context.Context, id int64) (*domain.Customer, error) {
	return s.customerRepo.FindByID(ctx, id)
}

func (s *customerService) List(ctx context.Context) ([]*domain.Customer, error) {
	customers, err := s.customerRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, nil
}

func (s *customerService) Update(ctx context.Context, id int64, name, email string) (*domain.Customer, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	customer.Name = name
	customer.Email = email
	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, err
	}

	return customer, nil
}

func (s *customerService) Delete(ctx context.Context, id int64) error {
	if err := s.customerRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Customer deleted", zap.Int64("customer_id", id))
	return nil
}
