package service

import (
	"context"
	"errors"
	"fmt"

	"loyalty-points/internal/domain"
	"loyalty-points/internal/repository"
)

// LoyaltyService exposes a customer's balance and earning history
type LoyaltyService interface {
	GetPoints(ctx context.Context, customerID int64) (*domain.LoyaltyAccount, error)
	ListTransactions(ctx context.Context, customerID int64) ([]*domain.PointTransaction, error)
}

type loyaltyService struct {
	accountRepo repository.LoyaltyAccountRepository
}

// NewLoyaltyService creates a new instance of LoyaltyService
func NewLoyaltyService(accountRepo repository.LoyaltyAccountRepository) LoyaltyService {
	return &loyaltyService{accountRepo: accountRepo}
}

func (s *loyaltyService) GetPoints(ctx context.Context, customerID int64) (*domain.LoyaltyAccount, error) {
	account, err := s.accountRepo.FindByCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, repository.ErrLoyaltyAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get loyalty account: %w", err)
	}
	return account, nil
}

func (s *loyaltyService) ListTransactions(ctx context.Context, customerID int64) ([]*domain.PointTransaction, error) {
	account, err := s.GetPoints(ctx, customerID)
	if err != nil {
		return nil, err
	}

	records, err := s.accountRepo.ListTransactions(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list point transactions: %w", err)
	}
	return records, nil
}
