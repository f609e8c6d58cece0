package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"loyalty-points/internal/domain"
	"loyalty-points/internal/repository"
)

var (
	ErrInvalidRate       = fmt.Errorf("points per dollar must be between 1 and %d", domain.MaxPointsPerDollar)
	ErrInvalidRuleWindow = errors.New("end date must not be before start date")
)

// RuleInput carries the attributes of a new earning rule
type RuleInput struct {
	CategoryID      int64
	PointsPerDollar int
	StartDate       time.Time
	EndDate         *time.Time
}

// RuleService manages point earning rules
type RuleService interface {
	Create(ctx context.Context, input RuleInput) (*domain.PointEarningRule, error)
	ListByCategory(ctx context.Context, categoryID int64) ([]*domain.PointEarningRule, error)
	Delete(ctx context.Context, id int64) error
	ActiveRule(ctx context.Context, categoryID int64, on time.Time) (*domain.PointEarningRule, error)
}

type ruleService struct {
	ruleRepo     repository.PointEarningRuleRepository
	categoryRepo repository.CategoryRepository
}

// NewRuleService creates a new instance of RuleService
func NewRuleService(ruleRepo repository.PointEarningRuleRepository, categoryRepo repository.CategoryRepository) RuleService {
	return &ruleService{
		ruleRepo:     ruleRepo,
		categoryRepo: categoryRepo,
	}
}

func (s *ruleService) Create(ctx context.Context, input RuleInput) (*domain.PointEarningRule, error) {
	if input.PointsPerDollar <= 0 || input.PointsPerDollar > domain.MaxPointsPerDollar {
		return nil, ErrInvalidRate
	}

	start := domain.DateOf(input.StartDate)
	var end *time.Time
	if input.EndDate != nil {
		d := domain.DateOf(*input.EndDate)
		if d.Before(start) {
			return nil, ErrInvalidRuleWindow
		}
		end = &d
	}

	if _, err := s.categoryRepo.FindByID(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	rule := &domain.PointEarningRule{
		CategoryID:      input.CategoryID,
		PointsPerDollar: input.PointsPerDollar,
		StartDate:       start,
		EndDate:         end,
	}
	if err := s.ruleRepo.Create(ctx, rule); err != nil {
		return nil, err
	}

	return rule, nil
}

func (s *ruleService) ListByCategory(ctx context.Context, categoryID int64) ([]*domain.PointEarningRule, error) {
	if _, err := s.categoryRepo.FindByID(ctx, categoryID); err != nil {
		return nil, err
	}

	rules, err := s.ruleRepo.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	return rules, nil
}

func (s *ruleService) Delete(ctx context.Context, id int64) error {
	return s.ruleRepo.Delete(ctx, id)
}

func (s *ruleService) ActiveRule(ctx context.Context, categoryID int64, on time.Time) (*domain.PointEarningRule, error) {
	return s.ruleRepo.FindActiveRule(ctx, categoryID, on)
}
