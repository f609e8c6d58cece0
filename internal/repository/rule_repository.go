package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"loyalty-points/internal/domain"
)

var (
	ErrRuleNotFound = errors.New("point earning rule not found")
)

const ruleColumns = `id, category_id, points_per_dollar, start_date, end_date, created_at`

// PointEarningRuleRepository is the rule catalog
type PointEarningRuleRepository interface {
	Create(ctx context.Context, rule *domain.PointEarningRule) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*domain.PointEarningRule, error)
	ListByCategory(ctx context.Context, categoryID int64) ([]*domain.PointEarningRule, error)
	// FindActiveRule returns the rule that applies to the category on the
	// calendar date of on, or ErrRuleNotFound.
	FindActiveRule(ctx context.Context, categoryID int64, on time.Time) (*domain.PointEarningRule, error)
}

type pointEarningRuleRepository struct {
	db DBTX
}

// NewPointEarningRuleRepository creates a new instance of PointEarningRuleRepository
func NewPointEarningRuleRepository(db DBTX) PointEarningRuleRepository {
	return &pointEarningRuleRepository{db: db}
}

func scanRule(row rowScanner) (*domain.PointEarningRule, error) {
	rule := &domain.PointEarningRule{}
	err := row.Scan(
		&rule.ID,
		&rule.CategoryID,
		&rule.PointsPerDollar,
		&rule.StartDate,
		&rule.EndDate,
		&rule.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	rule.StartDate = domain.DateOf(rule.StartDate)
	if rule.EndDate != nil {
		end := domain.DateOf(*rule.EndDate)
		rule.EndDate = &end
	}
	return rule, nil
}

func (r *pointEarningRuleRepository) Create(ctx context.Context, rule *domain.PointEarningRule) error {
	query := `
		INSERT INTO point_earning_rules (category_id, points_per_dollar, start_date, end_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	var endDate *time.Time
	if rule.EndDate != nil {
		end := domain.DateOf(*rule.EndDate)
		endDate = &end
	}

	err := r.db.QueryRowContext(
		ctx,
		query,
		rule.CategoryID,
		rule.PointsPerDollar,
		domain.DateOf(rule.StartDate),
		endDate,
	).Scan(&rule.ID, &rule.CreatedAt)

	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("failed to create point earning rule: %w", err)
	}

	return nil
}

func (r *pointEarningRuleRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM point_earning_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete point earning rule: %w", err)
	}

	return checkRowsAffected(result, ErrRuleNotFound)
}

func (r *pointEarningRuleRepository) FindByID(ctx context.Context, id int64) (*domain.PointEarningRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM point_earning_rules WHERE id = $1`

	rule, err := scanRule(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRuleNotFound
		}
		return nil, fmt.Errorf("failed to find point earning rule by ID: %w", err)
	}

	return rule, nil
}

func (r *pointEarningRuleRepository) ListByCategory(ctx context.Context, categoryID int64) ([]*domain.PointEarningRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM point_earning_rules
		WHERE category_id = $1
		ORDER BY start_date ASC, id ASC
	`

	rules, err := r.queryRules(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list point earning rules: %w", err)
	}

	return rules, nil
}

// FindActiveRule narrows the candidates in SQL and leaves the choice between
// overlapping rules to domain.ResolveActiveRule.
func (r *pointEarningRuleRepository) FindActiveRule(ctx context.Context, categoryID int64, on time.Time) (*domain.PointEarningRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM point_earning_rules
		WHERE category_id = $1
		  AND start_date <= $2
		  AND (end_date IS NULL OR end_date >= $2)
	`

	candidates, err := r.queryRules(ctx, query, categoryID, domain.DateOf(on))
	if err != nil {
		return nil, fmt.Errorf("failed to find active point earning rule: %w", err)
	}

	rules := make([]domain.PointEarningRule, 0, len(candidates))
	for _, candidate := range candidates {
		rules = append(rules, *candidate)
	}

	rule, ok := domain.ResolveActiveRule(rules, on)
	if !ok {
		return nil, ErrRuleNotFound
	}

	return rule, nil
}

func (r *pointEarningRuleRepository) queryRules(ctx context.Context, query string, args ...interface{}) ([]*domain.PointEarningRule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := []*domain.PointEarningRule{}
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan point earning rule: %w", err)
		}
		rules = append(rules, rule)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating point earning rules: %w", err)
	}

	return rules, nil
}
