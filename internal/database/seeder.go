package database

import (
	"context"
	"fmt"
	"time"

	"loyalty-points/internal/domain"
	"loyalty-points/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const seedStartingPoints = 100

// Seed loads the demo catalog, customers and earning rules. It does nothing
// when categories already exist, so restarts never duplicate data.
func Seed(ctx context.Context, txManager repository.TxManager, now time.Time, logger *zap.Logger) (bool, error) {
	seeded := false

	err := txManager.WithinTransaction(ctx, func(repos repository.Repositories) error {
		count, err := repos.Categories.Count(ctx)
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		categories := map[string]*domain.Category{}
		for _, name := range []string{"Electronics", "Books", "Default"} {
			category := &domain.Category{Name: name}
			if err := repos.Categories.Create(ctx, category); err != nil {
				return fmt.Errorf("seed category %s: %w", name, err)
			}
			categories[name] = category
		}

		products := []struct {
			name     string
			price    string
			category string
			imageURL string
		}{
			{"Laptop", "1200.00", "Electronics", "https://upload.wikimedia.org/wikipedia/commons/e/e9/Apple-desk-laptop-macbook-pro_%2823699397893%29.jpg"},
			{"Science Fiction Book", "15.99", "Books", "https://upload.wikimedia.org/wikipedia/commons/thumb/e/eb/Eric_Frank_Russell_-_Die_Gro%C3%9Fe_Explosion_-_Cover.jpg/770px-Eric_Frank_Russell_-_Die_Gro%C3%9Fe_Explosion_-_Cover.jpg"},
		}
		for _, p := range products {
			categoryID := categories[p.category].ID
			imageURL := p.imageURL
			product := &domain.Product{
				Name:       p.name,
				Price:      decimal.RequireFromString(p.price),
				CategoryID: &categoryID,
				ImageURL:   &imageURL,
			}
			if err := repos.Products.Create(ctx, product); err != nil {
				return fmt.Errorf("seed product %s: %w", p.name, err)
			}
		}

		customers := []*domain.Customer{
			{Name: "John Doe", Email: "john.doe@example.com"},
			{Name: "Jane Smith", Email: "jane.smith@example.com"},
		}
		for _, customer := range customers {
			if err := repos.Customers.Create(ctx, customer); err != nil {
				return fmt.Errorf("seed customer %s: %w", customer.Email, err)
			}
			account := &domain.LoyaltyAccount{CustomerID: customer.ID, Points: seedStartingPoints}
			if err := repos.Accounts.Create(ctx, account); err != nil {
				return fmt.Errorf("seed loyalty account for %s: %w", customer.Email, err)
			}
			if _, err := repos.Carts.GetOrCreate(ctx, customer.ID); err != nil {
				return fmt.Errorf("seed cart for %s: %w", customer.Email, err)
			}
		}

		today := domain.DateOf(now)
		nextYear := today.AddDate(1, 0, 0)
		farFuture := time.Date(2099, 12, 31, 0, 0, 0, 0, time.UTC)
		rules := []*domain.PointEarningRule{
			{CategoryID: categories["Default"].ID, PointsPerDollar: 1, StartDate: time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC), EndDate: &farFuture},
			{CategoryID: categories["Electronics"].ID, PointsPerDollar: 2, StartDate: today, EndDate: &nextYear},
			{CategoryID: categories["Books"].ID, PointsPerDollar: 1, StartDate: today, EndDate: &nextYear},
		}
		for _, rule := range rules {
			if err := repos.Rules.Create(ctx, rule); err != nil {
				return fmt.Errorf("seed point earning rule: %w", err)
			}
		}

		seeded = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to seed database: %w", err)
	}

	if seeded {
		logger.Info("Database seeded with demo data")
	} else {
		logger.Info("Database already contains data, skipping seed")
	}
	return seeded, nil
}
