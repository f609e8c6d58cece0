package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Repositories groups the repositories bound to one connection or transaction
type Repositories struct {
	Customers  CustomerRepository
	Categories CategoryRepository
	Products   ProductRepository
	Rules      PointEarningRuleRepository
	Carts      ShoppingCartRepository
	Accounts   LoyaltyAccountRepository
}

// NewRepositories binds every repository to db
func NewRepositories(db DBTX) Repositories {
	return Repositories{
		Customers:  NewCustomerRepository(db),
		Categories: NewCategoryRepository(db),
		Products:   NewProductRepository(db),
		Rules:      NewPointEarningRuleRepository(db),
		Carts:      NewShoppingCartRepository(db),
		Accounts:   NewLoyaltyAccountRepository(db),
	}
}

// TxManager runs a unit of work inside a single database transaction
type TxManager interface {
	// WithinTransaction commits when fn returns nil and rolls back when fn
	// returns an error or panics.
	WithinTransaction(ctx context.Context, fn func(repos Repositories) error) error
}

type txManager struct {
	db *sql.DB
}

// NewTxManager creates a TxManager backed by db
func NewTxManager(db *sql.DB) TxManager {
	return &txManager{db: db}
}

func (m *txManager) WithinTransaction(ctx context.Context, fn func(repos Repositories) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(NewRepositories(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("failed to rollback transaction: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true

	return nil
}
