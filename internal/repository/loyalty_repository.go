package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"loyalty-points/internal/domain"
)

var (
	ErrLoyaltyAccountNotFound      = errors.New("loyalty account not found")
	ErrLoyaltyAccountAlreadyExists = errors.New("customer already has a loyalty account")
)

// LoyaltyAccountRepository is the points ledger
type LoyaltyAccountRepository interface {
	Create(ctx context.Context, account *domain.LoyaltyAccount) error
	FindByCustomerID(ctx context.Context, customerID int64) (*domain.LoyaltyAccount, error)
	// FindByCustomerIDForUpdate locks the account row until the surrounding
	// transaction ends. Outside a transaction the lock is released immediately.
	FindByCustomerIDForUpdate(ctx context.Context, customerID int64) (*domain.LoyaltyAccount, error)
	// Credit adds points to the balance and returns the updated account.
	Credit(ctx context.Context, accountID int64, points int64) (*domain.LoyaltyAccount, error)
	AppendTransaction(ctx context.Context, record *domain.PointTransaction) error
	ListTransactions(ctx context.Context, accountID int64) ([]*domain.PointTransaction, error)
}

type loyaltyAccountRepository struct {
	db DBTX
}

// NewLoyaltyAccountRepository creates a new instance of LoyaltyAccountRepository
func NewLoyaltyAccountRepository(db DBTX) LoyaltyAccountRepository {
	return &loyaltyAccountRepository{db: db}
}

func (r *loyaltyAccountRepository) Create(ctx context.Context, account *domain.LoyaltyAccount) error {
	query := `
		INSERT INTO loyalty_accounts (customer_id, points)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query, account.CustomerID, account.Points).Scan(
		&account.ID,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrLoyaltyAccountAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return ErrCustomerNotFound
		}
		return fmt.Errorf("failed to create loyalty account: %w", err)
	}

	return nil
}

func (r *loyaltyAccountRepository) FindByCustomerID(ctx context.Context, customerID int64) (*domain.LoyaltyAccount, error) {
	return r.findByCustomerID(ctx, customerID, "")
}

func (r *loyaltyAccountRepository) FindByCustomerIDForUpdate(ctx context.Context, customerID int64) (*domain.LoyaltyAccount, error) {
	return r.findByCustomerID(ctx, customerID, "FOR UPDATE")
}

func (r *loyaltyAccountRepository) findByCustomerID(ctx context.Context, customerID int64, lock string) (*domain.LoyaltyAccount, error) {
	query := `
		SELECT id, customer_id, points, created_at, updated_at
		FROM loyalty_accounts
		WHERE customer_id = $1
	` + lock

	account := &domain.LoyaltyAccount{}
	err := r.db.QueryRowContext(ctx, query, customerID).Scan(
		&account.ID,
		&account.CustomerID,
		&account.Points,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrLoyaltyAccountNotFound
		}
		return nil, fmt.Errorf("failed to find loyalty account: %w", err)
	}

	return account, nil
}

func (r *loyaltyAccountRepository) Credit(ctx context.Context, accountID int64, points int64) (*domain.LoyaltyAccount, error) {
	query := `
		UPDATE loyalty_accounts
		SET points = points + $2
		WHERE id = $1
		RETURNING id, customer_id, points, created_at, updated_at
	`

	account := &domain.LoyaltyAccount{}
	err := r.db.QueryRowContext(ctx, query, accountID, points).Scan(
		&account.ID,
		&account.CustomerID,
		&account.Points,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrLoyaltyAccountNotFound
		}
		return nil, fmt.Errorf("failed to credit loyalty account: %w", err)
	}

	return account, nil
}

func (r *loyaltyAccountRepository) AppendTransaction(ctx context.Context, record *domain.PointTransaction) error {
	query := `
		INSERT INTO point_transactions (loyalty_account_id, product_id, points_earned, transaction_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		record.LoyaltyAccountID,
		record.ProductID,
		record.PointsEarned,
		record.TransactionDate.UTC(),
	).Scan(&record.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrLoyaltyAccountNotFound
		}
		return fmt.Errorf("failed to append point transaction: %w", err)
	}

	return nil
}

func (r *loyaltyAccountRepository) ListTransactions(ctx context.Context, accountID int64) ([]*domain.PointTransaction, error) {
	query := `
		SELECT id, loyalty_account_id, product_id, points_earned, transaction_date
		FROM point_transactions
		WHERE loyalty_account_id = $1
		ORDER BY transaction_date DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list point transactions: %w", err)
	}
	defer rows.Close()

	records := []*domain.PointTransaction{}
	for rows.Next() {
		record := &domain.PointTransaction{}
		if err := rows.Scan(
			&record.ID,
			&record.LoyaltyAccountID,
			&record.ProductID,
			&record.PointsEarned,
			&record.TransactionDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan point transaction: %w", err)
		}
		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating point transactions: %w", err)
	}

	return records, nil
}
