package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"loyalty-points/internal/domain"
	"loyalty-points/internal/repository"

	"go.uber.org/zap"
)

var (
	ErrAccountNotFound = errors.New("loyalty account not found")
	ErrEmptyCart       = errors.New("shopping cart is empty")
)

// PersistenceError reports a storage failure. The unit of work it happened in
// has been rolled back.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func persistenceError(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// Clock returns the current time
type Clock func() time.Time

// CheckoutService settles a customer's cart into loyalty points
type CheckoutService interface {
	Checkout(ctx context.Context, customerID int64) (*domain.SettlementResult, error)
}

type checkoutService struct {
	txManager repository.TxManager
	clock     Clock
	logger    *zap.Logger
}

// NewCheckoutService creates a new instance of CheckoutService
func NewCheckoutService(txManager repository.TxManager, clock Clock, logger *zap.Logger) CheckoutService {
	if clock == nil {
		clock = time.Now
	}
	return &checkoutService{
		txManager: txManager,
		clock:     clock,
		logger:    logger,
	}
}

// lineOutcome classifies a single cart line
type lineOutcome int

const (
	lineSettled lineOutcome = iota
	lineInvalidProduct
	lineMissingCategory
	lineMissingRule
)

// Checkout runs the whole settlement in one transaction. Unresolvable lines
// are reported in the result and stay in the cart; settled lines are removed
// so a later retry cannot credit them twice.
func (s *checkoutService) Checkout(ctx context.Context, customerID int64) (*domain.SettlementResult, error) {
	now := s.clock().UTC()
	today := domain.DateOf(now)

	var result *domain.SettlementResult
	var balance int64

	err := s.txManager.WithinTransaction(ctx, func(repos repository.Repositories) error {
		account, err := repos.Accounts.FindByCustomerIDForUpdate(ctx, customerID)
		if err != nil {
			if errors.Is(err, repository.ErrLoyaltyAccountNotFound) {
				return ErrAccountNotFound
			}
			return persistenceError("load loyalty account", err)
		}

		cart, err := repos.Carts.FindByCustomerID(ctx, customerID)
		if err != nil && !errors.Is(err, repository.ErrCartNotFound) {
			return persistenceError("load shopping cart", err)
		}
		if cart.IsEmpty() {
			return ErrEmptyCart
		}

		result = domain.NewSettlementResult()
		settled := make([]int64, 0, len(cart.Items))
		records := make([]*domain.PointTransaction, 0, len(cart.Items))

		for _, item := range cart.Items {
			outcome, points, err := s.settleLine(ctx, repos, item, today)
			if err != nil {
				return err
			}

			switch outcome {
			case lineInvalidProduct:
				result.InvalidProducts = append(result.InvalidProducts, item.ProductID)
			case lineMissingCategory:
				result.ProductsMissingCategory = append(result.ProductsMissingCategory, item.ProductID)
			case lineMissingRule:
				result.PointEarningRulesMissing = append(result.PointEarningRulesMissing, item.ProductID)
			case lineSettled:
				if result.TotalPointsEarned, err = domain.AddPoints(result.TotalPointsEarned, points); err != nil {
					return err
				}
				settled = append(settled, item.ProductID)
				records = append(records, &domain.PointTransaction{
					LoyaltyAccountID: account.ID,
					ProductID:        item.ProductID,
					PointsEarned:     points,
					TransactionDate:  now,
				})
			}
		}

		balance = account.Points
		if _, err := domain.AddPoints(balance, result.TotalPointsEarned); err != nil {
			return err
		}
		if result.TotalPointsEarned > 0 {
			updated, err := repos.Accounts.Credit(ctx, account.ID, result.TotalPointsEarned)
			if err != nil {
				return persistenceError("credit loyalty account", err)
			}
			balance = updated.Points
		}

		for _, record := range records {
			if err := repos.Accounts.AppendTransaction(ctx, record); err != nil {
				return persistenceError("record point transaction", err)
			}
		}

		result.Success = result.Succeeded()
		if result.Success {
			if err := repos.Carts.Clear(ctx, cart.ID); err != nil {
				return persistenceError("clear shopping cart", err)
			}
		} else if err := repos.Carts.RemoveItems(ctx, cart.ID, settled); err != nil {
			return persistenceError("remove settled cart items", err)
		}

		return nil
	})

	if err != nil {
		var pErr *PersistenceError
		if errors.As(err, &pErr) {
			s.logger.Error("Checkout rolled back",
				zap.Int64("customer_id", customerID),
				zap.String("op", pErr.Op),
				zap.Error(pErr.Err),
			)
			return nil, err
		}
		if errors.Is(err, ErrAccountNotFound) || errors.Is(err, ErrEmptyCart) {
			s.logger.Debug("Checkout refused", zap.Int64("customer_id", customerID), zap.Error(err))
			return nil, err
		}
		if errors.Is(err, domain.ErrPointsOverflow) {
			s.logger.Warn("Checkout refused", zap.Int64("customer_id", customerID), zap.Error(err))
			return nil, err
		}
		// begin/commit failures surface from the transaction manager itself
		s.logger.Error("Checkout transaction failed", zap.Int64("customer_id", customerID), zap.Error(err))
		return nil, persistenceError("checkout transaction", err)
	}

	s.logger.Info("Checkout settled",
		zap.Int64("customer_id", customerID),
		zap.Int64("points", result.TotalPointsEarned),
		zap.Int64("balance", balance),
		zap.Bool("success", result.Success),
		zap.Int("invalid_products", len(result.InvalidProducts)),
		zap.Int("products_missing_category", len(result.ProductsMissingCategory)),
		zap.Int("point_earning_rules_missing", len(result.PointEarningRulesMissing)),
	)

	return result, nil
}

// settleLine resolves product, category and rule for one line. Only storage
// failures and point overflows are returned as errors; missing references
// are outcomes.
func (s *checkoutService) settleLine(ctx context.Context, repos repository.Repositories, item domain.CartItem, today time.Time) (lineOutcome, int64, error) {
	product, err := repos.Products.FindByID(ctx, item.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return lineInvalidProduct, 0, nil
		}
		return 0, 0, persistenceError("load product", err)
	}

	if !product.HasCategory() {
		return lineMissingCategory, 0, nil
	}

	category, err := repos.Categories.FindByID(ctx, *product.CategoryID)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return lineMissingCategory, 0, nil
		}
		return 0, 0, persistenceError("load category", err)
	}

	rule, err := repos.Rules.FindActiveRule(ctx, category.ID, today)
	if err != nil {
		if errors.Is(err, repository.ErrRuleNotFound) {
			return lineMissingRule, 0, nil
		}
		return 0, 0, persistenceError("load point earning rule", err)
	}

	points, err := domain.PointsFor(product.Price, rule.PointsPerDollar, item.Quantity)
	if err != nil {
		return 0, 0, fmt.Errorf("product %d: %w", item.ProductID, err)
	}
	return lineSettled, points, nil
}
