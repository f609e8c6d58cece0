package domain

import (
	"errors"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// LoyaltyAccount holds the points balance of exactly one customer
type LoyaltyAccount struct {
	ID         int64     `json:"id" db:"id"`
	CustomerID int64     `json:"customer_id" db:"customer_id"`
	Points     int64     `json:"points" db:"points"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// PointTransaction records the points earned for one settled cart line.
// Records are append-only.
type PointTransaction struct {
	ID               int64     `json:"id" db:"id"`
	LoyaltyAccountID int64     `json:"loyalty_account_id" db:"loyalty_account_id"`
	ProductID        int64     `json:"product_id" db:"product_id"`
	PointsEarned     int64     `json:"points_earned" db:"points_earned"`
	TransactionDate  time.Time `json:"transaction_date" db:"transaction_date"`
}

// PointEarningRule is a category-scoped, date-bounded points multiplier
type PointEarningRule struct {
	ID              int64      `json:"id" db:"id"`
	CategoryID      int64      `json:"category_id" db:"category_id"`
	PointsPerDollar int        `json:"points_per_dollar" db:"points_per_dollar"`
	StartDate       time.Time  `json:"start_date" db:"start_date"`
	EndDate         *time.Time `json:"end_date,omitempty" db:"end_date"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsActive reports whether the rule applies on the calendar date of on.
// Both bounds are inclusive; a nil EndDate never expires.
func (r PointEarningRule) IsActive(on time.Time) bool {
	day := DateOf(on)
	if DateOf(r.StartDate).After(day) {
		return false
	}
	return r.EndDate == nil || !day.After(DateOf(*r.EndDate))
}

// ResolveActiveRule picks the rule that applies on the given date.
//
// When several rules overlap, the most specific one wins: a bounded rule
// beats an open-ended one, then the narrowest window, then the latest start
// date, then the highest id. The result does not depend on input order.
func ResolveActiveRule(rules []PointEarningRule, on time.Time) (*PointEarningRule, bool) {
	var best *PointEarningRule
	for i := range rules {
		candidate := &rules[i]
		if !candidate.IsActive(on) {
			continue
		}
		if best == nil || candidate.moreSpecificThan(best) {
			best = candidate
		}
	}

	if best == nil {
		return nil, false
	}

	chosen := *best
	return &chosen, true
}

func (r *PointEarningRule) moreSpecificThan(other *PointEarningRule) bool {
	if (r.EndDate == nil) != (other.EndDate == nil) {
		return r.EndDate != nil
	}

	if r.EndDate != nil {
		if rw, ow := r.window(), other.window(); rw != ow {
			return rw < ow
		}
	}

	if mine, theirs := DateOf(r.StartDate), DateOf(other.StartDate); !mine.Equal(theirs) {
		return mine.After(theirs)
	}

	return r.ID > other.ID
}

func (r *PointEarningRule) window() time.Duration {
	return DateOf(*r.EndDate).Sub(DateOf(r.StartDate))
}

// Upper bounds on the inputs of the points formula. With prices capped by
// the DECIMAL(10,2) column, a single line stays far below math.MaxInt64.
const (
	MaxPointsPerDollar = 1000
	MaxQuantity        = 10000
)

// ErrPointsOverflow is returned when earned points do not fit the ledger
var ErrPointsOverflow = errors.New("points earned exceed the ledger range")

var maxPoints = decimal.NewFromInt(math.MaxInt64)

// PointsFor returns floor(price * pointsPerDollar * quantity).
// Non-positive inputs earn nothing. The product is computed exactly and
// rejected with ErrPointsOverflow when it does not fit in an int64.
func PointsFor(price decimal.Decimal, pointsPerDollar int, quantity int) (int64, error) {
	if price.IsNegative() || pointsPerDollar <= 0 || quantity <= 0 {
		return 0, nil
	}

	exact := price.
		Mul(decimal.NewFromInt(int64(pointsPerDollar))).
		Mul(decimal.NewFromInt(int64(quantity))).
		Floor()
	if exact.GreaterThan(maxPoints) {
		return 0, ErrPointsOverflow
	}

	return exact.IntPart(), nil
}

// AddPoints adds two non-negative point amounts, failing instead of wrapping.
func AddPoints(total, points int64) (int64, error) {
	if total < 0 || points < 0 || points > math.MaxInt64-total {
		return 0, ErrPointsOverflow
	}
	return total + points, nil
}
