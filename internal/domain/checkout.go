package domain

// SettlementResult summarizes one checkout. It is never persisted.
type SettlementResult struct {
	TotalPointsEarned        int64   `json:"total_points_earned"`
	InvalidProducts          []int64 `json:"invalid_products"`
	ProductsMissingCategory  []int64 `json:"products_missing_category"`
	PointEarningRulesMissing []int64 `json:"point_earning_rules_missing"`
	Success                  bool    `json:"success"`
}

// NewSettlementResult returns a result with empty, non-nil failure lists.
func NewSettlementResult() *SettlementResult {
	return &SettlementResult{
		InvalidProducts:          []int64{},
		ProductsMissingCategory:  []int64{},
		PointEarningRulesMissing: []int64{},
	}
}

// Succeeded reports whether every cart line was settled.
func (r *SettlementResult) Succeeded() bool {
	return len(r.InvalidProducts) == 0 &&
		len(r.ProductsMissingCategory) == 0 &&
		len(r.PointEarningRulesMissing) == 0
}
