// Package models defines the data structures for the loan optimizer engine.
package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StrategyKind identifies a repayment strategy. The set is closed; dispatch
// is by tagged variant, not by interface hierarchy.
type StrategyKind string

const (
	StrategySmartHybrid  StrategyKind = "smart_hybrid"
	StrategyAvalanche    StrategyKind = "avalanche"
	StrategySnowball     StrategyKind = "snowball"
	StrategyProportional StrategyKind = "proportional"

	// StrategyBaseline applies minimum payments only. Used internally for
	// the comparison reference; not part of the canonical set.
	StrategyBaseline StrategyKind = "baseline"
)

// CanonicalStrategyOrder is the tie-break order for recommendations.
func CanonicalStrategyOrder() []StrategyKind {
	return []StrategyKind{
		StrategySmartHybrid,
		StrategyAvalanche,
		StrategySnowball,
		StrategyProportional,
	}
}

// IsValid checks if the strategy kind names one of the four public strategies.
func (k StrategyKind) IsValid() bool {
	for _, valid := range CanonicalStrategyOrder() {
		if k == valid {
			return true
		}
	}
	return false
}

// TaxRegime selects the deduction rules applied to post-tax effective rates.
type TaxRegime string

const (
	TaxRegimeOld TaxRegime = "old"
	TaxRegimeNew TaxRegime = "new"
)

// LumpSum is a one-off extra payment scheduled for a specific month.
type LumpSum struct {
	Month  int             `json:"month"`
	Amount decimal.Decimal `json:"amount"`
}

// BudgetConfig describes the extra-payment budget for an optimization run.
type BudgetConfig struct {
	MonthlyExtra decimal.Decimal `json:"monthly_extra"`
	LumpSums     []LumpSum       `json:"lump_sums,omitempty"`
	TaxBracket   decimal.Decimal `json:"tax_bracket"` // marginal rate, e.g. 0.30
	Regime       TaxRegime       `json:"regime,omitempty"`
}

// LumpSumsByMonth indexes the configured lump sums by month, merging
// duplicates.
func (b *BudgetConfig) LumpSumsByMonth() map[int]decimal.Decimal {
	if len(b.LumpSums) == 0 {
		return nil
	}
	byMonth := make(map[int]decimal.Decimal, len(b.LumpSums))
	for _, ls := range b.LumpSums {
		byMonth[ls.Month] = byMonth[ls.Month].Add(ls.Amount)
	}
	return byMonth
}

// LoanResult is the per-loan outcome of one strategy run.
type LoanResult struct {
	LoanID      uuid.UUID `json:"loan_id"`
	PayoffMonth int       `json:"payoff_month"` // 0 when never paid off within the cap
	MonthsSaved int       `json:"months_saved"`
}

// StrategyResult is the outcome of simulating one strategy, diffed against
// the minimum-payments baseline.
type StrategyResult struct {
	Strategy      StrategyKind    `json:"strategy"`
	TotalInterest decimal.Decimal `json:"total_interest"`
	TotalMonths   int             `json:"total_months"`
	InterestSaved decimal.Decimal `json:"interest_saved"`
	MonthsSaved   int             `json:"months_saved"`
	Incomplete    bool            `json:"incomplete"`
	PayoffOrder   []uuid.UUID     `json:"payoff_order"`
	LoanResults   []LoanResult    `json:"loan_results"`
}

// OptimizationResult is the full output of one optimizer invocation. It is a
// pure computed value with no persistent lifecycle.
type OptimizationResult struct {
	BaselineInterest   decimal.Decimal  `json:"baseline_interest"`
	BaselineMonths     int              `json:"baseline_months"`
	BaselineIncomplete bool             `json:"baseline_incomplete"`
	Strategies         []StrategyResult `json:"strategies"`
	Recommended        StrategyKind     `json:"recommended"`
}
