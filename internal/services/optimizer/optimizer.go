// Package optimizer runs the four repayment strategies against a loan
// portfolio, diffs each against the minimum-payments baseline and picks a
// recommendation.
package optimizer

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"loan-optimizer-engine/internal/models"
	"loan-optimizer-engine/internal/services/finmath"
	"loan-optimizer-engine/internal/services/simulator"
	"loan-optimizer-engine/internal/services/strategy"
)

// Service orchestrates strategy simulations.
type Service struct {
	logger *zap.Logger
	params strategy.Params
}

// New creates an optimizer service with the given policy tuning.
func New(logger *zap.Logger, params strategy.Params) *Service {
	return &Service{
		logger: logger,
		params: params,
	}
}

// Optimize validates the portfolio and budget, runs the baseline and all
// four strategies, and aggregates the comparison. Strategy runs execute
// concurrently on independent snapshot arenas.
func (s *Service) Optimize(ctx context.Context, loans []*models.Loan, budget *models.BudgetConfig) (*models.OptimizationResult, error) {
	if len(loans) == 0 {
		return nil, models.ErrNoLoans
	}
	for _, loan := range loans {
		if err := models.ValidateLoan(loan); err != nil {
			return nil, fmt.Errorf("loan %s: %w", loan.ID, err)
		}
	}
	if err := models.ValidateBudget(budget); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params := s.params.WithTaxBracket(budget.TaxBracket)
	if budget.Regime == models.TaxRegimeNew {
		// The new regime allows none of the loan deductions, so the
		// post-tax effective rate collapses to the nominal rate.
		params.Weights = strategy.DeductionWeights{}
	}
	cfg := simulator.Config{
		MonthlyExtra: budget.MonthlyExtra,
		LumpSums:     budget.LumpSumsByMonth(),
	}

	baselineStrat, err := strategy.New(models.StrategyBaseline, params)
	if err != nil {
		return nil, err
	}
	baseline, err := simulator.Run(loans, baselineStrat, simulator.Config{})
	if err != nil {
		return nil, fmt.Errorf("baseline simulation: %w", err)
	}

	kinds := models.CanonicalStrategyOrder()
	runs := make([]*simulator.Result, len(kinds))
	errs := make([]error, len(kinds))

	var wg sync.WaitGroup
	for i, kind := range kinds {
		wg.Add(1)
		go func(i int, kind models.StrategyKind) {
			defer wg.Done()
			strat, err := strategy.New(kind, params)
			if err != nil {
				errs[i] = err
				return
			}
			runs[i], errs[i] = simulator.Run(loans, strat, cfg)
		}(i, kind)
	}
	wg.Wait()

	result := &models.OptimizationResult{
		BaselineInterest:   baseline.TotalInterest,
		BaselineMonths:     baseline.TotalMonths,
		BaselineIncomplete: baseline.Incomplete,
		Strategies:         make([]models.StrategyResult, 0, len(kinds)),
	}

	for i, kind := range kinds {
		if errs[i] != nil {
			return nil, fmt.Errorf("strategy %s: %w", kind, errs[i])
		}
		result.Strategies = append(result.Strategies, diffResult(kind, runs[i], baseline, loans))
	}

	result.Recommended = recommend(result.Strategies)

	s.logger.Info("optimization complete",
		zap.Int("loans", len(loans)),
		zap.String("recommended", string(result.Recommended)),
		zap.String("baseline_interest", baseline.TotalInterest.String()),
	)

	return result, nil
}

// diffResult computes one strategy's savings against the baseline.
func diffResult(kind models.StrategyKind, run, baseline *simulator.Result, loans []*models.Loan) models.StrategyResult {
	sr := models.StrategyResult{
		Strategy:      kind,
		TotalInterest: run.TotalInterest,
		TotalMonths:   run.TotalMonths,
		InterestSaved: baseline.TotalInterest.Sub(run.TotalInterest),
		MonthsSaved:   baseline.TotalMonths - run.TotalMonths,
		Incomplete:    run.Incomplete,
		PayoffOrder:   run.PayoffOrder,
		LoanResults:   make([]models.LoanResult, 0, len(loans)),
	}

	for _, loan := range loans {
		lr := models.LoanResult{LoanID: loan.ID}
		if month, ok := run.PayoffMonths[loan.ID]; ok {
			lr.PayoffMonth = month
			if base, ok := baseline.PayoffMonths[loan.ID]; ok {
				lr.MonthsSaved = base - month
			}
		}
		sr.LoanResults = append(sr.LoanResults, lr)
	}

	return sr
}

// recommend picks the strategy with the greatest interest saved. Ties fall
// to fewer total months, then to the canonical order already present in the
// slice.
func recommend(strategies []models.StrategyResult) models.StrategyKind {
	best := strategies[0]
	for _, sr := range strategies[1:] {
		switch {
		case sr.InterestSaved.GreaterThan(best.InterestSaved):
			best = sr
		case sr.InterestSaved.Equal(best.InterestSaved) && sr.TotalMonths < best.TotalMonths:
			best = sr
		}
	}
	return best.Strategy
}

// WhatIfInput describes a single-loan prepayment scenario.
type WhatIfInput struct {
	Principal         decimal.Decimal  `json:"principal"`
	AnnualRate        decimal.Decimal  `json:"annual_rate"`
	TenureMonths      int              `json:"tenure_months"`
	MonthlyPrepayment decimal.Decimal  `json:"monthly_prepayment"`
	LumpSums          []models.LumpSum `json:"lump_sums,omitempty"`
}

// WhatIfResult compares a loan's cost with and without the extra payments.
type WhatIfResult struct {
	OriginalInterest decimal.Decimal `json:"original_interest"`
	NewInterest      decimal.Decimal `json:"new_interest"`
	InterestSaved    decimal.Decimal `json:"interest_saved"`
	OriginalMonths   int             `json:"original_months"`
	NewMonths        int             `json:"new_months"`
	MonthsSaved      int             `json:"months_saved"`
}

// WhatIf evaluates a prepayment scenario for a single loan.
func (s *Service) WhatIf(in *WhatIfInput) (*WhatIfResult, error) {
	if !in.Principal.IsPositive() {
		return nil, models.ErrInvalidPrincipal
	}
	if in.AnnualRate.IsNegative() {
		return nil, models.ErrInvalidInterestRate
	}
	if in.TenureMonths < 1 || in.TenureMonths > models.MaxSimulationMonths {
		return nil, models.ErrInvalidTenure
	}
	if in.MonthlyPrepayment.IsNegative() {
		return nil, models.ErrInvalidBudget
	}

	lumpSums := make(map[int]decimal.Decimal, len(in.LumpSums))
	for _, ls := range in.LumpSums {
		if ls.Month < 1 || ls.Month > models.MaxSimulationMonths || !ls.Amount.IsPositive() {
			return nil, models.ErrInvalidLumpSum
		}
		lumpSums[ls.Month] = lumpSums[ls.Month].Add(ls.Amount)
	}

	originalInterest := finmath.CalculateTotalInterest(in.Principal, in.AnnualRate, in.TenureMonths)
	saved, monthsSaved := finmath.CalculateInterestSaved(
		in.Principal, in.AnnualRate, in.TenureMonths, in.MonthlyPrepayment, lumpSums)

	return &WhatIfResult{
		OriginalInterest: originalInterest,
		NewInterest:      originalInterest.Sub(saved),
		InterestSaved:    saved,
		OriginalMonths:   in.TenureMonths,
		NewMonths:        in.TenureMonths - monthsSaved,
		MonthsSaved:      monthsSaved,
	}, nil
}
