package simulator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-optimizer-engine/internal/models"
	"loan-optimizer-engine/internal/services/finmath"
	"loan-optimizer-engine/internal/services/strategy"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// testLoan builds a loan whose EMI matches its balance, rate and remaining
// tenure, so the scheduled payments alone retire it exactly on schedule.
func testLoan(outstanding, rate string, months int) *models.Loan {
	balance := d(outstanding)
	return &models.Loan{
		ID:                    uuid.New(),
		BankName:              "Test Bank",
		LoanType:              models.LoanTypePersonal,
		PrincipalAmount:       balance,
		OutstandingPrincipal:  balance,
		InterestRate:          d(rate),
		InterestRateType:      models.RateTypeFixed,
		TenureMonths:          months,
		RemainingTenureMonths: months,
		EMIAmount:             finmath.CalculateEMI(balance, d(rate), months),
		Status:                models.LoanStatusActive,
	}
}

func mustStrategy(t *testing.T, kind models.StrategyKind) *strategy.Strategy {
	t.Helper()
	s, err := strategy.New(kind, strategy.DefaultParams())
	require.NoError(t, err)
	return s
}

func TestRun_NoLoans(t *testing.T) {
	_, err := Run(nil, mustStrategy(t, models.StrategyBaseline), Config{})
	assert.ErrorIs(t, err, models.ErrNoLoans)
}

func TestRun_BaselineMatchesSchedule(t *testing.T) {
	loan := testLoan("1000000", "12", 60)

	result, err := Run([]*models.Loan{loan}, mustStrategy(t, models.StrategyBaseline), Config{})
	require.NoError(t, err)

	// Whole-unit EMI rounding may shift the final month by one.
	assert.InDelta(t, 60, result.TotalMonths, 1)
	assert.False(t, result.Incomplete)
	require.Len(t, result.PayoffOrder, 1)
	assert.Equal(t, loan.ID, result.PayoffOrder[0])

	// Month cap may absorb at most the rounding drift vs EMI*n-P.
	expected := finmath.CalculateTotalInterest(d("1000000"), d("12"), 60)
	diff := result.TotalInterest.Sub(expected).Abs()
	assert.True(t, diff.LessThanOrEqual(d("60")), "interest %s vs %s", result.TotalInterest, expected)
}

func TestRun_ExtraBudgetShortensPayoff(t *testing.T) {
	baselineLoan := testLoan("1000000", "12", 60)

	baseline, err := Run([]*models.Loan{baselineLoan}, mustStrategy(t, models.StrategyBaseline), Config{})
	require.NoError(t, err)

	accelerated, err := Run([]*models.Loan{baselineLoan},
		mustStrategy(t, models.StrategyAvalanche),
		Config{MonthlyExtra: d("10000")})
	require.NoError(t, err)

	assert.Less(t, accelerated.TotalMonths, baseline.TotalMonths)
	assert.True(t, accelerated.TotalInterest.LessThan(baseline.TotalInterest))
}

func TestRun_LumpSumApplied(t *testing.T) {
	loan := testLoan("500000", "10", 48)

	without, err := Run([]*models.Loan{loan}, mustStrategy(t, models.StrategyAvalanche), Config{})
	require.NoError(t, err)

	with, err := Run([]*models.Loan{loan}, mustStrategy(t, models.StrategyAvalanche),
		Config{LumpSums: map[int]decimal.Decimal{6: d("200000")}})
	require.NoError(t, err)

	assert.Less(t, with.TotalMonths, without.TotalMonths)
	assert.True(t, with.TotalInterest.LessThan(without.TotalInterest))
}

func TestRun_FreedEMIRelay(t *testing.T) {
	// The short loan closes early; its EMI must then accelerate the long
	// loan compared to a run where the short loan never existed.
	short := testLoan("100000", "14", 12)
	long := testLoan("1500000", "9", 120)

	pair, err := Run([]*models.Loan{short, long}, mustStrategy(t, models.StrategyAvalanche), Config{})
	require.NoError(t, err)

	alone, err := Run([]*models.Loan{long}, mustStrategy(t, models.StrategyAvalanche), Config{})
	require.NoError(t, err)

	require.Len(t, pair.PayoffOrder, 2)
	assert.Equal(t, short.ID, pair.PayoffOrder[0])
	assert.Less(t, pair.PayoffMonths[long.ID], alone.PayoffMonths[long.ID])
}

func TestRun_BaselineDoesNotRelayFreedEMIs(t *testing.T) {
	short := testLoan("100000", "14", 12)
	long := testLoan("1500000", "9", 120)

	baseline, err := Run([]*models.Loan{short, long}, mustStrategy(t, models.StrategyBaseline), Config{})
	require.NoError(t, err)

	// Under minimum payments each loan follows its own schedule, give or
	// take the rounding drift of a whole-unit EMI.
	assert.InDelta(t, 12, baseline.PayoffMonths[short.ID], 1)
	assert.InDelta(t, 120, baseline.PayoffMonths[long.ID], 1)
	assert.Equal(t, baseline.PayoffMonths[long.ID], baseline.TotalMonths)
}

func TestRun_PrepaymentPenaltyReducesEffect(t *testing.T) {
	clean := testLoan("1000000", "12", 60)

	penalized := testLoan("1000000", "12", 60)
	penalized.PrepaymentPenaltyPct = d("5")

	cfg := Config{MonthlyExtra: d("10000")}
	cleanRun, err := Run([]*models.Loan{clean}, mustStrategy(t, models.StrategyAvalanche), cfg)
	require.NoError(t, err)

	penalizedRun, err := Run([]*models.Loan{penalized}, mustStrategy(t, models.StrategyAvalanche), cfg)
	require.NoError(t, err)

	assert.True(t, penalizedRun.TotalInterest.GreaterThan(cleanRun.TotalInterest))
	assert.GreaterOrEqual(t, penalizedRun.TotalMonths, cleanRun.TotalMonths)
}

func TestRun_PenaltyAboveFullNeverWorsensBaseline(t *testing.T) {
	// Validation caps penalties at 100, but Run takes loans directly. A
	// factor beyond the full payment must be clamped to a no-op rather
	// than growing the balance, so extra budget can never cost the
	// borrower more than paying minimums.
	loan := testLoan("1000000", "12", 60)
	loan.PrepaymentPenaltyPct = d("150")

	baseline, err := Run([]*models.Loan{loan}, mustStrategy(t, models.StrategyBaseline), Config{})
	require.NoError(t, err)

	withExtra, err := Run([]*models.Loan{loan}, mustStrategy(t, models.StrategyAvalanche),
		Config{MonthlyExtra: d("10000")})
	require.NoError(t, err)

	assert.False(t, withExtra.Incomplete)
	assert.LessOrEqual(t, withExtra.TotalMonths, baseline.TotalMonths)
	assert.True(t, withExtra.TotalInterest.LessThanOrEqual(baseline.TotalInterest),
		"interest %s vs baseline %s", withExtra.TotalInterest, baseline.TotalInterest)
}

func TestRun_BudgetConservation(t *testing.T) {
	// With zero-rate loans every unit of balance reduction is cash the
	// borrower actually paid. Outflow per month is the two EMIs plus the
	// extra budget (freed EMIs relay, so it stays constant after the
	// first closure): 150000 total less the 10000 lump leaves 140000 at
	// 20000 a month, exactly 7 months. Finishing earlier would mean the
	// engine distributed more than a month's budget.
	first := testLoan("50000", "0", 10)   // EMI 5000
	second := testLoan("100000", "0", 10) // EMI 10000

	result, err := Run([]*models.Loan{first, second},
		mustStrategy(t, models.StrategyAvalanche),
		Config{
			MonthlyExtra: d("5000"),
			LumpSums:     map[int]decimal.Decimal{1: d("10000")},
		})
	require.NoError(t, err)

	assert.Equal(t, 7, result.TotalMonths)
	assert.True(t, result.TotalInterest.IsZero())
	assert.Equal(t, 4, result.PayoffMonths[first.ID])
	assert.Equal(t, 7, result.PayoffMonths[second.ID])
}

func TestRun_IncompleteAtCap(t *testing.T) {
	// EMI below the monthly interest: the balance can never be retired.
	loan := testLoan("1000000", "24", 120)
	loan.EMIAmount = d("10000") // monthly interest is 20000

	result, err := Run([]*models.Loan{loan}, mustStrategy(t, models.StrategyBaseline), Config{})
	require.NoError(t, err)

	assert.True(t, result.Incomplete)
	assert.Equal(t, models.MaxSimulationMonths, result.TotalMonths)
	assert.Empty(t, result.PayoffOrder)
}

func TestRun_ZeroBalanceLoanClosedUpfront(t *testing.T) {
	paid := testLoan("100000", "10", 12)
	paid.OutstandingPrincipal = decimal.Zero
	open := testLoan("200000", "10", 24)

	result, err := Run([]*models.Loan{paid, open}, mustStrategy(t, models.StrategyBaseline), Config{})
	require.NoError(t, err)

	assert.False(t, result.Incomplete)
	assert.NotContains(t, result.PayoffMonths, paid.ID)
	assert.Contains(t, result.PayoffMonths, open.ID)
}

func TestRun_RunsAreIndependent(t *testing.T) {
	loan := testLoan("1000000", "12", 60)
	loans := []*models.Loan{loan}

	first, err := Run(loans, mustStrategy(t, models.StrategyAvalanche), Config{MonthlyExtra: d("5000")})
	require.NoError(t, err)

	// The input loan is untouched and a rerun reproduces the result.
	assert.True(t, loan.OutstandingPrincipal.Equal(d("1000000")))

	second, err := Run(loans, mustStrategy(t, models.StrategyAvalanche), Config{MonthlyExtra: d("5000")})
	require.NoError(t, err)
	assert.Equal(t, first.TotalMonths, second.TotalMonths)
	assert.True(t, first.TotalInterest.Equal(second.TotalInterest))
}
