package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func validLoan() *Loan {
	return &Loan{
		ID:                    uuid.New(),
		UserID:                uuid.New(),
		BankName:              "HDFC Bank",
		LoanType:              LoanTypeHome,
		PrincipalAmount:       d("5000000"),
		OutstandingPrincipal:  d("4200000"),
		InterestRate:          d("8.5"),
		InterestRateType:      RateTypeFloating,
		TenureMonths:          240,
		RemainingTenureMonths: 200,
		EMIAmount:             d("43391"),
		Status:                LoanStatusActive,
	}
}

func TestLoanType_IsValid(t *testing.T) {
	for _, lt := range ValidLoanTypes() {
		assert.True(t, lt.IsValid(), "%s", lt)
	}
	assert.False(t, LoanType("mortgage").IsValid())
	assert.False(t, LoanType("").IsValid())
}

func TestRateType_IsValid(t *testing.T) {
	assert.True(t, RateTypeFloating.IsValid())
	assert.True(t, RateTypeFixed.IsValid())
	assert.True(t, RateTypeHybrid.IsValid())
	assert.False(t, RateType("variable").IsValid())
}

func TestStrategyKind_IsValid(t *testing.T) {
	for _, kind := range CanonicalStrategyOrder() {
		assert.True(t, kind.IsValid(), "%s", kind)
	}
	// Baseline is internal, not part of the public set.
	assert.False(t, StrategyBaseline.IsValid())
	assert.False(t, StrategyKind("martingale").IsValid())
}

func TestValidateLoan_Valid(t *testing.T) {
	assert.NoError(t, ValidateLoan(validLoan()))
}

func TestValidateLoan_Rejections(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Loan)
		wantErr error
	}{
		{"empty bank name", func(l *Loan) { l.BankName = "  " }, ErrEmptyBankName},
		{"bad loan type", func(l *Loan) { l.LoanType = "mortgage" }, ErrInvalidLoanType},
		{"bad rate type", func(l *Loan) { l.InterestRateType = "variable" }, ErrInvalidRateType},
		{"zero principal", func(l *Loan) { l.PrincipalAmount = decimal.Zero }, ErrInvalidPrincipal},
		{"negative outstanding", func(l *Loan) { l.OutstandingPrincipal = d("-1") }, ErrInvalidOutstanding},
		{"outstanding above principal", func(l *Loan) { l.OutstandingPrincipal = d("6000000") }, ErrInvalidOutstanding},
		{"rate above cap", func(l *Loan) { l.InterestRate = d("51") }, ErrInvalidInterestRate},
		{"negative rate", func(l *Loan) { l.InterestRate = d("-1") }, ErrInvalidInterestRate},
		{"zero tenure", func(l *Loan) { l.TenureMonths = 0 }, ErrInvalidTenure},
		{"tenure above cap", func(l *Loan) { l.TenureMonths = 601 }, ErrInvalidTenure},
		{"remaining above tenure", func(l *Loan) { l.RemainingTenureMonths = 241 }, ErrInvalidRemainingTenure},
		{"zero emi", func(l *Loan) { l.EMIAmount = decimal.Zero }, ErrInvalidEMI},
		{"negative penalty", func(l *Loan) { l.PrepaymentPenaltyPct = d("-1") }, ErrInvalidPenalty},
		{"prepayment penalty above 100", func(l *Loan) { l.PrepaymentPenaltyPct = d("150") }, ErrInvalidPenalty},
		{"foreclosure charges above 100", func(l *Loan) { l.ForeclosureChargesPct = d("101") }, ErrInvalidPenalty},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			loan := validLoan()
			tc.mutate(loan)
			assert.ErrorIs(t, ValidateLoan(loan), tc.wantErr)
		})
	}
}

func TestValidateBudget(t *testing.T) {
	assert.NoError(t, ValidateBudget(&BudgetConfig{MonthlyExtra: d("5000")}))
	assert.ErrorIs(t, ValidateBudget(&BudgetConfig{MonthlyExtra: d("-1")}), ErrInvalidBudget)
	assert.ErrorIs(t, ValidateBudget(&BudgetConfig{
		LumpSums: []LumpSum{{Month: 700, Amount: d("1000")}},
	}), ErrInvalidLumpSum)
	assert.ErrorIs(t, ValidateBudget(&BudgetConfig{
		LumpSums: []LumpSum{{Month: 12, Amount: decimal.Zero}},
	}), ErrInvalidLumpSum)
	assert.ErrorIs(t, ValidateBudget(&BudgetConfig{TaxBracket: d("-0.1")}), ErrInvalidTaxBracket)
	assert.ErrorIs(t, ValidateBudget(&BudgetConfig{TaxBracket: d("1")}), ErrInvalidTaxBracket)
	assert.NoError(t, ValidateBudget(&BudgetConfig{TaxBracket: d("0.30")}))
}

func TestBudgetConfig_LumpSumsByMonth_MergesDuplicates(t *testing.T) {
	budget := &BudgetConfig{
		LumpSums: []LumpSum{
			{Month: 6, Amount: d("50000")},
			{Month: 6, Amount: d("25000")},
			{Month: 12, Amount: d("100000")},
		},
	}

	byMonth := budget.LumpSumsByMonth()
	require.Len(t, byMonth, 2)
	assert.True(t, byMonth[6].Equal(d("75000")))
	assert.True(t, byMonth[12].Equal(d("100000")))
}

func TestNewSnapshots_ZeroBalanceClosed(t *testing.T) {
	open := validLoan()
	paid := validLoan()
	paid.OutstandingPrincipal = decimal.Zero

	snaps := NewSnapshots([]*Loan{open, paid})
	require.Len(t, snaps, 2)

	assert.True(t, snaps[0].Active())
	assert.True(t, snaps[0].Balance.Equal(open.OutstandingPrincipal))

	assert.False(t, snaps[1].Active())
	assert.Equal(t, LoanStatusClosed, snaps[1].Status)
	assert.True(t, snaps[1].Balance.IsZero())
}

func TestLoan_DeductionCategories(t *testing.T) {
	loan := validLoan()
	assert.False(t, loan.HasInterestDeduction())
	assert.False(t, loan.HasPrincipalDeduction())

	loan.Eligible24B = true
	assert.True(t, loan.HasInterestDeduction())

	loan.Eligible80C = true
	assert.True(t, loan.HasPrincipalDeduction())
}
