package taxrules

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"loan-optimizer-engine/internal/models"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestGetPrepaymentPenalty_FloatingAlwaysZero(t *testing.T) {
	for _, lt := range models.ValidLoanTypes() {
		penalty := GetPrepaymentPenalty(lt, models.RateTypeFloating)
		assert.True(t, penalty.IsZero(), "%s floating penalty %s", lt, penalty)
	}
}

func TestGetPrepaymentPenalty_Matrix(t *testing.T) {
	cases := []struct {
		loanType models.LoanType
		rateType models.RateType
		want     string
	}{
		{models.LoanTypeHome, models.RateTypeFixed, "2.0"},
		{models.LoanTypeHome, models.RateTypeHybrid, "1.5"},
		{models.LoanTypePersonal, models.RateTypeFixed, "4.0"},
		{models.LoanTypeCar, models.RateTypeFixed, "5.0"},
		{models.LoanTypeEducation, models.RateTypeHybrid, "0.5"},
		{models.LoanTypeGold, models.RateTypeFixed, "1.0"},
		{models.LoanTypeCreditCard, models.RateTypeFixed, "0"},
	}
	for _, tc := range cases {
		got := GetPrepaymentPenalty(tc.loanType, tc.rateType)
		assert.True(t, got.Equal(d(tc.want)), "%s/%s: got %s", tc.loanType, tc.rateType, got)
	}
}

func TestGetPrepaymentPenalty_UnknownLoanTypeDefaults(t *testing.T) {
	got := GetPrepaymentPenalty(models.LoanType("yacht"), models.RateTypeFixed)
	assert.True(t, got.Equal(d("2.0")), "got %s", got)
}

func TestCalculateTaxForSlabs_OldRegime(t *testing.T) {
	// 12L under old regime: 0 + 2.5L*0.05 + 5L*0.20 + 2L*0.30 = 172500.
	tax := CalculateTaxForSlabs(d("1200000"), OldRegimeSlabs())
	assert.True(t, tax.Equal(d("172500")), "got %s", tax)
}

func TestCalculateTaxForSlabs_BelowExemption(t *testing.T) {
	tax := CalculateTaxForSlabs(d("200000"), OldRegimeSlabs())
	assert.True(t, tax.IsZero(), "got %s", tax)
}

func TestCalculateTaxForSlabs_NewRegime(t *testing.T) {
	// 12L under new regime: 0 + 4L*0.05 + 3L*0.10 + 2L*0.15 = 80000.
	tax := CalculateTaxForSlabs(d("1200000"), NewRegimeSlabs())
	assert.True(t, tax.Equal(d("80000")), "got %s", tax)
}

func TestCalculateLoanDeductions_NewRegimeGetsNothing(t *testing.T) {
	loans := []LoanTaxInfo{{
		LoanType:            models.LoanTypeHome,
		AnnualInterestPaid:  d("300000"),
		AnnualPrincipalPaid: d("200000"),
		Eligible80C:         true,
		Eligible24B:         true,
		IsSelfOccupied:      true,
	}}

	deductions := CalculateLoanDeductions(loans, models.TaxRegimeNew)
	assert.True(t, deductions.Total.IsZero())
}

func TestCalculateLoanDeductions_CapsApplied(t *testing.T) {
	loans := []LoanTaxInfo{{
		LoanType:            models.LoanTypeHome,
		AnnualInterestPaid:  d("300000"),
		AnnualPrincipalPaid: d("250000"),
		Eligible80C:         true,
		Eligible24B:         true,
		IsSelfOccupied:      true,
	}}

	deductions := CalculateLoanDeductions(loans, models.TaxRegimeOld)
	assert.True(t, deductions.Section80C.Equal(d("150000")), "80c %s", deductions.Section80C)
	assert.True(t, deductions.Section24B.Equal(d("200000")), "24b %s", deductions.Section24B)
	assert.True(t, deductions.Total.Equal(d("350000")), "total %s", deductions.Total)
}

func TestCalculateLoanDeductions_80EUncapped(t *testing.T) {
	loans := []LoanTaxInfo{{
		LoanType:           models.LoanTypeEducation,
		AnnualInterestPaid: d("500000"),
		Eligible80E:        true,
	}}

	deductions := CalculateLoanDeductions(loans, models.TaxRegimeOld)
	assert.True(t, deductions.Section80E.Equal(d("500000")), "80e %s", deductions.Section80E)
}

func TestCompareTaxRegimes_DeductionsFavorOldRegime(t *testing.T) {
	// Heavy home loan deductions can make the old regime cheaper despite
	// its steeper slabs.
	loans := []LoanTaxInfo{{
		LoanType:            models.LoanTypeHome,
		AnnualInterestPaid:  d("200000"),
		AnnualPrincipalPaid: d("150000"),
		Eligible80C:         true,
		Eligible24B:         true,
		IsSelfOccupied:      true,
	}, {
		LoanType:           models.LoanTypeEducation,
		AnnualInterestPaid: d("150000"),
		Eligible80E:        true,
	}}

	cmp := CompareTaxRegimes(d("1100000"), loans)

	// Old: taxable 11L - 5L = 6L -> 32500. New: taxable 11L -> 65000.
	assert.True(t, cmp.OldRegime.Tax.Equal(d("32500")), "old tax %s", cmp.OldRegime.Tax)
	assert.True(t, cmp.NewRegime.Tax.Equal(d("65000")), "new tax %s", cmp.NewRegime.Tax)
	assert.Equal(t, models.TaxRegimeOld, cmp.Recommended)
	assert.True(t, cmp.Savings.Equal(d("32500")), "savings %s", cmp.Savings)
}

func TestCompareTaxRegimes_NoDeductionsFavorNewRegime(t *testing.T) {
	cmp := CompareTaxRegimes(d("1200000"), nil)
	assert.Equal(t, models.TaxRegimeNew, cmp.Recommended)
}

func TestTaxBracketFor(t *testing.T) {
	assert.True(t, TaxBracketFor(d("400000"), models.TaxRegimeOld).Equal(d("0.05")))
	assert.True(t, TaxBracketFor(d("800000"), models.TaxRegimeOld).Equal(d("0.20")))
	assert.True(t, TaxBracketFor(d("2000000"), models.TaxRegimeOld).Equal(d("0.30")))
	assert.True(t, TaxBracketFor(d("900000"), models.TaxRegimeNew).Equal(d("0.10")))
	assert.True(t, TaxBracketFor(d("200000"), models.TaxRegimeOld).IsZero())
}
