// Package taxrules encodes Indian tax and RBI prepayment rules: the
// foreclosure charge matrix, income tax slabs for both regimes, and the
// section-wise loan deduction limits (80C, 24b, 80E, 80EEA).
package taxrules

import (
	"github.com/shopspring/decimal"

	"loan-optimizer-engine/internal/models"
)

// FloatingRatePrepaymentPenalty reflects the 2014 RBI circular: floating
// rate loans carry no prepayment penalty.
var FloatingRatePrepaymentPenalty = decimal.Zero

var defaultForeclosureCharge = decimal.RequireFromString("2.0")

// foreclosureCharges is the charge matrix by loan type and rate type,
// as percentages of the prepaid amount.
var foreclosureCharges = map[models.LoanType]map[models.RateType]decimal.Decimal{
	models.LoanTypeHome: {
		models.RateTypeFloating: decimal.Zero,
		models.RateTypeFixed:    decimal.RequireFromString("2.0"),
		models.RateTypeHybrid:   decimal.RequireFromString("1.5"),
	},
	models.LoanTypePersonal: {
		models.RateTypeFloating: decimal.RequireFromString("2.0"),
		models.RateTypeFixed:    decimal.RequireFromString("4.0"),
		models.RateTypeHybrid:   decimal.RequireFromString("3.0"),
	},
	models.LoanTypeCar: {
		models.RateTypeFloating: decimal.Zero,
		models.RateTypeFixed:    decimal.RequireFromString("5.0"),
		models.RateTypeHybrid:   decimal.RequireFromString("2.5"),
	},
	models.LoanTypeEducation: {
		models.RateTypeFloating: decimal.Zero,
		models.RateTypeFixed:    decimal.RequireFromString("1.0"),
		models.RateTypeHybrid:   decimal.RequireFromString("0.5"),
	},
	models.LoanTypeGold: {
		models.RateTypeFloating: decimal.RequireFromString("0.5"),
		models.RateTypeFixed:    decimal.RequireFromString("1.0"),
		models.RateTypeHybrid:   decimal.RequireFromString("0.5"),
	},
	models.LoanTypeCreditCard: {
		models.RateTypeFloating: decimal.Zero,
		models.RateTypeFixed:    decimal.Zero,
		models.RateTypeHybrid:   decimal.Zero,
	},
}

// GetPrepaymentPenalty returns the penalty percentage for prepaying a loan
// of the given type and rate type. Floating rate loans are always 0.
func GetPrepaymentPenalty(loanType models.LoanType, rateType models.RateType) decimal.Decimal {
	if rateType == models.RateTypeFloating {
		return FloatingRatePrepaymentPenalty
	}
	if charges, ok := foreclosureCharges[loanType]; ok {
		if charge, ok := charges[rateType]; ok {
			return charge
		}
	}
	return defaultForeclosureCharge
}

// DeductionLimits are the annual caps per deduction section. Zero means
// uncapped.
type DeductionLimits struct {
	Section80C             decimal.Decimal
	Section24BSelfOccupied decimal.Decimal
	Section80EEA           decimal.Decimal
}

// OldRegimeLimits returns the FY 2024-25 limits under the old regime.
func OldRegimeLimits() DeductionLimits {
	return DeductionLimits{
		Section80C:             decimal.NewFromInt(150000),
		Section24BSelfOccupied: decimal.NewFromInt(200000),
		Section80EEA:           decimal.NewFromInt(150000),
	}
}

// Slab is one progressive tax bracket: the rate applies to income between
// the previous slab's upper limit and this one's.
type Slab struct {
	UpperLimit decimal.Decimal
	Rate       decimal.Decimal
}

// OldRegimeSlabs returns the FY 2024-25 old regime slabs.
func OldRegimeSlabs() []Slab {
	return []Slab{
		{decimal.NewFromInt(250000), decimal.Zero},
		{decimal.NewFromInt(500000), decimal.RequireFromString("0.05")},
		{decimal.NewFromInt(1000000), decimal.RequireFromString("0.20")},
		{decimal.NewFromInt(99999999), decimal.RequireFromString("0.30")},
	}
}

// NewRegimeSlabs returns the FY 2024-25 new regime slabs.
func NewRegimeSlabs() []Slab {
	return []Slab{
		{decimal.NewFromInt(300000), decimal.Zero},
		{decimal.NewFromInt(700000), decimal.RequireFromString("0.05")},
		{decimal.NewFromInt(1000000), decimal.RequireFromString("0.10")},
		{decimal.NewFromInt(1200000), decimal.RequireFromString("0.15")},
		{decimal.NewFromInt(1500000), decimal.RequireFromString("0.20")},
		{decimal.NewFromInt(99999999), decimal.RequireFromString("0.30")},
	}
}

func slabsFor(regime models.TaxRegime) []Slab {
	if regime == models.TaxRegimeNew {
		return NewRegimeSlabs()
	}
	return OldRegimeSlabs()
}

// CalculateTaxForSlabs computes progressive income tax over the given slabs,
// rounded to two decimal places.
func CalculateTaxForSlabs(income decimal.Decimal, slabs []Slab) decimal.Decimal {
	tax := decimal.Zero
	prevLimit := decimal.Zero

	for _, slab := range slabs {
		if income.LessThanOrEqual(prevLimit) {
			break
		}
		upper := income
		if slab.UpperLimit.LessThan(upper) {
			upper = slab.UpperLimit
		}
		tax = tax.Add(upper.Sub(prevLimit).Mul(slab.Rate))
		prevLimit = slab.UpperLimit
	}

	return tax.Round(2)
}

// LoanTaxInfo carries the tax-relevant yearly figures for one loan.
type LoanTaxInfo struct {
	LoanType            models.LoanType `json:"loan_type"`
	AnnualInterestPaid  decimal.Decimal `json:"annual_interest_paid"`
	AnnualPrincipalPaid decimal.Decimal `json:"annual_principal_paid"`
	Eligible80C         bool            `json:"eligible_80c"`
	Eligible24B         bool            `json:"eligible_24b"`
	Eligible80E         bool            `json:"eligible_80e"`
	Eligible80EEA       bool            `json:"eligible_80eea"`
	IsSelfOccupied      bool            `json:"is_self_occupied"`
}

// Deductions is the section-wise deduction breakdown.
type Deductions struct {
	Section80C   decimal.Decimal `json:"80c"`
	Section24B   decimal.Decimal `json:"24b"`
	Section80E   decimal.Decimal `json:"80e"`
	Section80EEA decimal.Decimal `json:"80eea"`
	Total        decimal.Decimal `json:"total"`
}

// CalculateLoanDeductions totals the deductions available from a set of
// loans under the given regime. The new regime allows none of these.
func CalculateLoanDeductions(loans []LoanTaxInfo, regime models.TaxRegime) Deductions {
	var deductions Deductions
	if regime == models.TaxRegimeNew {
		return deductions
	}

	limits := OldRegimeLimits()
	total80C := decimal.Zero
	total24B := decimal.Zero
	total80E := decimal.Zero
	total80EEA := decimal.Zero

	for _, loan := range loans {
		if loan.Eligible80C {
			total80C = total80C.Add(loan.AnnualPrincipalPaid)
		}
		if loan.Eligible24B {
			interest := loan.AnnualInterestPaid
			if loan.IsSelfOccupied && interest.GreaterThan(limits.Section24BSelfOccupied) {
				interest = limits.Section24BSelfOccupied
			}
			total24B = total24B.Add(interest)
		}
		if loan.Eligible80E {
			// No cap, 8-year window.
			total80E = total80E.Add(loan.AnnualInterestPaid)
		}
		if loan.Eligible80EEA {
			total80EEA = total80EEA.Add(loan.AnnualInterestPaid)
		}
	}

	deductions.Section80C = decimal.Min(total80C, limits.Section80C)
	deductions.Section24B = decimal.Min(total24B, limits.Section24BSelfOccupied)
	deductions.Section80E = total80E
	deductions.Section80EEA = decimal.Min(total80EEA, limits.Section80EEA)
	deductions.Total = deductions.Section80C.
		Add(deductions.Section24B).
		Add(deductions.Section80E).
		Add(deductions.Section80EEA)

	return deductions
}

// RegimeOutcome is one regime's side of the comparison.
type RegimeOutcome struct {
	TaxableIncome decimal.Decimal `json:"taxable_income"`
	Tax           decimal.Decimal `json:"tax"`
	Deductions    Deductions      `json:"deductions"`
}

// RegimeComparison is the result of comparing both regimes for an income
// and loan portfolio.
type RegimeComparison struct {
	OldRegime   RegimeOutcome    `json:"old_regime"`
	NewRegime   RegimeOutcome    `json:"new_regime"`
	Recommended models.TaxRegime `json:"recommended"`
	Savings     decimal.Decimal  `json:"savings"`
}

// CompareTaxRegimes computes the tax owed under both regimes given the loan
// deductions, and recommends the cheaper one. Old wins ties, since its
// deductions grow with the portfolio.
func CompareTaxRegimes(annualIncome decimal.Decimal, loans []LoanTaxInfo) RegimeComparison {
	oldDeductions := CalculateLoanDeductions(loans, models.TaxRegimeOld)
	oldTaxable := decimal.Max(decimal.Zero, annualIncome.Sub(oldDeductions.Total))
	oldTax := CalculateTaxForSlabs(oldTaxable, OldRegimeSlabs())

	newDeductions := CalculateLoanDeductions(loans, models.TaxRegimeNew)
	newTaxable := decimal.Max(decimal.Zero, annualIncome.Sub(newDeductions.Total))
	newTax := CalculateTaxForSlabs(newTaxable, NewRegimeSlabs())

	recommended := models.TaxRegimeOld
	if oldTax.GreaterThan(newTax) {
		recommended = models.TaxRegimeNew
	}

	return RegimeComparison{
		OldRegime:   RegimeOutcome{TaxableIncome: oldTaxable, Tax: oldTax, Deductions: oldDeductions},
		NewRegime:   RegimeOutcome{TaxableIncome: newTaxable, Tax: newTax, Deductions: newDeductions},
		Recommended: recommended,
		Savings:     oldTax.Sub(newTax).Abs(),
	}
}

// TaxBracketFor returns the marginal tax rate for an income under a regime.
func TaxBracketFor(annualIncome decimal.Decimal, regime models.TaxRegime) decimal.Decimal {
	bracket := decimal.Zero
	prevLimit := decimal.Zero

	for _, slab := range slabsFor(regime) {
		if annualIncome.GreaterThan(prevLimit) {
			bracket = slab.Rate
		}
		prevLimit = slab.UpperLimit
	}

	return bracket
}
