// Package finmath implements the fixed-point financial math core: EMI,
// amortization, reverse-rate solving and affordability inversion.
//
// All monetary values are shopspring decimals rounded half-up to the nearest
// whole currency unit. The only place native floating point appears is the
// rate variable inside the reverse solvers, where perfect rational
// convergence is unnecessary.
package finmath

import (
	"math"

	"github.com/shopspring/decimal"
)

func init() {
	// 28 significant digits for division results, matching the precision
	// the money math is specified against.
	if decimal.DivisionPrecision < 28 {
		decimal.DivisionPrecision = 28
	}
}

var (
	one           = decimal.NewFromInt(1)
	twelveHundred = decimal.NewFromInt(1200)
)

// monthlyRate converts an annual percentage rate to a monthly fraction.
func monthlyRate(annualRate decimal.Decimal) decimal.Decimal {
	return annualRate.Div(twelveHundred)
}

// CalculateEMI computes the fixed monthly installment using the reducing
// balance formula:
//
//	EMI = P * r * (1+r)^n / ((1+r)^n - 1)
//
// where r is the monthly rate (annualRate/1200). Returns 0 for non-positive
// principal or tenure. A zero rate degenerates to simple division.
func CalculateEMI(principal, annualRate decimal.Decimal, tenureMonths int) decimal.Decimal {
	if !principal.IsPositive() || tenureMonths <= 0 {
		return decimal.Zero
	}
	if annualRate.IsZero() {
		return principal.Div(decimal.NewFromInt(int64(tenureMonths))).Round(0)
	}

	r := monthlyRate(annualRate)
	factor := one.Add(r).Pow(decimal.NewFromInt(int64(tenureMonths)))
	emi := principal.Mul(r).Mul(factor).Div(factor.Sub(one))
	return emi.Round(0)
}

// CalculateTotalInterest computes the interest paid over the full tenure
// with no prepayments: EMI * n - P.
func CalculateTotalInterest(principal, annualRate decimal.Decimal, tenureMonths int) decimal.Decimal {
	if !principal.IsPositive() || tenureMonths <= 0 {
		return decimal.Zero
	}
	emi := CalculateEMI(principal, annualRate, tenureMonths)
	totalPaid := emi.Mul(decimal.NewFromInt(int64(tenureMonths)))
	return totalPaid.Sub(principal).Round(0)
}

// CalculateInterestSaved computes the interest and months saved by paying a
// monthly prepayment and/or scheduled lump sums on top of the EMI.
func CalculateInterestSaved(principal, annualRate decimal.Decimal, tenureMonths int, monthlyPrepayment decimal.Decimal, lumpSums map[int]decimal.Decimal) (decimal.Decimal, int) {
	baseline := CalculateTotalInterest(principal, annualRate, tenureMonths)

	schedule := GenerateAmortization(principal, annualRate, tenureMonths, monthlyPrepayment, lumpSums)
	if len(schedule) == 0 {
		return decimal.Zero, 0
	}

	actual := schedule[len(schedule)-1].CumulativeInterest
	return baseline.Sub(actual).Round(0), tenureMonths - len(schedule)
}

// ReverseEMIRate recovers the implied annual rate from a known EMI by
// bisection over [0.01, 50] percent, using CalculateEMI as the monotone
// evaluation function. Converges when the computed EMI is within one
// currency unit of the target, or returns the best midpoint after 100
// steps. The rate variable itself is a float64; money stays decimal.
func ReverseEMIRate(principal, emi decimal.Decimal, tenureMonths int) decimal.Decimal {
	if !principal.IsPositive() || !emi.IsPositive() || tenureMonths <= 0 {
		return decimal.Zero
	}

	low, high := 0.01, 50.0
	mid := (low + high) / 2
	tolerance := decimal.NewFromInt(1)

	for i := 0; i < 100; i++ {
		mid = (low + high) / 2
		calc := CalculateEMI(principal, decimal.NewFromFloat(mid), tenureMonths)

		if calc.Sub(emi).Abs().LessThanOrEqual(tolerance) {
			break
		}

		if calc.LessThan(emi) {
			low = mid
		} else {
			high = mid
		}
	}

	return decimal.NewFromFloat(mid).Round(2)
}

// ReverseEMITenure solves for the tenure that retires the principal at the
// given EMI and rate:
//
//	n = log(EMI / (EMI - P*r)) / log(1 + r)
//
// Returns 0 when the EMI can never retire the principal. The logarithm uses
// float64; the result is an integer month count, so the precision tradeoff
// is immaterial.
func ReverseEMITenure(principal, emi, annualRate decimal.Decimal) int {
	if !principal.IsPositive() || !emi.IsPositive() {
		return 0
	}

	if annualRate.IsZero() {
		return int(principal.Div(emi).Round(0).IntPart())
	}

	r := monthlyRate(annualRate)
	denominator := emi.Sub(principal.Mul(r))
	if !denominator.IsPositive() {
		return 0
	}

	n := math.Log(emi.Div(denominator).InexactFloat64()) / math.Log(one.Add(r).InexactFloat64())
	months := int(math.Round(n))
	if months < 1 {
		months = 1
	}
	return months
}

// CalculateAffordability inverts the EMI formula, returning the principal
// serviceable by a given monthly budget:
//
//	P = EMI * ((1+r)^n - 1) / (r * (1+r)^n)
func CalculateAffordability(emi, annualRate decimal.Decimal, tenureMonths int) decimal.Decimal {
	if !emi.IsPositive() || tenureMonths <= 0 {
		return decimal.Zero
	}
	if annualRate.IsZero() {
		return emi.Mul(decimal.NewFromInt(int64(tenureMonths))).Round(0)
	}

	r := monthlyRate(annualRate)
	factor := one.Add(r).Pow(decimal.NewFromInt(int64(tenureMonths)))
	principal := emi.Mul(factor.Sub(one)).Div(r.Mul(factor))
	return principal.Round(0)
}
