// Package models defines the data structures for the loan optimizer engine.
package models

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrInvalidPrincipal       = errors.New("principal amount must be positive")
	ErrInvalidOutstanding     = errors.New("outstanding principal must be between 0 and principal amount")
	ErrInvalidInterestRate    = errors.New("interest rate must be between 0 and 50")
	ErrInvalidTenure          = errors.New("tenure must be between 1 and 600 months")
	ErrInvalidRemainingTenure = errors.New("remaining tenure must be between 1 and tenure months")
	ErrInvalidEMI             = errors.New("emi amount must be positive")
	ErrInvalidPenalty         = errors.New("penalty percentages must be between 0 and 100")
	ErrInvalidLoanType        = errors.New("invalid loan type")
	ErrInvalidRateType        = errors.New("invalid rate type")
	ErrEmptyBankName          = errors.New("bank_name cannot be empty")
	ErrNoLoans                = errors.New("at least one loan is required")
	ErrInvalidBudget          = errors.New("monthly extra budget cannot be negative")
	ErrInvalidTaxBracket      = errors.New("tax bracket must be at least 0 and below 1")
	ErrInvalidLumpSum         = errors.New("lump sums must have a positive amount and a month between 1 and 600")
	ErrUnknownStrategy        = errors.New("unknown strategy")
	ErrLoanNotFound           = errors.New("loan not found")
	ErrPlanNotFound           = errors.New("plan not found")
)

var (
	maxRate       = decimal.NewFromInt(50)
	maxPenaltyPct = decimal.NewFromInt(100)
	maxTaxBracket = decimal.NewFromInt(1)
)

// MaxSimulationMonths is the hard cap on simulated months (50 years).
const MaxSimulationMonths = 600

// ValidateLoan validates a loan record before it may enter the engine.
// Validation is the caller's contract: the simulation engine itself never
// receives invalid records.
func ValidateLoan(l *Loan) error {
	if strings.TrimSpace(l.BankName) == "" {
		return ErrEmptyBankName
	}

	if !l.LoanType.IsValid() {
		return ErrInvalidLoanType
	}

	if !l.InterestRateType.IsValid() {
		return ErrInvalidRateType
	}

	if !l.PrincipalAmount.IsPositive() {
		return ErrInvalidPrincipal
	}

	if l.OutstandingPrincipal.IsNegative() || l.OutstandingPrincipal.GreaterThan(l.PrincipalAmount) {
		return ErrInvalidOutstanding
	}

	if l.InterestRate.IsNegative() || l.InterestRate.GreaterThan(maxRate) {
		return ErrInvalidInterestRate
	}

	if l.TenureMonths < 1 || l.TenureMonths > MaxSimulationMonths {
		return ErrInvalidTenure
	}

	if l.RemainingTenureMonths < 1 || l.RemainingTenureMonths > l.TenureMonths {
		return ErrInvalidRemainingTenure
	}

	if !l.EMIAmount.IsPositive() {
		return ErrInvalidEMI
	}

	// A percentage above 100 would turn a prepayment into a balance
	// increase downstream, so both charges are capped at the full amount.
	if l.PrepaymentPenaltyPct.IsNegative() || l.PrepaymentPenaltyPct.GreaterThan(maxPenaltyPct) {
		return ErrInvalidPenalty
	}

	if l.ForeclosureChargesPct.IsNegative() || l.ForeclosureChargesPct.GreaterThan(maxPenaltyPct) {
		return ErrInvalidPenalty
	}

	return nil
}

// ValidateBudget validates a budget configuration.
func ValidateBudget(b *BudgetConfig) error {
	if b.MonthlyExtra.IsNegative() {
		return ErrInvalidBudget
	}

	if b.TaxBracket.IsNegative() || b.TaxBracket.GreaterThanOrEqual(maxTaxBracket) {
		return ErrInvalidTaxBracket
	}

	for _, ls := range b.LumpSums {
		if ls.Month < 1 || ls.Month > MaxSimulationMonths || !ls.Amount.IsPositive() {
			return ErrInvalidLumpSum
		}
	}

	return nil
}
