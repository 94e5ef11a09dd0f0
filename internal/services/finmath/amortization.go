package finmath

import (
	"iter"

	"github.com/shopspring/decimal"
)

// AmortizationEntry is one month of a repayment schedule.
type AmortizationEntry struct {
	Month              int             `json:"month"`
	EMI                decimal.Decimal `json:"emi"`
	Interest           decimal.Decimal `json:"interest"`
	Principal          decimal.Decimal `json:"principal"`
	Prepayment         decimal.Decimal `json:"prepayment"`
	Balance            decimal.Decimal `json:"balance"`
	CumulativeInterest decimal.Decimal `json:"cumulative_interest"`
}

// AmortizationSchedule lazily produces the month-by-month schedule for a
// single loan. Each month accrues interest on the opening balance, applies
// the EMI split, then any monthly prepayment and the lump sum scheduled for
// that month, both capped at the remaining balance. The sequence ends when
// the balance reaches zero or the tenure runs out, and is restartable: every
// range re-derives the schedule from the inputs.
func AmortizationSchedule(principal, annualRate decimal.Decimal, tenureMonths int, monthlyPrepayment decimal.Decimal, lumpSums map[int]decimal.Decimal) iter.Seq[AmortizationEntry] {
	return func(yield func(AmortizationEntry) bool) {
		if !principal.IsPositive() || tenureMonths <= 0 {
			return
		}

		emi := CalculateEMI(principal, annualRate, tenureMonths)
		r := monthlyRate(annualRate)
		balance := principal
		cumulative := decimal.Zero

		for month := 1; month <= tenureMonths && balance.IsPositive(); month++ {
			interest := balance.Mul(r).Round(0)

			principalPortion := emi.Sub(interest)
			paid := emi
			if principalPortion.GreaterThan(balance) || month == tenureMonths {
				// The final installment settles whatever remains, absorbing
				// the drift from whole-unit EMI rounding.
				principalPortion = balance
				paid = principalPortion.Add(interest)
			}
			balance = balance.Sub(principalPortion)

			prepay := monthlyPrepayment
			if ls, ok := lumpSums[month]; ok {
				prepay = prepay.Add(ls)
			}
			if prepay.GreaterThan(balance) {
				prepay = balance
			}
			if prepay.IsPositive() {
				balance = balance.Sub(prepay)
			} else {
				prepay = decimal.Zero
			}

			cumulative = cumulative.Add(interest)

			entry := AmortizationEntry{
				Month:              month,
				EMI:                paid,
				Interest:           interest,
				Principal:          principalPortion,
				Prepayment:         prepay,
				Balance:            balance,
				CumulativeInterest: cumulative,
			}
			if !yield(entry) {
				return
			}
		}
	}
}

// GenerateAmortization collects the full schedule into a slice.
func GenerateAmortization(principal, annualRate decimal.Decimal, tenureMonths int, monthlyPrepayment decimal.Decimal, lumpSums map[int]decimal.Decimal) []AmortizationEntry {
	var schedule []AmortizationEntry
	for entry := range AmortizationSchedule(principal, annualRate, tenureMonths, monthlyPrepayment, lumpSums) {
		schedule = append(schedule, entry)
	}
	return schedule
}
