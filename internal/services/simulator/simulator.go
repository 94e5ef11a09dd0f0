// Package simulator implements the month-stepped repayment simulation. Each
// run owns a private snapshot arena; loans move from active to closed and
// their freed EMIs relay into the extra-payment pool of later months.
package simulator

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"loan-optimizer-engine/internal/models"
	"loan-optimizer-engine/internal/services/strategy"
)

var (
	one           = decimal.NewFromInt(1)
	oneHundred    = decimal.NewFromInt(100)
	twelveHundred = decimal.NewFromInt(1200)
)

// Config describes the extra-payment budget for one simulation run.
type Config struct {
	MonthlyExtra decimal.Decimal
	LumpSums     map[int]decimal.Decimal

	// MaxMonths caps the simulated horizon. Zero means the default cap.
	MaxMonths int
}

// Result is the outcome of one simulation run.
type Result struct {
	TotalInterest decimal.Decimal
	TotalMonths   int

	// Incomplete is set when the month cap was reached with loans still
	// carrying a balance. This is a reported outcome, not an error.
	Incomplete bool

	// PayoffOrder lists loan IDs in closure order.
	PayoffOrder []uuid.UUID

	// PayoffMonths maps loan ID to the month its balance reached zero.
	// Loans still open at the cap are absent.
	PayoffMonths map[uuid.UUID]int
}

// Run simulates the portfolio month by month under the given strategy. Each
// month applies scheduled EMIs first, then distributes the combined extra
// budget (monthly extra, lump sums due, freed-EMI pool) per the strategy's
// allocation. EMIs freed by a closure join the pool the following month.
func Run(loans []*models.Loan, strat *strategy.Strategy, cfg Config) (*Result, error) {
	if len(loans) == 0 {
		return nil, models.ErrNoLoans
	}

	maxMonths := cfg.MaxMonths
	if maxMonths <= 0 || maxMonths > models.MaxSimulationMonths {
		maxMonths = models.MaxSimulationMonths
	}

	snaps := models.NewSnapshots(loans)

	rates := make([]decimal.Decimal, len(snaps))
	penalties := make([]decimal.Decimal, len(snaps))
	for i, snap := range snaps {
		rates[i] = snap.Loan.InterestRate.Div(twelveHundred)
		penalties[i] = one.Sub(snap.Loan.PrepaymentPenaltyPct.Div(oneHundred))
	}
	index := make(map[*models.LoanSnapshot]int, len(snaps))
	for i, snap := range snaps {
		index[snap] = i
	}

	result := &Result{
		TotalInterest: decimal.Zero,
		PayoffMonths:  make(map[uuid.UUID]int, len(snaps)),
	}

	freedPool := decimal.Zero

	for month := 1; month <= maxMonths; month++ {
		if countActive(snaps) == 0 {
			break
		}

		budget := cfg.MonthlyExtra.Add(freedPool)
		if ls, ok := cfg.LumpSums[month]; ok {
			budget = budget.Add(ls)
		}

		// Scheduled EMIs: interest accrues on the opening balance, the
		// rest of the installment retires principal, capped at the balance.
		// An EMI below the accrued interest grows the balance instead.
		for i, snap := range snaps {
			if !snap.Active() {
				continue
			}
			interest := snap.Balance.Mul(rates[i]).Round(0)
			principal := snap.Loan.EMIAmount.Sub(interest)
			if principal.GreaterThan(snap.Balance) {
				principal = snap.Balance
			}
			snap.Balance = snap.Balance.Sub(principal)
			snap.MonthsElapsed = month
			result.TotalInterest = result.TotalInterest.Add(interest)
		}

		// Extra-budget distribution, net of prepayment penalty friction.
		// The penalty can at most consume the whole payment; it never
		// pushes money back onto the balance.
		for _, alloc := range strat.Allocate(snaps, budget) {
			snap := alloc.Snapshot
			net := alloc.Amount.Mul(penalties[index[snap]])
			if net.IsNegative() {
				net = decimal.Zero
			}
			if net.GreaterThan(snap.Balance) {
				net = snap.Balance
			}
			snap.Balance = snap.Balance.Sub(net)
		}

		// Close paid-off loans; their EMIs relay into next month's pool.
		for _, snap := range snaps {
			if !snap.Active() || snap.Balance.IsPositive() {
				continue
			}
			snap.Status = models.LoanStatusClosed
			snap.PayoffMonth = month
			result.PayoffOrder = append(result.PayoffOrder, snap.Loan.ID)
			result.PayoffMonths[snap.Loan.ID] = month
			freedPool = freedPool.Add(snap.Loan.EMIAmount)
		}

		result.TotalMonths = month

		if countActive(snaps) == 0 {
			return result, nil
		}
	}

	result.Incomplete = countActive(snaps) > 0
	return result, nil
}

func countActive(snaps []*models.LoanSnapshot) int {
	n := 0
	for _, snap := range snaps {
		if snap.Active() {
			n++
		}
	}
	return n
}
