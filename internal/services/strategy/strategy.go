// Package strategy implements the repayment strategy policies. A strategy is
// a pure function from loan snapshots to an allocation of extra budget; all
// simulation state mutation happens in the simulator.
package strategy

import (
	"sort"

	"github.com/shopspring/decimal"

	"loan-optimizer-engine/internal/models"
)

var (
	one           = decimal.NewFromInt(1)
	twelveHundred = decimal.NewFromInt(1200)
)

// DeductionWeights scale the tax-bracket benefit by deduction category.
// Interest-category deductions offset the full interest cost; principal-only
// deductions offset roughly half of it. These are policy constants, not law.
type DeductionWeights struct {
	Interest  decimal.Decimal
	Principal decimal.Decimal
}

// Params tune the strategy policies.
type Params struct {
	// TaxBracket is the borrower's marginal tax rate as a fraction, e.g. 0.30.
	TaxBracket decimal.Decimal

	Weights DeductionWeights

	// ForeclosureFriction scales a loan's foreclosure charge percentage into
	// the rate penalty added before ranking.
	ForeclosureFriction decimal.Decimal

	// QuickWinMonths promotes loans payable within this many scheduled EMIs
	// to top priority.
	QuickWinMonths int
}

// DefaultParams returns the standard policy tuning.
func DefaultParams() Params {
	return Params{
		Weights: DeductionWeights{
			Interest:  decimal.NewFromInt(1),
			Principal: decimal.NewFromFloat(0.5),
		},
		ForeclosureFriction: decimal.NewFromFloat(0.1),
		QuickWinMonths:      3,
	}
}

// WithTaxBracket returns a copy of the params with the given marginal rate.
func (p Params) WithTaxBracket(bracket decimal.Decimal) Params {
	p.TaxBracket = bracket
	return p
}

// EffectiveRate computes the post-tax effective interest rate for a loan:
// the nominal rate discounted by the tax benefit of its deduction category,
// plus a friction penalty proportional to its foreclosure charges. Loans
// with no eligible deduction keep their nominal rate.
func (p Params) EffectiveRate(l *models.Loan) decimal.Decimal {
	var weight decimal.Decimal
	switch {
	case l.HasInterestDeduction():
		weight = p.Weights.Interest
	case l.HasPrincipalDeduction():
		weight = p.Weights.Principal
	}

	effective := l.InterestRate.Mul(one.Sub(p.TaxBracket.Mul(weight)))
	return effective.Add(l.ForeclosureChargesPct.Mul(p.ForeclosureFriction))
}

// Allocation is one loan's share of a month's extra budget. Amounts are
// gross of any prepayment penalty friction, which the simulator applies.
type Allocation struct {
	Snapshot *models.LoanSnapshot
	Amount   decimal.Decimal
}

// Strategy is a configured repayment policy.
type Strategy struct {
	kind   models.StrategyKind
	params Params
}

// New builds a strategy for the given kind. The baseline kind is accepted
// alongside the four public strategies.
func New(kind models.StrategyKind, params Params) (*Strategy, error) {
	if !kind.IsValid() && kind != models.StrategyBaseline {
		return nil, models.ErrUnknownStrategy
	}
	return &Strategy{kind: kind, params: params}, nil
}

// Kind returns the strategy's identifier.
func (s *Strategy) Kind() models.StrategyKind {
	return s.kind
}

// Allocate splits the extra budget for one month across the active
// snapshots. The returned allocations never exceed a loan's balance and sum
// to at most the budget. Baseline allocates nothing.
func (s *Strategy) Allocate(snaps []*models.LoanSnapshot, budget decimal.Decimal) []Allocation {
	if !budget.IsPositive() {
		return nil
	}

	active := activeSnapshots(snaps)
	if len(active) == 0 {
		return nil
	}

	switch s.kind {
	case models.StrategyBaseline:
		return nil
	case models.StrategyProportional:
		return s.allocateProportional(active, budget)
	default:
		return allocateOrdered(s.Prioritize(active), budget)
	}
}

// Prioritize orders the active snapshots by the strategy's ranking rule.
// The sort is stable, so equal-priority loans keep insertion order.
func (s *Strategy) Prioritize(active []*models.LoanSnapshot) []*models.LoanSnapshot {
	ordered := make([]*models.LoanSnapshot, len(active))
	copy(ordered, active)

	switch s.kind {
	case models.StrategyAvalanche:
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].Loan.InterestRate.GreaterThan(ordered[j].Loan.InterestRate)
		})
	case models.StrategySnowball:
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].Balance.LessThan(ordered[j].Balance)
		})
	case models.StrategySmartHybrid:
		rates := make(map[*models.LoanSnapshot]decimal.Decimal, len(ordered))
		quickWin := make(map[*models.LoanSnapshot]bool, len(ordered))
		for _, snap := range ordered {
			rates[snap] = s.params.EffectiveRate(snap.Loan)
			quickWin[snap] = monthsToClosure(snap) <= s.params.QuickWinMonths
		}
		sort.SliceStable(ordered, func(i, j int) bool {
			if quickWin[ordered[i]] != quickWin[ordered[j]] {
				return quickWin[ordered[i]]
			}
			return rates[ordered[i]].GreaterThan(rates[ordered[j]])
		})
	}

	return ordered
}

// allocateOrdered pours the budget into the ordered loans one at a time,
// capping each at its balance and carrying the excess to the next loan.
func allocateOrdered(ordered []*models.LoanSnapshot, budget decimal.Decimal) []Allocation {
	var allocations []Allocation
	remaining := budget

	for _, snap := range ordered {
		if !remaining.IsPositive() {
			break
		}
		amount := remaining
		if amount.GreaterThan(snap.Balance) {
			amount = snap.Balance
		}
		allocations = append(allocations, Allocation{Snapshot: snap, Amount: amount})
		remaining = remaining.Sub(amount)
	}

	return allocations
}

// allocateProportional splits the budget by each loan's share of the total
// outstanding balance, floored to whole units. The rounding remainder goes
// to the largest-balance loan, capped at its balance; anything still left
// spills to the next-largest loan.
func (s *Strategy) allocateProportional(active []*models.LoanSnapshot, budget decimal.Decimal) []Allocation {
	total := decimal.Zero
	for _, snap := range active {
		total = total.Add(snap.Balance)
	}
	if !total.IsPositive() {
		return nil
	}

	allocations := make([]Allocation, 0, len(active))
	amounts := make(map[*models.LoanSnapshot]decimal.Decimal, len(active))
	allocated := decimal.Zero

	for _, snap := range active {
		share := budget.Mul(snap.Balance).Div(total).Floor()
		if share.GreaterThan(snap.Balance) {
			share = snap.Balance
		}
		amounts[snap] = share
		allocated = allocated.Add(share)
		allocations = append(allocations, Allocation{Snapshot: snap, Amount: share})
	}

	// Hand the rounding remainder to loans in descending balance order,
	// never pushing any loan past its outstanding balance.
	remainder := budget.Sub(allocated).Floor()
	if remainder.IsPositive() {
		byBalance := make([]*models.LoanSnapshot, len(active))
		copy(byBalance, active)
		sort.SliceStable(byBalance, func(i, j int) bool {
			return byBalance[i].Balance.GreaterThan(byBalance[j].Balance)
		})

		for _, snap := range byBalance {
			if !remainder.IsPositive() {
				break
			}
			headroom := snap.Balance.Sub(amounts[snap])
			if !headroom.IsPositive() {
				continue
			}
			bump := remainder
			if bump.GreaterThan(headroom) {
				bump = headroom
			}
			amounts[snap] = amounts[snap].Add(bump)
			remainder = remainder.Sub(bump)
		}

		for i := range allocations {
			allocations[i].Amount = amounts[allocations[i].Snapshot]
		}
	}

	return allocations
}

// neverCloses is the months-to-closure sentinel for loans whose EMI cannot
// retire the balance within the simulation cap.
const neverCloses = 999

// monthsToClosure estimates how many scheduled EMIs retire a loan at minimum
// payments.
func monthsToClosure(snap *models.LoanSnapshot) int {
	r := snap.Loan.InterestRate.Div(twelveHundred)
	balance := snap.Balance
	emi := snap.Loan.EMIAmount

	for month := 1; month <= models.MaxSimulationMonths; month++ {
		interest := balance.Mul(r).Round(0)
		principal := emi.Sub(interest)
		if !principal.IsPositive() {
			return neverCloses
		}
		balance = balance.Sub(principal)
		if !balance.IsPositive() {
			return month
		}
	}
	return neverCloses
}

func activeSnapshots(snaps []*models.LoanSnapshot) []*models.LoanSnapshot {
	active := make([]*models.LoanSnapshot, 0, len(snaps))
	for _, snap := range snaps {
		if snap.Active() {
			active = append(active, snap)
		}
	}
	return active
}
