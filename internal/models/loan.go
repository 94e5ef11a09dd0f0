// Package models defines the data structures for the loan optimizer engine.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanType represents the category of a loan.
type LoanType string

const (
	LoanTypeHome       LoanType = "home"
	LoanTypePersonal   LoanType = "personal"
	LoanTypeCar        LoanType = "car"
	LoanTypeEducation  LoanType = "education"
	LoanTypeGold       LoanType = "gold"
	LoanTypeCreditCard LoanType = "credit_card"
)

// ValidLoanTypes returns all valid loan type values.
func ValidLoanTypes() []LoanType {
	return []LoanType{
		LoanTypeHome,
		LoanTypePersonal,
		LoanTypeCar,
		LoanTypeEducation,
		LoanTypeGold,
		LoanTypeCreditCard,
	}
}

// IsValid checks if the loan type is valid.
func (t LoanType) IsValid() bool {
	for _, valid := range ValidLoanTypes() {
		if t == valid {
			return true
		}
	}
	return false
}

// RateType represents how a loan's interest rate is set.
type RateType string

const (
	RateTypeFloating RateType = "floating"
	RateTypeFixed    RateType = "fixed"
	RateTypeHybrid   RateType = "hybrid"
)

// IsValid checks if the rate type is valid.
func (t RateType) IsValid() bool {
	return t == RateTypeFloating || t == RateTypeFixed || t == RateTypeHybrid
}

// LoanStatus represents the lifecycle state of a loan.
type LoanStatus string

const (
	LoanStatusActive LoanStatus = "active"
	LoanStatusClosed LoanStatus = "closed"
)

// Loan represents a single amortizing loan. Immutable during a simulation run.
type Loan struct {
	ID                    uuid.UUID       `json:"id" db:"id"`
	UserID                uuid.UUID       `json:"user_id" db:"user_id"`
	BankName              string          `json:"bank_name" db:"bank_name"`
	LoanType              LoanType        `json:"loan_type" db:"loan_type"`
	PrincipalAmount       decimal.Decimal `json:"principal_amount" db:"principal_amount"`
	OutstandingPrincipal  decimal.Decimal `json:"outstanding_principal" db:"outstanding_principal"`
	InterestRate          decimal.Decimal `json:"interest_rate" db:"interest_rate"`
	InterestRateType      RateType        `json:"interest_rate_type" db:"interest_rate_type"`
	TenureMonths          int             `json:"tenure_months" db:"tenure_months"`
	RemainingTenureMonths int             `json:"remaining_tenure_months" db:"remaining_tenure_months"`
	EMIAmount             decimal.Decimal `json:"emi_amount" db:"emi_amount"`
	EMIDueDate            *int            `json:"emi_due_date,omitempty" db:"emi_due_date"`
	PrepaymentPenaltyPct  decimal.Decimal `json:"prepayment_penalty_pct" db:"prepayment_penalty_pct"`
	ForeclosureChargesPct decimal.Decimal `json:"foreclosure_charges_pct" db:"foreclosure_charges_pct"`
	Eligible80C           bool            `json:"eligible_80c" db:"eligible_80c"`
	Eligible24B           bool            `json:"eligible_24b" db:"eligible_24b"`
	Eligible80E           bool            `json:"eligible_80e" db:"eligible_80e"`
	Eligible80EEA         bool            `json:"eligible_80eea" db:"eligible_80eea"`
	Status                LoanStatus      `json:"status" db:"status"`
	CreatedAt             time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at" db:"updated_at"`
}

// LoanUpdate holds optional fields for a partial loan update.
type LoanUpdate struct {
	BankName              *string          `json:"bank_name,omitempty"`
	OutstandingPrincipal  *decimal.Decimal `json:"outstanding_principal,omitempty"`
	InterestRate          *decimal.Decimal `json:"interest_rate,omitempty"`
	RemainingTenureMonths *int             `json:"remaining_tenure_months,omitempty"`
	EMIAmount             *decimal.Decimal `json:"emi_amount,omitempty"`
	EMIDueDate            *int             `json:"emi_due_date,omitempty"`
	PrepaymentPenaltyPct  *decimal.Decimal `json:"prepayment_penalty_pct,omitempty"`
	ForeclosureChargesPct *decimal.Decimal `json:"foreclosure_charges_pct,omitempty"`
	Status                *LoanStatus      `json:"status,omitempty"`
}

// HasInterestDeduction reports whether any interest-deduction category
// applies (home loan interest, education loan interest, first-time buyer).
func (l *Loan) HasInterestDeduction() bool {
	return l.Eligible24B || l.Eligible80E || l.Eligible80EEA
}

// HasPrincipalDeduction reports whether the principal-only deduction
// category applies.
func (l *Loan) HasPrincipalDeduction() bool {
	return l.Eligible80C
}

// LoanSnapshot is the mutable per-loan simulation state. Each simulation run
// owns its own snapshot arena; snapshots are never shared across runs.
type LoanSnapshot struct {
	Loan          *Loan
	Balance       decimal.Decimal
	MonthsElapsed int
	Status        LoanStatus
	PayoffMonth   int
}

// Active reports whether the snapshot still carries a balance.
func (s *LoanSnapshot) Active() bool {
	return s.Status == LoanStatusActive
}

// NewSnapshots builds a fresh snapshot arena for one simulation run, indexed
// by loan position. Loans arriving with a zero balance are closed at month 0.
func NewSnapshots(loans []*Loan) []*LoanSnapshot {
	snaps := make([]*LoanSnapshot, len(loans))
	for i, loan := range loans {
		snap := &LoanSnapshot{
			Loan:    loan,
			Balance: loan.OutstandingPrincipal,
			Status:  LoanStatusActive,
		}
		if !loan.OutstandingPrincipal.IsPositive() {
			snap.Balance = decimal.Zero
			snap.Status = LoanStatusClosed
		}
		snaps[i] = snap
	}
	return snaps
}
