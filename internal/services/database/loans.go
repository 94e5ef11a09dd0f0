// Package database provides database operations for the loan optimizer engine.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"loan-optimizer-engine/internal/models"
)

const loanColumns = `
	id, user_id, bank_name, loan_type, principal_amount, outstanding_principal,
	interest_rate, interest_rate_type, tenure_months, remaining_tenure_months,
	emi_amount, emi_due_date, prepayment_penalty_pct, foreclosure_charges_pct,
	eligible_80c, eligible_24b, eligible_80e, eligible_80eea,
	status, created_at, updated_at`

// LoanRepository handles loan database operations.
type LoanRepository struct {
	db *DB
}

// NewLoanRepository creates a new loan repository.
func NewLoanRepository(db *DB) *LoanRepository {
	return &LoanRepository{db: db}
}

// Create inserts a new loan and returns its generated ID.
func (r *LoanRepository) Create(ctx context.Context, loan *models.Loan) (uuid.UUID, error) {
	if err := models.ValidateLoan(loan); err != nil {
		return uuid.Nil, err
	}

	query := `
		INSERT INTO loans (
			id, user_id, bank_name, loan_type, principal_amount, outstanding_principal,
			interest_rate, interest_rate_type, tenure_months, remaining_tenure_months,
			emi_amount, emi_due_date, prepayment_penalty_pct, foreclosure_charges_pct,
			eligible_80c, eligible_24b, eligible_80e, eligible_80eea,
			status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $20)
		RETURNING id`

	id := loan.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	status := loan.Status
	if status == "" {
		status = models.LoanStatusActive
	}

	err := r.db.QueryRowContext(ctx, query,
		id,
		loan.UserID,
		loan.BankName,
		string(loan.LoanType),
		loan.PrincipalAmount,
		loan.OutstandingPrincipal,
		loan.InterestRate,
		string(loan.InterestRateType),
		loan.TenureMonths,
		loan.RemainingTenureMonths,
		loan.EMIAmount,
		loan.EMIDueDate,
		loan.PrepaymentPenaltyPct,
		loan.ForeclosureChargesPct,
		loan.Eligible80C,
		loan.Eligible24B,
		loan.Eligible80E,
		loan.Eligible80EEA,
		string(status),
		time.Now().UTC(),
	).Scan(&id)

	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create loan: %w", err)
	}

	return id, nil
}

// GetByID retrieves a loan by its ID.
func (r *LoanRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`

	loan, err := scanLoan(r.db.QueryRowContext(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, models.ErrLoanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}

	return loan, nil
}

// GetActiveByUserID retrieves all active loans for a user, oldest first.
// Insertion order matters downstream: it is the strategy tie-break.
func (r *LoanRepository) GetActiveByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Loan, error) {
	query := `SELECT ` + loanColumns + `
		FROM loans
		WHERE user_id = $1 AND status = 'active'
		ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query loans: %w", err)
	}
	defer rows.Close()

	var loans []*models.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		loans = append(loans, loan)
	}

	return loans, nil
}

// Update applies a partial update and returns the updated loan.
func (r *LoanRepository) Update(ctx context.Context, id uuid.UUID, update *models.LoanUpdate) (*models.Loan, error) {
	loan, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.BankName != nil {
		loan.BankName = *update.BankName
	}
	if update.OutstandingPrincipal != nil {
		loan.OutstandingPrincipal = *update.OutstandingPrincipal
	}
	if update.InterestRate != nil {
		loan.InterestRate = *update.InterestRate
	}
	if update.RemainingTenureMonths != nil {
		loan.RemainingTenureMonths = *update.RemainingTenureMonths
	}
	if update.EMIAmount != nil {
		loan.EMIAmount = *update.EMIAmount
	}
	if update.EMIDueDate != nil {
		loan.EMIDueDate = update.EMIDueDate
	}
	if update.PrepaymentPenaltyPct != nil {
		loan.PrepaymentPenaltyPct = *update.PrepaymentPenaltyPct
	}
	if update.ForeclosureChargesPct != nil {
		loan.ForeclosureChargesPct = *update.ForeclosureChargesPct
	}
	if update.Status != nil {
		loan.Status = *update.Status
	}

	if err := models.ValidateLoan(loan); err != nil {
		return nil, err
	}

	query := `
		UPDATE loans SET
			bank_name = $2,
			outstanding_principal = $3,
			interest_rate = $4,
			remaining_tenure_months = $5,
			emi_amount = $6,
			emi_due_date = $7,
			prepayment_penalty_pct = $8,
			foreclosure_charges_pct = $9,
			status = $10,
			updated_at = $11
		WHERE id = $1`

	_, err = r.db.ExecContext(ctx, query,
		id,
		loan.BankName,
		loan.OutstandingPrincipal,
		loan.InterestRate,
		loan.RemainingTenureMonths,
		loan.EMIAmount,
		loan.EMIDueDate,
		loan.PrepaymentPenaltyPct,
		loan.ForeclosureChargesPct,
		string(loan.Status),
		time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update loan: %w", err)
	}

	return loan, nil
}

// Delete removes a loan.
func (r *LoanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	affected, err := r.db.ExecContext(ctx, "DELETE FROM loans WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete loan: %w", err)
	}
	if affected == 0 {
		return models.ErrLoanNotFound
	}
	return nil
}

// CountActiveByUserID returns the number of active loans for a user.
func (r *LoanRepository) CountActiveByUserID(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM loans WHERE user_id = $1 AND status = 'active'", userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count loans: %w", err)
	}
	return count, nil
}

// scanLoan reads one loan row from either a Row or Rows.
func scanLoan(row pgx.Row) (*models.Loan, error) {
	var loan models.Loan
	var loanType, rateType, status string

	err := row.Scan(
		&loan.ID,
		&loan.UserID,
		&loan.BankName,
		&loanType,
		&loan.PrincipalAmount,
		&loan.OutstandingPrincipal,
		&loan.InterestRate,
		&rateType,
		&loan.TenureMonths,
		&loan.RemainingTenureMonths,
		&loan.EMIAmount,
		&loan.EMIDueDate,
		&loan.PrepaymentPenaltyPct,
		&loan.ForeclosureChargesPct,
		&loan.Eligible80C,
		&loan.Eligible24B,
		&loan.Eligible80E,
		&loan.Eligible80EEA,
		&status,
		&loan.CreatedAt,
		&loan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	loan.LoanType = models.LoanType(loanType)
	loan.InterestRateType = models.RateType(rateType)
	loan.Status = models.LoanStatus(status)
	return &loan, nil
}
