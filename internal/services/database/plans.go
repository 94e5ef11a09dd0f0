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

// PlanRepository handles repayment plan database operations.
type PlanRepository struct {
	db *DB
}

// NewPlanRepository creates a new plan repository.
func NewPlanRepository(db *DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Create saves a repayment plan and returns its generated ID.
func (r *PlanRepository) Create(ctx context.Context, plan *models.RepaymentPlanCreate) (uuid.UUID, error) {
	query := `
		INSERT INTO repayment_plans (id, user_id, plan_name, strategy, monthly_extra, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	id := uuid.New()
	err := r.db.QueryRowContext(ctx, query,
		id,
		plan.UserID,
		plan.PlanName,
		string(plan.Strategy),
		plan.MonthlyExtra,
		plan.Result,
		time.Now().UTC(),
	).Scan(&id)

	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to save plan: %w", err)
	}

	return id, nil
}

// GetByID retrieves a plan by its ID.
func (r *PlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.RepaymentPlan, error) {
	query := `
		SELECT id, user_id, plan_name, strategy, monthly_extra, result, created_at
		FROM repayment_plans
		WHERE id = $1`

	var plan models.RepaymentPlan
	var strategy string

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&plan.ID,
		&plan.UserID,
		&plan.PlanName,
		&strategy,
		&plan.MonthlyExtra,
		&plan.Result,
		&plan.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	plan.Strategy = models.StrategyKind(strategy)
	return &plan, nil
}

// GetByUserID retrieves all plans saved by a user, newest first.
func (r *PlanRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*models.RepaymentPlan, error) {
	query := `
		SELECT id, user_id, plan_name, strategy, monthly_extra, result, created_at
		FROM repayment_plans
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	defer rows.Close()

	var plans []*models.RepaymentPlan
	for rows.Next() {
		var plan models.RepaymentPlan
		var strategy string

		err := rows.Scan(
			&plan.ID,
			&plan.UserID,
			&plan.PlanName,
			&strategy,
			&plan.MonthlyExtra,
			&plan.Result,
			&plan.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}

		plan.Strategy = models.StrategyKind(strategy)
		plans = append(plans, &plan)
	}

	return plans, nil
}

// Delete removes a saved plan.
func (r *PlanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	affected, err := r.db.ExecContext(ctx, "DELETE FROM repayment_plans WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	if affected == 0 {
		return models.ErrPlanNotFound
	}
	return nil
}
