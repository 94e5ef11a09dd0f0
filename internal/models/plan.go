// Package models defines the data structures for the loan optimizer engine.
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RepaymentPlan is a saved optimization outcome a user wants to follow.
type RepaymentPlan struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	UserID       uuid.UUID       `json:"user_id" db:"user_id"`
	PlanName     string          `json:"plan_name" db:"plan_name"`
	Strategy     StrategyKind    `json:"strategy" db:"strategy"`
	MonthlyExtra decimal.Decimal `json:"monthly_extra" db:"monthly_extra"`
	Result       json.RawMessage `json:"result" db:"result"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// RepaymentPlanCreate is the payload for saving a plan.
type RepaymentPlanCreate struct {
	UserID       uuid.UUID       `json:"user_id"`
	PlanName     string          `json:"plan_name"`
	Strategy     StrategyKind    `json:"strategy"`
	MonthlyExtra decimal.Decimal `json:"monthly_extra"`
	Result       json.RawMessage `json:"result"`
}
