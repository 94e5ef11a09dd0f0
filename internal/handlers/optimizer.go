// Package handlers provides HTTP handlers for the loan optimizer engine.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"loan-optimizer-engine/internal/config"
	"loan-optimizer-engine/internal/models"
	"loan-optimizer-engine/internal/services/optimizer"
	"loan-optimizer-engine/internal/services/strategy"
	"loan-optimizer-engine/internal/utils"
)

// OptimizerHandler handles portfolio optimization requests.
type OptimizerHandler struct {
	optimizer *optimizer.Service
}

// NewOptimizerHandler creates a new optimizer handler.
func NewOptimizerHandler() (*OptimizerHandler, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	params := strategy.DefaultParams()
	if !cfg.InterestDeductionWeight.IsZero() {
		params.Weights.Interest = cfg.InterestDeductionWeight
	}
	if !cfg.PrincipalDeductionWeight.IsZero() {
		params.Weights.Principal = cfg.PrincipalDeductionWeight
	}
	if !cfg.ForeclosureFrictionFactor.IsZero() {
		params.ForeclosureFriction = cfg.ForeclosureFrictionFactor
	}
	if cfg.QuickWinMonths > 0 {
		params.QuickWinMonths = cfg.QuickWinMonths
	}

	return &OptimizerHandler{
		optimizer: optimizer.New(utils.GetLogger(), params),
	}, nil
}

// OptimizeRequest is the request body for an optimization run.
type OptimizeRequest struct {
	Loans  []*models.Loan       `json:"loans"`
	Budget *models.BudgetConfig `json:"budget"`
}

// Handle processes API Gateway optimization requests.
func (h *OptimizerHandler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger := utils.GetLogger()

	// CORS headers
	headers := map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type,Authorization",
		"Access-Control-Allow-Methods": "POST,OPTIONS",
		"Content-Type":                 "application/json",
	}

	// Handle CORS preflight
	if request.HTTPMethod == "OPTIONS" {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusOK,
			Headers:    headers,
		}, nil
	}

	var req OptimizeRequest
	if err := json.Unmarshal([]byte(request.Body), &req); err != nil {
		return errorResponse(headers, http.StatusBadRequest, "Invalid JSON in request body")
	}
	if req.Budget == nil {
		req.Budget = &models.BudgetConfig{}
	}

	result, err := h.optimizer.Optimize(ctx, req.Loans, req.Budget)
	if err != nil {
		logger.Warn("optimization rejected", zap.Error(err))
		if errors.Is(err, models.ErrNoLoans) {
			return errorResponse(headers, http.StatusBadRequest, err.Error())
		}
		return errorResponse(headers, http.StatusUnprocessableEntity, err.Error())
	}

	body, _ := json.Marshal(result)

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    headers,
		Body:       string(body),
	}, nil
}

// errorResponse builds a JSON error response for API Gateway.
func errorResponse(headers map[string]string, statusCode int, message string) (events.APIGatewayProxyResponse, error) {
	body, _ := json.Marshal(map[string]string{
		"error":   http.StatusText(statusCode),
		"message": message,
	})

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    headers,
		Body:       string(body),
	}, nil
}
