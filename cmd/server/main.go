// Package main provides the HTTP API server for the loan optimizer engine.
// It exposes the EMI math, loan CRUD, and portfolio optimization endpoints
// used by the frontend.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"loan-optimizer-engine/internal/config"
	"loan-optimizer-engine/internal/models"
	"loan-optimizer-engine/internal/services/database"
	"loan-optimizer-engine/internal/services/finmath"
	"loan-optimizer-engine/internal/services/optimizer"
	"loan-optimizer-engine/internal/services/strategy"
	"loan-optimizer-engine/internal/services/taxrules"
	"loan-optimizer-engine/internal/utils"

	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/shopspring/decimal"
)

// Server holds all dependencies
type Server struct {
	db        *database.DB
	loanRepo  *database.LoanRepository
	planRepo  *database.PlanRepository
	optimizer *optimizer.Service
	config    *config.Config
}

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func main() {
	// Initialize logger first
	if err := utils.InitLogger(getEnvOrDefault("LOG_LEVEL", "info")); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer utils.Sync()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Warning: Could not load config from environment: %v", err)
		cfg = &config.Config{}
	}

	// Initialize database
	db, err := database.New(cfg)
	if err != nil {
		log.Printf("Warning: Could not connect to database: %v", err)
		log.Println("Server will run in demo mode without persistence")
	}

	server := &Server{
		db:        db,
		optimizer: optimizer.New(utils.GetLogger(), strategyParams(cfg)),
		config:    cfg,
	}

	if db != nil {
		server.loanRepo = database.NewLoanRepository(db)
		server.planRepo = database.NewPlanRepository(db)
	}

	// Setup routes
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", server.healthHandler)
	mux.HandleFunc("/api/health", server.healthHandler)

	// EMI math
	mux.HandleFunc("/api/emi/calculate", server.emiCalculateHandler)
	mux.HandleFunc("/api/emi/reverse-rate", server.emiReverseRateHandler)
	mux.HandleFunc("/api/emi/affordability", server.emiAffordabilityHandler)

	// Loan CRUD
	mux.HandleFunc("/api/loans", server.loansHandler)
	mux.HandleFunc("/api/loans/", server.loanByIDHandler)

	// Optimizer
	mux.HandleFunc("/api/optimizer/optimize", server.optimizeHandler)
	mux.HandleFunc("/api/optimizer/what-if", server.whatIfHandler)
	mux.HandleFunc("/api/optimizer/tax-impact", server.taxImpactHandler)
	mux.HandleFunc("/api/optimizer/save-plan", server.savePlanHandler)
	mux.HandleFunc("/api/optimizer/plans", server.plansHandler)

	// Setup CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	handler := c.Handler(mux)

	port := getEnvOrDefault("PORT", "8080")
	addr := fmt.Sprintf("0.0.0.0:%s", port)

	log.Printf("Loan Optimizer Engine API Server")
	log.Printf("Listening on http://localhost:%s", port)
	log.Printf("Health: http://localhost:%s/health", port)

	log.Printf("Starting HTTP server on %s...", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// strategyParams builds the policy tuning from config defaults.
func strategyParams(cfg *config.Config) strategy.Params {
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
	return params
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	dbStatus := "disconnected"
	if s.db != nil {
		if err := s.db.HealthCheck(r.Context()); err == nil {
			dbStatus = "connected"
		}
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Loan Optimizer Engine API is running",
		Data: map[string]interface{}{
			"status":    "healthy",
			"database":  dbStatus,
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   "1.0.0",
		},
	})
}

type emiRequest struct {
	Principal         decimal.Decimal `json:"principal"`
	EMI               decimal.Decimal `json:"emi"`
	AnnualRate        decimal.Decimal `json:"annual_rate"`
	TenureMonths      int             `json:"tenure_months"`
	MonthlyPrepayment decimal.Decimal `json:"monthly_prepayment,omitempty"`
}

func (s *Server) emiCalculateHandler(w http.ResponseWriter, r *http.Request) {
	var req emiRequest
	if !decodePost(w, r, &req) {
		return
	}

	if !req.Principal.IsPositive() {
		writeError(w, http.StatusBadRequest, models.ErrInvalidPrincipal)
		return
	}
	if req.TenureMonths < 1 || req.TenureMonths > models.MaxSimulationMonths {
		writeError(w, http.StatusBadRequest, models.ErrInvalidTenure)
		return
	}

	emi := finmath.CalculateEMI(req.Principal, req.AnnualRate, req.TenureMonths)
	totalInterest := finmath.CalculateTotalInterest(req.Principal, req.AnnualRate, req.TenureMonths)

	data := map[string]interface{}{
		"emi":            emi,
		"total_interest": totalInterest,
		"total_payment":  req.Principal.Add(totalInterest),
	}

	if req.MonthlyPrepayment.IsPositive() {
		saved, monthsSaved := finmath.CalculateInterestSaved(
			req.Principal, req.AnnualRate, req.TenureMonths, req.MonthlyPrepayment, nil)
		data["interest_saved"] = saved
		data["months_saved"] = monthsSaved
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Data: data})
}

func (s *Server) emiReverseRateHandler(w http.ResponseWriter, r *http.Request) {
	var req emiRequest
	if !decodePost(w, r, &req) {
		return
	}

	if !req.Principal.IsPositive() {
		writeError(w, http.StatusBadRequest, models.ErrInvalidPrincipal)
		return
	}
	if !req.EMI.IsPositive() {
		writeError(w, http.StatusBadRequest, models.ErrInvalidEMI)
		return
	}
	if req.TenureMonths < 1 || req.TenureMonths > models.MaxSimulationMonths {
		writeError(w, http.StatusBadRequest, models.ErrInvalidTenure)
		return
	}

	rate := finmath.ReverseEMIRate(req.Principal, req.EMI, req.TenureMonths)
	tenure := finmath.ReverseEMITenure(req.Principal, req.EMI, rate)

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"annual_rate":    rate,
			"implied_tenure": tenure,
		},
	})
}

func (s *Server) emiAffordabilityHandler(w http.ResponseWriter, r *http.Request) {
	var req emiRequest
	if !decodePost(w, r, &req) {
		return
	}

	if !req.EMI.IsPositive() {
		writeError(w, http.StatusBadRequest, models.ErrInvalidEMI)
		return
	}
	if req.TenureMonths < 1 || req.TenureMonths > models.MaxSimulationMonths {
		writeError(w, http.StatusBadRequest, models.ErrInvalidTenure)
		return
	}

	principal := finmath.CalculateAffordability(req.EMI, req.AnnualRate, req.TenureMonths)

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    map[string]interface{}{"principal": principal},
	})
}

func (s *Server) loansHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listLoans(w, r)
	case http.MethodPost:
		s.createLoan(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) listLoans(w http.ResponseWriter, r *http.Request) {
	if s.loanRepo == nil {
		writeJSON(w, http.StatusOK, Response{Success: true, Data: []*models.Loan{}})
		return
	}

	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: "invalid user_id"})
		return
	}

	loans, err := s.loanRepo.GetActiveByUserID(r.Context(), userID)
	if err != nil {
		log.Printf("Error fetching loans: %v", err)
		writeJSON(w, http.StatusInternalServerError, Response{Success: false, Error: "Failed to fetch loans"})
		return
	}
	if loans == nil {
		loans = []*models.Loan{}
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Data: loans})
}

func (s *Server) createLoan(w http.ResponseWriter, r *http.Request) {
	if s.loanRepo == nil {
		writeJSON(w, http.StatusServiceUnavailable, Response{Success: false, Error: "Database not available"})
		return
	}

	var loan models.Loan
	if err := json.NewDecoder(r.Body).Decode(&loan); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}

	id, err := s.loanRepo.Create(r.Context(), &loan)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusCreated, Response{
		Success: true,
		Data:    map[string]interface{}{"id": id},
	})
}

// loanByIDHandler routes /api/loans/{id} and /api/loans/{id}/amortization.
func (s *Server) loanByIDHandler(w http.ResponseWriter, r *http.Request) {
	if s.loanRepo == nil {
		writeJSON(w, http.StatusServiceUnavailable, Response{Success: false, Error: "Database not available"})
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/loans/")
	idStr, sub, _ := strings.Cut(rest, "/")

	id, err := uuid.Parse(idStr)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: "invalid loan id"})
		return
	}

	if sub == "amortization" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.loanAmortization(w, r, id)
		return
	}
	if sub != "" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		loan, err := s.loanRepo.GetByID(r.Context(), id)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, Response{Success: true, Data: loan})

	case http.MethodPut:
		var update models.LoanUpdate
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
			return
		}
		loan, err := s.loanRepo.Update(r.Context(), id, &update)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, Response{Success: true, Data: loan})

	case http.MethodDelete:
		if err := s.loanRepo.Delete(r.Context(), id); err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, Response{Success: true, Message: "Loan deleted"})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) loanAmortization(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	loan, err := s.loanRepo.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	schedule := finmath.GenerateAmortization(
		loan.OutstandingPrincipal, loan.InterestRate, loan.RemainingTenureMonths,
		decimal.Zero, nil)

	writeJSON(w, http.StatusOK, Response{Success: true, Data: schedule})
}

type optimizeRequest struct {
	UserID uuid.UUID            `json:"user_id,omitempty"`
	Loans  []*models.Loan       `json:"loans,omitempty"`
	Budget *models.BudgetConfig `json:"budget"`
}

func (s *Server) optimizeHandler(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if !decodePost(w, r, &req) {
		return
	}
	if req.Budget == nil {
		req.Budget = &models.BudgetConfig{}
	}

	loans := req.Loans
	if len(loans) == 0 && req.UserID != uuid.Nil && s.loanRepo != nil {
		var err error
		loans, err = s.loanRepo.GetActiveByUserID(r.Context(), req.UserID)
		if err != nil {
			log.Printf("Error fetching loans: %v", err)
			writeJSON(w, http.StatusInternalServerError, Response{Success: false, Error: "Failed to fetch loans"})
			return
		}
	}

	result, err := s.optimizer.Optimize(r.Context(), loans, req.Budget)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Data: result})
}

func (s *Server) whatIfHandler(w http.ResponseWriter, r *http.Request) {
	var req optimizer.WhatIfInput
	if !decodePost(w, r, &req) {
		return
	}

	result, err := s.optimizer.WhatIf(&req)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Data: result})
}

type taxImpactRequest struct {
	AnnualIncome decimal.Decimal        `json:"annual_income"`
	Loans        []taxrules.LoanTaxInfo `json:"loans"`
}

func (s *Server) taxImpactHandler(w http.ResponseWriter, r *http.Request) {
	var req taxImpactRequest
	if !decodePost(w, r, &req) {
		return
	}

	if req.AnnualIncome.IsNegative() {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: "annual_income cannot be negative"})
		return
	}

	comparison := taxrules.CompareTaxRegimes(req.AnnualIncome, req.Loans)
	writeJSON(w, http.StatusOK, Response{Success: true, Data: comparison})
}

func (s *Server) savePlanHandler(w http.ResponseWriter, r *http.Request) {
	if s.planRepo == nil {
		writeJSON(w, http.StatusServiceUnavailable, Response{Success: false, Error: "Database not available"})
		return
	}

	var req models.RepaymentPlanCreate
	if !decodePost(w, r, &req) {
		return
	}

	if !req.Strategy.IsValid() {
		writeError(w, http.StatusBadRequest, models.ErrUnknownStrategy)
		return
	}
	if strings.TrimSpace(req.PlanName) == "" {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: "plan_name cannot be empty"})
		return
	}

	id, err := s.planRepo.Create(r.Context(), &req)
	if err != nil {
		log.Printf("Error saving plan: %v", err)
		writeJSON(w, http.StatusInternalServerError, Response{Success: false, Error: "Failed to save plan"})
		return
	}

	writeJSON(w, http.StatusCreated, Response{
		Success: true,
		Data:    map[string]interface{}{"id": id},
	})
}

func (s *Server) plansHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.planRepo == nil {
		writeJSON(w, http.StatusOK, Response{Success: true, Data: []*models.RepaymentPlan{}})
		return
	}

	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: "invalid user_id"})
		return
	}

	plans, err := s.planRepo.GetByUserID(r.Context(), userID)
	if err != nil {
		log.Printf("Error fetching plans: %v", err)
		writeJSON(w, http.StatusInternalServerError, Response{Success: false, Error: "Failed to fetch plans"})
		return
	}
	if plans == nil {
		plans = []*models.RepaymentPlan{}
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Data: plans})
}

// decodePost enforces POST and decodes the JSON body, writing the error
// response itself on failure.
func decodePost(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return false
	}
	return true
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrLoanNotFound) || errors.Is(err, models.ErrPlanNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrNoLoans):
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, Response{Success: false, Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
