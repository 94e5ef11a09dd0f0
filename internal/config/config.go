// Package config provides configuration management for the application.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all configuration values for the application.
type Config struct {
	// Database
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string

	// Optimizer policy defaults
	DefaultTaxBracket         decimal.Decimal
	InterestDeductionWeight   decimal.Decimal
	PrincipalDeductionWeight  decimal.Decimal
	ForeclosureFrictionFactor decimal.Decimal
	QuickWinMonths            int

	// Application
	Stage    string
	LogLevel string
	Port     int
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	_ = godotenv.Load()

	cfg := &Config{
		// Database
		DBHost:     getEnv("DB_HOST", getEnv("LOAN_DB_HOST", "localhost")),
		DBPort:     getEnvInt("DB_PORT", getEnvInt("LOAN_DB_PORT", 5432)),
		DBName:     getEnv("DB_NAME", getEnv("LOAN_DB_NAME", "loan_optimizer")),
		DBUser:     getEnv("DB_USER", getEnv("LOAN_DB_USER", "postgres")),
		DBPassword: getEnv("DB_PASSWORD", getEnv("LOAN_DB_PASSWORD", "")),

		// Optimizer policy defaults
		DefaultTaxBracket:         getEnvDecimal("DEFAULT_TAX_BRACKET", "0.30"),
		InterestDeductionWeight:   getEnvDecimal("INTEREST_DEDUCTION_WEIGHT", "1.0"),
		PrincipalDeductionWeight:  getEnvDecimal("PRINCIPAL_DEDUCTION_WEIGHT", "0.5"),
		ForeclosureFrictionFactor: getEnvDecimal("FORECLOSURE_FRICTION_FACTOR", "0.1"),
		QuickWinMonths:            getEnvInt("QUICK_WIN_MONTHS", 3),

		// Application
		Stage:    getEnv("STAGE", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnvInt("PORT", 8080),
	}

	return cfg, nil
}

// DatabaseURL returns the PostgreSQL connection string.
func (c *Config) DatabaseURL() string {
	sslMode := "require" // Use SSL for RDS
	if c.DBHost == "localhost" || c.DBHost == "127.0.0.1" {
		sslMode = "disable" // Disable SSL for local development
	}
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + strconv.Itoa(c.DBPort) + "/" + c.DBName + "?sslmode=" + sslMode
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as int or returns a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDecimal retrieves an environment variable as a decimal or returns a
// default value.
func getEnvDecimal(key, defaultValue string) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return decimal.RequireFromString(defaultValue)
}
