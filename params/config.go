package params

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Operator struct {
	// ListenAddr is the HTTP/WS bind address.
	ListenAddr string
	// DBPath is the pebble order-store directory.
	DBPath string
	// LogLevel is a zap level string (debug, info, warn, error).
	LogLevel string
	// LogFile, if set, tees structured logs to this path.
	LogFile string
	// AllowedOrigins is the CORS allowlist for browser clients.
	AllowedOrigins []string
}

type Ledger struct {
	// ProgramID is the settlement program identity, hex.
	ProgramID string
	// OperatorKey is the operator identity, hex.
	OperatorKey string
}

type Config struct {
	Operator Operator
	Ledger   Ledger
}

func Default() Config {
	return Config{
		Operator: Operator{
			ListenAddr:     ":8080",
			DBPath:         "data/orders",
			LogLevel:       "info",
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:3001"},
		},
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg.Operator.ListenAddr = getEnv("OPERATOR_LISTEN_ADDR", cfg.Operator.ListenAddr)
	cfg.Operator.DBPath = getEnv("OPERATOR_DB_PATH", cfg.Operator.DBPath)
	cfg.Operator.LogLevel = getEnv("OPERATOR_LOG_LEVEL", cfg.Operator.LogLevel)
	cfg.Operator.LogFile = getEnv("OPERATOR_LOG_FILE", cfg.Operator.LogFile)
	if origins := os.Getenv("OPERATOR_ALLOWED_ORIGINS"); origins != "" {
		cfg.Operator.AllowedOrigins = strings.Split(origins, ",")
	}

	cfg.Ledger.ProgramID = getEnv("LEDGER_PROGRAM_ID", cfg.Ledger.ProgramID)
	cfg.Ledger.OperatorKey = getEnv("LEDGER_OPERATOR_KEY", cfg.Ledger.OperatorKey)

	return cfg
}

// getEnv returns an environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
