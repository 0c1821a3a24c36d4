package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// RewardBracket is a one-time streak milestone grant
type RewardBracket struct {
	XP     int64
	Wallet int64
}

// Economy holds the platform's tunable economic constants.
// Injected into the engines so tests can run with alternate economics.
type Economy struct {
	UnlockPrice          int64
	RewardBrackets       map[int]RewardBracket
	FallbackBracketDay   int // Bracket used when a claimed day has no entry
	ReferralSignupReward int64
	ReferralUnlockReward int64
}

// Config holds all configuration for the application
type Config struct {
	// HTTP server
	ServerAddr string

	// Storage
	StorageType string // "sqlite" or "memory"
	DataDir     string
	SQLitePath  string

	// Elasticsearch archive (optional)
	ArchiveEnabled   bool
	ArchiveAddresses []string

	// Environment
	Environment string // "development" or "production"

	// Economy constants
	Economy Economy
}

// DefaultEconomy returns the production economy constants
func DefaultEconomy() Economy {
	return Economy{
		UnlockPrice: 100,
		RewardBrackets: map[int]RewardBracket{
			1:  {XP: 10, Wallet: 5},
			3:  {XP: 25, Wallet: 10},
			7:  {XP: 50, Wallet: 20},
			14: {XP: 100, Wallet: 50},
			30: {XP: 200, Wallet: 100},
		},
		FallbackBracketDay:   30,
		ReferralSignupReward: 10,
		ReferralUnlockReward: 30,
	}
}

// Load reads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Only return error if file exists but couldn't be loaded
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	// Get working directory for resource paths
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	dataDir := getEnvWithDefault("DATA_DIR", filepath.Join(wd, "data"))

	cfg := &Config{
		ServerAddr:  getEnvWithDefault("SERVER_ADDR", ":8080"),
		StorageType: getEnvWithDefault("STORAGE_TYPE", "sqlite"),
		DataDir:     dataDir,
		SQLitePath:  getEnvWithDefault("SQLITE_PATH", filepath.Join(dataDir, "inkwell.db")),
		Environment: getEnvWithDefault("ENVIRONMENT", "development"),
		Economy:     DefaultEconomy(),
	}

	if addr := os.Getenv("ELASTICSEARCH_ADDR"); addr != "" {
		cfg.ArchiveEnabled = true
		cfg.ArchiveAddresses = []string{addr}
	}

	// Economy overrides for alternate deployments
	if price, ok := getEnvInt64("UNLOCK_PRICE"); ok {
		cfg.Economy.UnlockPrice = price
	}
	if amount, ok := getEnvInt64("REFERRAL_SIGNUP_REWARD"); ok {
		cfg.Economy.ReferralSignupReward = amount
	}
	if amount, ok := getEnvInt64("REFERRAL_UNLOCK_REWARD"); ok {
		cfg.Economy.ReferralUnlockReward = amount
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// validate checks if all required configuration is present
func (c *Config) validate() error {
	if c.StorageType != "sqlite" && c.StorageType != "memory" {
		return fmt.Errorf("STORAGE_TYPE must be \"sqlite\" or \"memory\", got %q", c.StorageType)
	}
	if c.Economy.UnlockPrice <= 0 {
		return fmt.Errorf("UNLOCK_PRICE must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// getEnvWithDefault returns environment variable value or default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt64 parses an integer environment variable if present
func getEnvInt64(key string) (int64, bool) {
	value := os.Getenv(key)
	if value == "" {
		return 0, false
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}
