package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	App      AppConfig
	Oracle   OracleConfig
	Feed     FeedConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port string
}

// AppConfig holds application-specific settings
type AppConfig struct {
	JWTSecret      string
	AdminWallet    string
	TreasuryWallet string
	// RegistryIdentity is the caller identity the duel registry presents to
	// the settlement engine when initializing portfolios.
	RegistryIdentity string
}

// OracleConfig holds price oracle settings
type OracleConfig struct {
	OwnerWallet       string
	MinUpdateInterval time.Duration
}

// FeedConfig holds external marketplace price feed settings
type FeedConfig struct {
	Enabled      bool
	BaseURL      string
	Collections  string // comma-separated collection ids to poll
	PollInterval time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "flipduel"),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		App: AppConfig{
			JWTSecret:        getEnv("JWT_SECRET", ""),
			AdminWallet:      getEnv("ADMIN_WALLET", ""),
			TreasuryWallet:   getEnv("TREASURY_WALLET", "platform-treasury"),
			RegistryIdentity: getEnv("REGISTRY_IDENTITY", "duel-registry"),
		},
		Oracle: OracleConfig{
			OwnerWallet:       getEnv("ORACLE_OWNER_WALLET", ""),
			MinUpdateInterval: getEnvDuration("ORACLE_MIN_UPDATE_INTERVAL", 30*time.Second),
		},
		Feed: FeedConfig{
			Enabled:      getEnvBool("PRICE_FEED_ENABLED", false),
			BaseURL:      getEnv("PRICE_FEED_URL", ""),
			Collections:  getEnv("PRICE_FEED_COLLECTIONS", ""),
			PollInterval: getEnvDuration("PRICE_FEED_INTERVAL", 60*time.Second),
		},
	}

	// Validate required fields
	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if config.Feed.Enabled && config.Feed.BaseURL == "" {
		return nil, fmt.Errorf("PRICE_FEED_URL is required when the price feed is enabled")
	}

	return config, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
