package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"market-settlement/internal/models"
	"market-settlement/internal/settlement"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	App        AppConfig
	Settlement SettlementConfig
	Solana     SolanaConfig
	Kafka      KafkaConfig
	Redis      RedisConfig
	Jobs       JobsConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver   string // postgres or sqlite
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	Path     string // sqlite file
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port           string
	MetricsPort    string
	AllowedOrigins []string
	RateLimit      float64 // requests per second per client on mutating routes
	RateBurst      int
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Env         string
	ServiceName string
	JWTSecret   string
	JWTTTL      time.Duration
}

// SettlementConfig seeds the global parameter snapshot on first migration
type SettlementConfig struct {
	Authority                string
	GovernanceWallet         string
	PlatformFeeBps           uint16
	CreatorFeeBps            uint16
	MinBet                   uint64
	MaxBet                   uint64
	MaxMarketSize            uint64
	MinDurationSeconds       int64
	MaxDurationSeconds       int64
	StaleMarketThresholdDays int
}

// SolanaConfig holds RPC and vault settings for deposits and withdrawals
type SolanaConfig struct {
	RPCURL         string
	VaultAddress   string
	VaultSecretKey string
}

// KafkaConfig holds audit event publishing settings
type KafkaConfig struct {
	Brokers     []string
	TopicPrefix string
}

// RedisConfig holds odds cache settings
type RedisConfig struct {
	Addr     string
	OddsTTL  time.Duration
	Disabled bool
}

// JobsConfig holds cron schedules (six fields, seconds first)
type JobsConfig struct {
	StaleMarketSpec         string
	EventRelaySpec          string
	WithdrawalReconcileSpec string
	RelayBatchSize          int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "market_settlement"),
			Path:     getEnv("DB_PATH", "settlement.db"),
		},
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			MetricsPort:    getEnv("METRICS_PORT", "9090"),
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
			RateLimit:      getEnvFloat("RATE_LIMIT_RPS", 5),
			RateBurst:      getEnvInt("RATE_LIMIT_BURST", 10),
		},
		App: AppConfig{
			Env:         getEnv("APP_ENV", "local"),
			ServiceName: getEnv("SERVICE_NAME", "market-settlement"),
			JWTSecret:   getEnv("JWT_SECRET", ""),
			JWTTTL:      getEnvDuration("JWT_TTL", 24*time.Hour),
		},
		Settlement: SettlementConfig{
			Authority:                getEnv("PLATFORM_AUTHORITY", ""),
			GovernanceWallet:         getEnv("GOVERNANCE_WALLET", ""),
			PlatformFeeBps:           uint16(getEnvUint("PLATFORM_FEE_BPS", 200)),
			CreatorFeeBps:            uint16(getEnvUint("CREATOR_FEE_BPS", 100)),
			MinBet:                   getEnvUint("MIN_BET_LAMPORTS", 10_000_000),
			MaxBet:                   getEnvUint("MAX_BET_LAMPORTS", 100_000_000_000),
			MaxMarketSize:            getEnvUint("MAX_MARKET_SIZE_LAMPORTS", 1_000_000_000_000),
			MinDurationSeconds:       int64(getEnvInt("MIN_MARKET_DURATION_SECONDS", 3600)),
			MaxDurationSeconds:       int64(getEnvInt("MAX_MARKET_DURATION_SECONDS", 31_536_000)),
			StaleMarketThresholdDays: getEnvInt("STALE_MARKET_THRESHOLD_DAYS", 30),
		},
		Solana: SolanaConfig{
			RPCURL:         getEnv("SOLANA_RPC_URL", "https://api.devnet.solana.com"),
			VaultAddress:   getEnv("VAULT_ADDRESS", ""),
			VaultSecretKey: getEnv("VAULT_SECRET_KEY", ""),
		},
		Kafka: KafkaConfig{
			Brokers:     splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			TopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", "settlement"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			OddsTTL:  getEnvDuration("REDIS_ODDS_TTL", 10*time.Minute),
			Disabled: getEnv("REDIS_DISABLED", "false") == "true",
		},
		Jobs: JobsConfig{
			StaleMarketSpec:         getEnv("STALE_MARKET_CRON", "0 0 0 * * *"),
			EventRelaySpec:          getEnv("EVENT_RELAY_CRON", "*/5 * * * * *"),
			WithdrawalReconcileSpec: getEnv("WITHDRAWAL_RECONCILE_CRON", "*/30 * * * * *"),
			RelayBatchSize:          getEnvInt("EVENT_RELAY_BATCH", 200),
		},
	}

	// Validate required fields
	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if config.Settlement.Authority == "" {
		return nil, fmt.Errorf("PLATFORM_AUTHORITY is required")
	}

	if config.Settlement.MaxMarketSize > settlement.MaxStoredAmount {
		return nil, fmt.Errorf("MAX_MARKET_SIZE_LAMPORTS exceeds %d", settlement.MaxStoredAmount)
	}

	if config.Database.Driver != "postgres" && config.Database.Driver != "sqlite" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", config.Database.Driver)
	}

	return config, nil
}

// Parameters builds the initial parameter snapshot with every feature enabled
func (s SettlementConfig) Parameters() *models.GlobalParameters {
	return &models.GlobalParameters{
		Authority:                s.Authority,
		PlatformFeeBps:           s.PlatformFeeBps,
		CreatorFeeBps:            s.CreatorFeeBps,
		MinBet:                   s.MinBet,
		MaxBet:                   s.MaxBet,
		MaxMarketSize:            s.MaxMarketSize,
		MinDurationSeconds:       s.MinDurationSeconds,
		MaxDurationSeconds:       s.MaxDurationSeconds,
		StaleMarketThresholdDays: s.StaleMarketThresholdDays,
		MarketCreationEnabled:    true,
		BettingEnabled:           true,
		ResolutionEnabled:        true,
	}
}

// GetDSN returns the database connection string for the configured driver
func (c *Config) GetDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.Path
	}
	return c.dsn(c.Database.DBName)
}

// GetAdminDSN returns a PostgreSQL connection string to the maintenance database
func (c *Config) GetAdminDSN() string {
	return c.dsn("postgres")
}

func (c *Config) dsn(dbName string) string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		dbName,
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

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvUint(key string, defaultValue uint64) uint64 {
	value, err := strconv.ParseUint(getEnv(key, ""), 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
