package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	LedgerStorePostgres = "postgres"
	LedgerStoreMongo    = "mongo"

	BlobStoreMemory = "memory"
	BlobStoreGridFS = "gridfs"
)

type Config struct {
	Port                  string        `mapstructure:"PORT"`
	Env                   string        `mapstructure:"ENV"`
	DatabaseURL           string        `mapstructure:"DATABASE_URL"`
	DBMaxConns            int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns            int32         `mapstructure:"DB_MIN_CONNS"`
	LedgerStore           string        `mapstructure:"LEDGER_STORE"`
	MongoURL              string        `mapstructure:"MONGO_URL"`
	MongoDatabase         string        `mapstructure:"MONGO_DATABASE"`
	MongoTransactions     bool          `mapstructure:"MONGO_TRANSACTIONS"`
	BlobStore             string        `mapstructure:"BLOB_STORE"`
	CORSOrigins           []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS          float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst        int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout        time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	BodyLimit             string        `mapstructure:"BODY_LIMIT"`
	StockLowThreshold     int           `mapstructure:"STOCK_LOW_THRESHOLD"`
	StockExpiryWindowDays int           `mapstructure:"STOCK_EXPIRY_WINDOW_DAYS"`
	UpcomingVisitDays     int           `mapstructure:"UPCOMING_VISIT_DAYS"`
	ConflictRetries       int           `mapstructure:"CONFLICT_RETRIES"`
	MigrationsDir         string        `mapstructure:"MIGRATIONS_DIR"`
}

var keys = []string{
	"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"LEDGER_STORE", "MONGO_URL", "MONGO_DATABASE", "MONGO_TRANSACTIONS", "BLOB_STORE",
	"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "REQUEST_TIMEOUT",
	"BODY_LIMIT", "STOCK_LOW_THRESHOLD", "STOCK_EXPIRY_WINDOW_DAYS",
	"UPCOMING_VISIT_DAYS", "CONFLICT_RETRIES", "MIGRATIONS_DIR",
}

func Load() (*Config, error) {
	// .env is optional; values already in the environment win.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("LEDGER_STORE", LedgerStorePostgres)
	v.SetDefault("MONGO_DATABASE", "cosmetology")
	v.SetDefault("MONGO_TRANSACTIONS", false)
	v.SetDefault("BLOB_STORE", BlobStoreMemory)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("BODY_LIMIT", "30M")
	v.SetDefault("STOCK_LOW_THRESHOLD", 10)
	v.SetDefault("STOCK_EXPIRY_WINDOW_DAYS", 30)
	v.SetDefault("UPCOMING_VISIT_DAYS", 7)
	v.SetDefault("CONFLICT_RETRIES", 3)
	v.SetDefault("MIGRATIONS_DIR", "migrations")

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// The decode hook splits on commas without trimming.
	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	cfg.LedgerStore = strings.ToLower(cfg.LedgerStore)
	cfg.BlobStore = strings.ToLower(cfg.BlobStore)

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// NeedsMongo reports whether any configured store is backed by MongoDB.
func (c *Config) NeedsMongo() bool {
	return c.LedgerStore == LedgerStoreMongo || c.BlobStore == BlobStoreGridFS
}

// Validate checks that the configuration is consistent before the server starts.
func (c *Config) Validate() error {
	switch c.LedgerStore {
	case LedgerStorePostgres, LedgerStoreMongo:
	default:
		return fmt.Errorf("LEDGER_STORE must be %q or %q, got %q", LedgerStorePostgres, LedgerStoreMongo, c.LedgerStore)
	}
	switch c.BlobStore {
	case BlobStoreMemory, BlobStoreGridFS:
	default:
		return fmt.Errorf("BLOB_STORE must be %q or %q, got %q", BlobStoreMemory, BlobStoreGridFS, c.BlobStore)
	}
	if c.NeedsMongo() && c.MongoURL == "" {
		return fmt.Errorf("MONGO_URL is required when LEDGER_STORE=%s and BLOB_STORE=%s", c.LedgerStore, c.BlobStore)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) must not exceed DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.StockLowThreshold < 0 {
		return fmt.Errorf("STOCK_LOW_THRESHOLD must not be negative")
	}
	if c.StockExpiryWindowDays < 0 {
		return fmt.Errorf("STOCK_EXPIRY_WINDOW_DAYS must not be negative")
	}
	if c.UpcomingVisitDays < 0 {
		return fmt.Errorf("UPCOMING_VISIT_DAYS must not be negative")
	}
	if c.ConflictRetries < 1 {
		return fmt.Errorf("CONFLICT_RETRIES must be at least 1, got %d", c.ConflictRetries)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	return nil
}
