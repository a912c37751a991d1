package config

import (
	"fmt"
	"os"
	"time"

	"github.com/lisek75/uma-food-chatbot/pkg/breaker"
	pkgconfig "github.com/lisek75/uma-food-chatbot/pkg/config"
	"github.com/lisek75/uma-food-chatbot/pkg/database"
)

// Supported ledger database drivers.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config holds all configuration for the chatbot backend.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"CHATBOT_HTTP_PORT" envDefault:"8000"`

	// Ledger database: postgres or mysql
	DBDriver string `env:"DB_DRIVER" envDefault:"postgres"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"uma"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"uma_secret"`
	PostgresDB   string `env:"CHATBOT_DB_NAME" envDefault:"uma_chatbot"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// MySQL (legacy pandeyji_eatery schema)
	MySQLHost string `env:"MYSQL_HOST" envDefault:"localhost"`
	MySQLPort int    `env:"MYSQL_PORT" envDefault:"3306"`
	MySQLUser string `env:"MYSQL_USER" envDefault:"root"`
	MySQLPass string `env:"MYSQL_PASSWORD" envDefault:""`
	MySQLDB   string `env:"MYSQL_DB" envDefault:"pandeyji_eatery"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Redis catalog cache
	RedisAddr           string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword       string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB             int    `env:"REDIS_DB" envDefault:"0"`
	CatalogCacheEnabled bool   `env:"CATALOG_CACHE_ENABLED" envDefault:"false"`
	CatalogCacheTTLSecs int    `env:"CATALOG_CACHE_TTL_SECONDS" envDefault:"300"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Session lifecycle
	SessionTimeoutMins       int `env:"SESSION_TIMEOUT_MINUTES" envDefault:"30"`
	SessionSweepIntervalMins int `env:"SESSION_SWEEP_INTERVAL_MINUTES" envDefault:"15"`

	// Circuit breaker around catalog lookups
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`
}

// Load reads configuration from environment variables, after loading the
// dotenv file named by ENV_FILE (".env" when unset) if it exists.
func Load() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := pkgconfig.LoadDotEnv(envFile); err != nil {
		return nil, fmt.Errorf("load chatbot config: %w", err)
	}

	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load chatbot config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	switch c.DBDriver {
	case DriverPostgres:
		if c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_HOST is required")
		}
		if c.PostgresUser == "" {
			return fmt.Errorf("POSTGRES_USER is required")
		}
	case DriverMySQL:
		if c.MySQLHost == "" {
			return fmt.Errorf("MYSQL_HOST is required")
		}
		if c.MySQLUser == "" {
			return fmt.Errorf("MYSQL_USER is required")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMySQL, c.DBDriver)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) must not exceed DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	if c.CatalogCacheEnabled && c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required when CATALOG_CACHE_ENABLED is set")
	}
	if c.CatalogCacheTTLSecs < 1 {
		return fmt.Errorf("CATALOG_CACHE_TTL_SECONDS must be positive, got %d", c.CatalogCacheTTLSecs)
	}
	if c.SessionTimeoutMins < 1 {
		return fmt.Errorf("SESSION_TIMEOUT_MINUTES must be positive, got %d", c.SessionTimeoutMins)
	}
	if c.SessionSweepIntervalMins < 1 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL_MINUTES must be positive, got %d", c.SessionSweepIntervalMins)
	}
	if c.CBFailureRatio <= 0 || c.CBFailureRatio > 1.0 {
		return fmt.Errorf("CB_FAILURE_RATIO must be in (0.0, 1.0], got %f", c.CBFailureRatio)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// PostgresConfig returns the pool configuration for the PostgreSQL ledger.
func (c *Config) PostgresConfig() database.PostgresConfig {
	return database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}

// MySQLConfig returns the handle configuration for the MySQL ledger.
func (c *Config) MySQLConfig() database.MySQLConfig {
	return database.MySQLConfig{
		Host:            c.MySQLHost,
		Port:            c.MySQLPort,
		User:            c.MySQLUser,
		Password:        c.MySQLPass,
		DBName:          c.MySQLDB,
		MaxOpenConns:    int(c.DBMaxConns),
		MaxIdleConns:    int(c.DBMinConns),
		ConnMaxLifetime: time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		ConnMaxIdleTime: time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}

// RedisConfig returns the catalog cache connection settings.
func (c *Config) RedisConfig() database.RedisConfig {
	return database.RedisConfig{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}

// BreakerConfig returns the circuit breaker settings for catalog lookups.
func (c *Config) BreakerConfig(name string) breaker.Config {
	return breaker.Config{
		Name:         name,
		MaxRequests:  c.CBMaxRequests,
		Interval:     time.Duration(c.CBInterval) * time.Second,
		Timeout:      time.Duration(c.CBTimeout) * time.Second,
		FailureRatio: c.CBFailureRatio,
		MinRequests:  c.CBMinRequests,
	}
}

// SessionTimeout is the idle period after which the reaper evicts a session.
func (c *Config) SessionTimeout() time.Duration {
	return time.Duration(c.SessionTimeoutMins) * time.Minute
}

// SweepInterval is the period between reaper sweeps.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SessionSweepIntervalMins) * time.Minute
}

// CatalogCacheTTL is the expiry of cached catalog entries.
func (c *Config) CatalogCacheTTL() time.Duration {
	return time.Duration(c.CatalogCacheTTLSecs) * time.Second
}
