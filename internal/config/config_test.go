package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setEnvs sets multiple env vars for the duration of the test.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

// isolate points ENV_FILE at a missing file so a developer's .env never leaks
// into the defaults under test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.HTTPPort)
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, "uma_chatbot", cfg.PostgresDB)
	assert.Equal(t, "pandeyji_eatery", cfg.MySQLDB)
	assert.Equal(t, 30*time.Minute, cfg.SessionTimeout())
	assert.Equal(t, 15*time.Minute, cfg.SweepInterval())
	assert.Equal(t, 5*time.Minute, cfg.CatalogCacheTTL())
	assert.False(t, cfg.KafkaEnabled)
	assert.False(t, cfg.CatalogCacheEnabled)
}

func TestLoad_Overrides(t *testing.T) {
	isolate(t)
	setEnvs(t, map[string]string{
		"CHATBOT_HTTP_PORT":              "9090",
		"DB_DRIVER":                      "mysql",
		"MYSQL_HOST":                     "db",
		"SESSION_TIMEOUT_MINUTES":        "10",
		"SESSION_SWEEP_INTERVAL_MINUTES": "1",
		"KAFKA_ENABLED":                  "true",
		"KAFKA_BROKERS":                  "k1:9092,k2:9092",
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, DriverMySQL, cfg.DBDriver)
	assert.Equal(t, "db", cfg.MySQLHost)
	assert.Equal(t, 10*time.Minute, cfg.SessionTimeout())
	assert.Equal(t, time.Minute, cfg.SweepInterval())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatbot.env")
	require.NoError(t, os.WriteFile(path, []byte("CHATBOT_HTTP_PORT=8123\n"), 0o600))
	t.Setenv("ENV_FILE", path)
	// t.Setenv restores the variable afterwards; godotenv sets it directly.
	t.Setenv("CHATBOT_HTTP_PORT", "")
	require.NoError(t, os.Unsetenv("CHATBOT_HTTP_PORT"))

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8123, cfg.HTTPPort)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		envs    map[string]string
		wantErr string
	}{
		{"port too high", map[string]string{"CHATBOT_HTTP_PORT": "70000"}, "invalid HTTP port"},
		{"unknown driver", map[string]string{"DB_DRIVER": "sqlite"}, "DB_DRIVER must be"},
		{"min exceeds max", map[string]string{"DB_MIN_CONNS": "20", "DB_MAX_CONNS": "5"}, "DB_MIN_CONNS"},
		{"zero timeout", map[string]string{"SESSION_TIMEOUT_MINUTES": "0"}, "SESSION_TIMEOUT_MINUTES"},
		{"negative sweep", map[string]string{"SESSION_SWEEP_INTERVAL_MINUTES": "-1"}, "SESSION_SWEEP_INTERVAL_MINUTES"},
		{"cache ttl", map[string]string{"CATALOG_CACHE_TTL_SECONDS": "0"}, "CATALOG_CACHE_TTL_SECONDS"},
		{"failure ratio", map[string]string{"CB_FAILURE_RATIO": "1.5"}, "CB_FAILURE_RATIO"},
		{"sample rate", map[string]string{"OTEL_SAMPLE_RATE": "2"}, "OTEL_SAMPLE_RATE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			setEnvs(t, tt.envs)

			cfg, err := Load()

			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MalformedNumber(t *testing.T) {
	isolate(t)
	t.Setenv("CHATBOT_HTTP_PORT", "eighty")

	cfg, err := Load()

	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestConfig_DerivedSettings(t *testing.T) {
	isolate(t)
	setEnvs(t, map[string]string{
		"DB_MAX_CONNS":       "8",
		"DB_MIN_CONNS":       "3",
		"CB_TIMEOUT_SECONDS": "12",
		"CB_MIN_REQUESTS":    "4",
		"REDIS_ADDR":         "cache:6379",
	})

	cfg, err := Load()
	require.NoError(t, err)

	pg := cfg.PostgresConfig()
	assert.Equal(t, int32(8), pg.MaxConns)
	assert.Equal(t, int32(3), pg.MinConns)
	assert.Equal(t, time.Hour, pg.MaxConnLifetime)

	my := cfg.MySQLConfig()
	assert.Equal(t, 8, my.MaxOpenConns)
	assert.Equal(t, 3, my.MaxIdleConns)

	cb := cfg.BreakerConfig("catalog")
	assert.Equal(t, "catalog", cb.Name)
	assert.Equal(t, 12*time.Second, cb.Timeout)
	assert.Equal(t, uint32(4), cb.MinRequests)

	assert.Equal(t, "cache:6379", cfg.RedisConfig().Addr)
}
