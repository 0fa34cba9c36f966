package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "test",
			Password: "test",
			Database: "test_db",
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: 6379,
		},
		Ledger: LedgerConfig{
			DuplicateWindow:       30 * time.Second,
			CashOutFeeBasisPoints: 150,
			RequestTTL:            168 * time.Hour,
		},
		Worker: WorkerConfig{
			BatchSize: 10,
		},
	}
}

func TestConfig_Validate_Success(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestConfig_Validate_InvalidServerPort(t *testing.T) {
	tests := []struct {
		name string
		port int
	}{
		{"port too low", 0},
		{"port negative", -1},
		{"port too high", 99999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Server.Port = tt.port

			err := cfg.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), "server.port")
		})
	}
}

func TestConfig_Validate_InvalidTimeouts(t *testing.T) {
	cfg := validConfig()
	cfg.Server.ReadTimeout = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read_timeout")

	cfg = validConfig()
	cfg.Server.WriteTimeout = 0
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write_timeout")
}

func TestConfig_Validate_MissingDatabaseHost(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Host = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.host")
}

func TestConfig_Validate_InvalidLedgerPolicy(t *testing.T) {
	cfg := validConfig()
	cfg.Ledger.DuplicateWindow = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger.duplicate_window")

	cfg = validConfig()
	cfg.Ledger.CashOutFeeBasisPoints = -1
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger.cash_out_fee_bps")

	cfg = validConfig()
	cfg.Ledger.RequestTTL = 0
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger.request_ttl")
}

func TestConfig_Validate_ShortJWTSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.JWTSecret = "too-short"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestConfig_Validate_MultipleErrors(t *testing.T) {
	cfg := &Config{}

	err := cfg.Validate()
	require.Error(t, err)

	errStr := err.Error()
	assert.Contains(t, errStr, "server.port")
	assert.Contains(t, errStr, "database.host")
	assert.Contains(t, errStr, "redis.port")
	assert.Contains(t, errStr, "ledger.duplicate_window")
	assert.Contains(t, errStr, "worker.batch_size")
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.example.com",
		Port:     5432,
		User:     "app_user",
		Password: "secret",
		Database: "paydesh_db",
		SSLMode:  "require",
	}
	assert.Equal(t,
		"host=db.example.com port=5432 user=app_user password=secret dbname=paydesh_db sslmode=require",
		cfg.DatabaseDSN(),
	)
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "redis.example.com", Port: 6379}
	assert.Equal(t, "redis.example.com:6379", cfg.RedisAddr())
}
