package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"ADSYNC_APP_NAME":                os.Getenv("ADSYNC_APP_NAME"),
		"ADSYNC_APP_ENV":                 os.Getenv("ADSYNC_APP_ENV"),
		"ADSYNC_APP_PORT":                os.Getenv("ADSYNC_APP_PORT"),
		"ADSYNC_DATABASE_HOST":           os.Getenv("ADSYNC_DATABASE_HOST"),
		"ADSYNC_DATABASE_PORT":           os.Getenv("ADSYNC_DATABASE_PORT"),
		"ADSYNC_DATABASE_USER":           os.Getenv("ADSYNC_DATABASE_USER"),
		"ADSYNC_DATABASE_PASSWORD":       os.Getenv("ADSYNC_DATABASE_PASSWORD"),
		"ADSYNC_DATABASE_DBNAME":         os.Getenv("ADSYNC_DATABASE_DBNAME"),
		"ADSYNC_DATABASE_SSLMODE":        os.Getenv("ADSYNC_DATABASE_SSLMODE"),
		"ADSYNC_DATABASE_MAX_OPEN_CONNS": os.Getenv("ADSYNC_DATABASE_MAX_OPEN_CONNS"),
		"ADSYNC_DATABASE_MAX_IDLE_CONNS": os.Getenv("ADSYNC_DATABASE_MAX_IDLE_CONNS"),
		"ADSYNC_SYNC_MAX_RETRIES":        os.Getenv("ADSYNC_SYNC_MAX_RETRIES"),
		"ADSYNC_SYNC_RETRY_INTERVAL":     os.Getenv("ADSYNC_SYNC_RETRY_INTERVAL"),
		"ADSYNC_BACKOFF_JITTER_FACTOR":   os.Getenv("ADSYNC_BACKOFF_JITTER_FACTOR"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "adsync-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "adsync", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 3, cfg.Sync.MaxRetries)
		assert.Equal(t, 30*time.Second, cfg.Sync.RetryInterval)
		assert.Equal(t, 4, cfg.Sync.RetryWorkers)
		assert.Equal(t, 5*time.Minute, cfg.Sync.PollInterval)
		assert.Equal(t, 5, cfg.Breaker.FailureThreshold)
		assert.Equal(t, 1*time.Second, cfg.Backoff.BaseDelay)
		assert.Equal(t, 60*time.Second, cfg.Backoff.MaxDelay)
		assert.Equal(t, 2.0, cfg.Backoff.Multiplier)
		assert.Equal(t, 0.2, cfg.Backoff.JitterFactor)
	})

	t.Run("loads values from environment variables with ADSYNC prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("ADSYNC_APP_NAME", "test-app")
		os.Setenv("ADSYNC_APP_PORT", "9000")
		os.Setenv("ADSYNC_DATABASE_HOST", "testdb.local")
		os.Setenv("ADSYNC_DATABASE_PORT", "5433")
		os.Setenv("ADSYNC_SYNC_MAX_RETRIES", "5")
		os.Setenv("ADSYNC_SYNC_RETRY_INTERVAL", "1m")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, 5, cfg.Sync.MaxRetries)
		assert.Equal(t, time.Minute, cfg.Sync.RetryInterval)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv()
		os.Setenv("ADSYNC_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("ADSYNC_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("zero MaxOpenConns uses default", func(t *testing.T) {
		clearEnv()
		os.Setenv("ADSYNC_DATABASE_MAX_OPEN_CONNS", "0")

		cfg, err := Load()
		require.NoError(t, err)
		// 0 is treated as "not set", so default (25) is used
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	})

	t.Run("validates jitter factor range", func(t *testing.T) {
		clearEnv()
		os.Setenv("ADSYNC_BACKOFF_JITTER_FACTOR", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jitter_factor")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	originalEnv := map[string]string{
		"ADSYNC_APP_ENV":                     os.Getenv("ADSYNC_APP_ENV"),
		"ADSYNC_DATABASE_PASSWORD":           os.Getenv("ADSYNC_DATABASE_PASSWORD"),
		"ADSYNC_DATABASE_SSLMODE":            os.Getenv("ADSYNC_DATABASE_SSLMODE"),
		"ADSYNC_PLATFORMS_REDDIT_ENABLED":    os.Getenv("ADSYNC_PLATFORMS_REDDIT_ENABLED"),
		"ADSYNC_PLATFORMS_REDDIT_IS_SANDBOX": os.Getenv("ADSYNC_PLATFORMS_REDDIT_IS_SANDBOX"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	setValidProductionBase := func() {
		os.Setenv("ADSYNC_APP_ENV", "production")
		os.Setenv("ADSYNC_DATABASE_PASSWORD", "secure-password")
		os.Setenv("ADSYNC_DATABASE_SSLMODE", "require")
	}

	t.Run("requires database.password in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("ADSYNC_APP_ENV", "production")
		os.Setenv("ADSYNC_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("ADSYNC_APP_ENV", "production")
		os.Setenv("ADSYNC_DATABASE_PASSWORD", "secure-password")
		os.Setenv("ADSYNC_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("rejects reddit sandbox in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("ADSYNC_PLATFORMS_REDDIT_ENABLED", "true")
		os.Setenv("ADSYNC_PLATFORMS_REDDIT_IS_SANDBOX", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "is_sandbox must be false in production")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost")
		assert.Contains(t, dsn, "5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		// URL-encoded password should be in the DSN
		assert.Contains(t, dsn, "pass%40word%23123")
	})

	t.Run("handles empty password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.NotEmpty(t, dsn)
	})
}
