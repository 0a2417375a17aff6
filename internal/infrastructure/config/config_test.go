package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	originalEnv := map[string]string{
		"TASHEEL_APP_NAME":                os.Getenv("TASHEEL_APP_NAME"),
		"TASHEEL_APP_ENV":                 os.Getenv("TASHEEL_APP_ENV"),
		"TASHEEL_APP_PORT":                os.Getenv("TASHEEL_APP_PORT"),
		"TASHEEL_DATABASE_HOST":           os.Getenv("TASHEEL_DATABASE_HOST"),
		"TASHEEL_DATABASE_PORT":           os.Getenv("TASHEEL_DATABASE_PORT"),
		"TASHEEL_DATABASE_USER":           os.Getenv("TASHEEL_DATABASE_USER"),
		"TASHEEL_DATABASE_PASSWORD":       os.Getenv("TASHEEL_DATABASE_PASSWORD"),
		"TASHEEL_DATABASE_DBNAME":         os.Getenv("TASHEEL_DATABASE_DBNAME"),
		"TASHEEL_DATABASE_SSLMODE":        os.Getenv("TASHEEL_DATABASE_SSLMODE"),
		"TASHEEL_DATABASE_MAX_OPEN_CONNS": os.Getenv("TASHEEL_DATABASE_MAX_OPEN_CONNS"),
		"TASHEEL_DATABASE_MAX_IDLE_CONNS": os.Getenv("TASHEEL_DATABASE_MAX_IDLE_CONNS"),
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

		assert.Equal(t, "tasheel-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "tasheel", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.InDelta(t, 5.0, cfg.Billing.DefaultVATPercentage, 0.001)
	})

	t.Run("loads values from environment variables with TASHEEL prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("TASHEEL_APP_NAME", "test-app")
		os.Setenv("TASHEEL_APP_PORT", "9000")
		os.Setenv("TASHEEL_DATABASE_HOST", "testdb.local")
		os.Setenv("TASHEEL_DATABASE_PORT", "5433")
		os.Setenv("TASHEEL_DATABASE_USER", "testuser")
		os.Setenv("TASHEEL_DATABASE_PASSWORD", "testpass")
		os.Setenv("TASHEEL_DATABASE_DBNAME", "testdb")
		os.Setenv("TASHEEL_DATABASE_SSLMODE", "require")
		os.Setenv("TASHEEL_DATABASE_MAX_OPEN_CONNS", "50")
		os.Setenv("TASHEEL_DATABASE_MAX_IDLE_CONNS", "10")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testuser", cfg.Database.User)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, "testdb", cfg.Database.DBName)
		assert.Equal(t, "require", cfg.Database.SSLMode)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv()
		os.Setenv("TASHEEL_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("TASHEEL_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("zero MaxOpenConns uses default", func(t *testing.T) {
		clearEnv()
		os.Setenv("TASHEEL_DATABASE_MAX_OPEN_CONNS", "0")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	})

	t.Run("requires database password in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("TASHEEL_APP_ENV", "production")
		os.Setenv("TASHEEL_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("rejects disabled SSL in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("TASHEEL_APP_ENV", "production")
		os.Setenv("TASHEEL_DATABASE_PASSWORD", "secure-password")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
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
		assert.Contains(t, dsn, "pass%40word%23123")
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "cache.local", Port: 6380}
	assert.Equal(t, "cache.local:6380", cfg.Addr())
}
