package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("CMC_API_KEY", "key")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "sqlite", cfg.DBDriver)
	require.Equal(t, 10*time.Second, cfg.QuoteTimeout)
	require.Equal(t, 30, cfg.QuoteRatePerMin)
	require.Equal(t, "0 * * * *", cfg.RecordCron)
	require.Equal(t, 2*time.Minute, cfg.FireTimeout)
	require.Equal(t, "127.0.0.1", cfg.DBHost)
	require.Equal(t, 5432, cfg.DBPort)
	require.Equal(t, "bot_db", cfg.DBName)

	loc, err := cfg.Location()
	require.NoError(t, err)
	require.Equal(t, time.Local, loc)
}

func TestLoad_PostgresOverrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("CMC_API_KEY", "key")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6432")
	t.Setenv("DB_PASS", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "postgres", cfg.DBDriver)
	require.Equal(t, "db.internal", cfg.DBHost)
	require.Equal(t, 6432, cfg.DBPort)
	require.Equal(t, "secret", cfg.DBPass)
}

func TestLoad_MissingToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "placeholder")
	require.NoError(t, os.Unsetenv("BOT_TOKEN"))
	t.Setenv("CMC_API_KEY", "key")

	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Config{
		DBDriver:             "sqlite",
		ScheduleTZ:           "UTC",
		QuoteTimeout:         time.Second,
		QuoteRatePerMin:      1,
		FireTimeout:          time.Minute,
		MaxConcurrentUpdates: 1,
	}
	require.NoError(t, base.Validate())

	bad := base
	bad.DBDriver = "mysql"
	require.Error(t, bad.Validate())

	bad = base
	bad.ScheduleTZ = "Mars/Olympus"
	require.Error(t, bad.Validate())

	bad = base
	bad.QuoteTimeout = 0
	require.Error(t, bad.Validate())

	bad = base
	bad.FireTimeout = 0
	require.Error(t, bad.Validate())
}
