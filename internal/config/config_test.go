package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("FITNESS_JWT_SECRET", "secret")
	t.Setenv("FITNESS_DATABASE_URL", "postgres://localhost/fitness")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "Fitness Tracker API", cfg.AppName)
	require.Equal(t, DatabaseDriverPostgres, cfg.DatabaseDriver)
	require.Equal(t, 24*time.Hour, cfg.JWTTTL)
	require.Equal(t, 5*time.Minute, cfg.AnalyticsCacheTTL)
	require.Equal(t, 160, cfg.ChartHeight)
	require.Equal(t, ":8080", cfg.HTTPAddress())
}

func TestLoadReadsOverrides(t *testing.T) {
	t.Setenv("FITNESS_JWT_SECRET", "secret")
	t.Setenv("FITNESS_DATABASE_DRIVER", "SQLite")
	t.Setenv("FITNESS_CHART_HEIGHT", "200")
	t.Setenv("FITNESS_ANALYTICS_CACHE_TTL", "30s")
	t.Setenv("FITNESS_APP_PORT", ":9090")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, DatabaseDriverSQLite, cfg.DatabaseDriver)
	require.Equal(t, 200, cfg.ChartHeight)
	require.Equal(t, 30*time.Second, cfg.AnalyticsCacheTTL)
	require.Equal(t, ":9090", cfg.HTTPAddress())
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("FITNESS_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("FITNESS_JWT_SECRET", "secret")
	t.Setenv("FITNESS_DATABASE_DRIVER", "oracle")

	_, err := Load()
	require.Error(t, err)
}
