package config_test

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/iAnanich/scrapy-ntk/internal/config"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoad_Defaults(t *testing.T) {
	resetViper(t)

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, config.DefaultPageSize, cfg.Shub.PageSize)
	require.Equal(t, config.DefaultRequestTimeout, cfg.Shub.Timeout)
	require.Equal(t, config.DefaultServerAddress, cfg.Server.Address)
	require.Equal(t, config.DefaultWatchSchedule, cfg.Watch.Schedule)
}

func TestLoad_FromViper(t *testing.T) {
	resetViper(t)
	viper.Set("shub.api_key", "key")
	viper.Set("shub.page_size", 25)
	viper.Set("fetch.max_exclude_matches", 3)
	viper.Set("fetch.targets", []map[string]any{
		{"project_id": 7, "spider_id": 3},
	})

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "key", cfg.Shub.APIKey)
	require.Equal(t, 25, cfg.Shub.PageSize)
	require.Equal(t, 3, cfg.Fetch.MaxExcludeMatches)
	require.Len(t, cfg.Fetch.Targets, 1)
	require.Equal(t, 7, cfg.Fetch.Targets[0].ProjectID)
}

func TestLoad_RejectsBadTargets(t *testing.T) {
	resetViper(t)
	viper.Set("fetch.targets", []map[string]any{
		{"project_id": 0, "spider_id": 3},
	})

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoad_RejectsNegativeLimits(t *testing.T) {
	resetViper(t)
	viper.Set("fetch.max_fetched_jobs", -1)

	_, err := config.Load()
	require.Error(t, err)
}

func TestRequireAPIKey(t *testing.T) {
	resetViper(t)

	cfg, err := config.Load()
	require.NoError(t, err)
	require.ErrorIs(t, cfg.RequireAPIKey(), config.ErrMissingAPIKey)

	cfg.Shub.APIKey = "key"
	require.NoError(t, cfg.RequireAPIKey())
}
