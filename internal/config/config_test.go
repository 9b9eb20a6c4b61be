package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAPIFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/soundcheck")
	t.Setenv("SUPABASE_URL", "https://proj.supabase.co/")
	t.Setenv("SUPABASE_ANON_KEY", "anon")
	t.Setenv("PORT", "9090")
	t.Setenv("SOUNDCHECK_SALES_TICK_EVERY", "30s")
	t.Setenv("SOUNDCHECK_STARTUP_SEED_WORLD", "false")

	cfg, err := LoadAPIFromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "https://proj.supabase.co", cfg.SupabaseURL)
	assert.Equal(t, 30*time.Second, cfg.SalesTickEvery)
	assert.Equal(t, 100, cfg.LeaderboardLimit)
	assert.False(t, cfg.StartupSeedWorld)
}

func TestLoadAPIFromEnvMissingDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SUPABASE_URL", "https://proj.supabase.co")
	t.Setenv("SUPABASE_ANON_KEY", "anon")

	_, err := LoadAPIFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("SOUNDCHECK_SALES_TICK_EVERY", "not-a-duration")
	assert.Equal(t, 10*time.Minute, envDurationDefault("SOUNDCHECK_SALES_TICK_EVERY", 10*time.Minute))

	t.Setenv("SOUNDCHECK_LEADERBOARD_LIMIT", "25")
	assert.Equal(t, 25, envIntDefault("SOUNDCHECK_LEADERBOARD_LIMIT", 100))

	assert.Equal(t, "fallback", envDefault("SOUNDCHECK_UNSET_KEY", "fallback"))
	assert.True(t, envBoolDefault("SOUNDCHECK_UNSET_KEY", true))
}
