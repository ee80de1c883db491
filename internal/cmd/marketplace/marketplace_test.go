package marketplace

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseConfigDefaults(t *testing.T) {
	t.Setenv("MARKETPLACE_TOKEN_KEY", "0123456789abcdef")
	cfg, err := ParseConfig(flag.NewFlagSet("marketplace", flag.ContinueOnError), nil)
	require.NoError(t, err)
	require.Equal(t, 8095, cfg.Port)
	require.Equal(t, "cumulative", cfg.ReputationEngine)
	require.Equal(t, "info", cfg.LogLevel)
	require.False(t, cfg.JournalDisabled)
}

func TestParseConfigFlagsOverrideEnv(t *testing.T) {
	t.Setenv("MARKETPLACE_TOKEN_KEY", "0123456789abcdef")
	t.Setenv("MARKETPLACE_PORT", "9000")
	t.Setenv("MARKETPLACE_REPUTATION_ENGINE", "beta")
	cfg, err := ParseConfig(flag.NewFlagSet("marketplace", flag.ContinueOnError), []string{"-port", "9100", "-in-memory"})
	require.NoError(t, err)
	require.Equal(t, 9100, cfg.Port)
	require.Equal(t, "beta", cfg.ReputationEngine)
	require.True(t, cfg.JournalDisabled)
}

func TestParseConfigRequiresTokenKey(t *testing.T) {
	t.Setenv("MARKETPLACE_TOKEN_KEY", "")
	_, err := ParseConfig(flag.NewFlagSet("marketplace", flag.ContinueOnError), nil)
	require.Error(t, err)
}

func TestParseConfigRejectsBadEnv(t *testing.T) {
	t.Setenv("MARKETPLACE_PORT", "not-a-port")
	_, err := ParseConfig(flag.NewFlagSet("marketplace", flag.ContinueOnError), nil)
	require.Error(t, err)
}
