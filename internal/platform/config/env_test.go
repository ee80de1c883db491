package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type envTestConfig struct {
	Port   int    `env:"PORT" envDefault:"123"`
	Engine string `env:"ENGINE" envDefault:"cumulative"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig
	require.NoError(t, ParseEnv(&cfg))
	require.Equal(t, 123, cfg.Port)
	require.Equal(t, "cumulative", cfg.Engine)
}

func TestParseEnvWithPrefixReadsPrefixedNames(t *testing.T) {
	t.Setenv("MARKETPLACE_TEST_PORT", "9000")
	t.Setenv("MARKETPLACE_TEST_ENGINE", "beta")

	var cfg envTestConfig
	require.NoError(t, ParseEnvWithPrefix(&cfg, "MARKETPLACE_TEST_"))
	require.Equal(t, 9000, cfg.Port)
	require.Equal(t, "beta", cfg.Engine)
}

func TestParseEnvError(t *testing.T) {
	t.Setenv("MARKETPLACE_TEST_PORT", "not-an-int")

	var cfg envTestConfig
	err := ParseEnvWithPrefix(&cfg, "MARKETPLACE_TEST_")
	require.ErrorContains(t, err, "parse env:")
}
