package cmd

import (
	"context"
	"errors"
	"flag"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Address string `env:"CMD_TEST_ADDRESS" envDefault:"127.0.0.1:8080"`
	Mode    string `env:"CMD_TEST_MODE" envDefault:"server"`
}

func TestParseConfigReadsEnvAndFlags(t *testing.T) {
	t.Setenv("CMD_TEST_ADDRESS", "env:9000")
	t.Setenv("CMD_TEST_MODE", "env-mode")

	cfg := testConfig{}
	require.NoError(t, ParseConfig(&cfg))

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.StringVar(&cfg.Address, "address", cfg.Address, "address")
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "mode")
	require.NoError(t, ParseArgs(fs, []string{"-address", "flag:9001"}))

	require.Equal(t, "flag:9001", cfg.Address)
	require.Equal(t, "env-mode", cfg.Mode)
}

func TestParseConfigFromArgsUsesDefaults(t *testing.T) {
	cfg := testConfig{}
	fs := flag.NewFlagSet("defaults", flag.ContinueOnError)
	require.NoError(t, ParseConfigFromArgs(&cfg, fs, nil))
	require.Equal(t, "127.0.0.1:8080", cfg.Address)
	require.Equal(t, "server", cfg.Mode)
}

func TestParseRejectsNilTargets(t *testing.T) {
	require.Error(t, ParseArgs(nil, []string{}))
	require.Error(t, ParseConfig[testConfig](nil))
}

func TestRunWithTelemetryRejectsMissingInputs(t *testing.T) {
	require.Error(t, RunWithTelemetry(context.Background(), " ", func(context.Context) error { return nil }))
	require.Error(t, RunWithTelemetry(context.Background(), ServiceMarketplace, nil))
}

func TestRunWithTelemetryReturnsRunError(t *testing.T) {
	t.Setenv("MARKETPLACE_OTEL_ENDPOINT", "")
	boom := errors.New("boom")
	err := RunWithTelemetry(context.Background(), ServiceMarketplace, func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)
}
