package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var validConfigJSON = `{
    "rpc_endpoint": "https://api.mainnet-beta.solana.com",
    "poll_interval_ms": 5000,
    "slippage_tolerance": 0.01,
    "max_iterations": 5,
    "debug_logging": true
}`

func setupTestConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(setupTestConfig(t, validConfigJSON))
	require.NoError(t, err)

	assert.Equal(t, "https://api.mainnet-beta.solana.com", cfg.RPCEndpoint)
	assert.Equal(t, 5000, cfg.PollIntervalMs)
	assert.Equal(t, 0.01, cfg.SlippageTolerance)
	assert.Equal(t, 5, cfg.MaxIterations)
	assert.True(t, cfg.DebugLogging)
	// Defaults fill the unset fields.
	assert.Equal(t, DefaultMaxSamples, cfg.MaxSamples)
	assert.Equal(t, DefaultLogFile, cfg.LogFile)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(setupTestConfig(t, `{"rpc_endpoint": "https://rpc.example.com"}`))
	require.NoError(t, err)

	assert.Equal(t, DefaultPollIntervalMs, cfg.PollIntervalMs)
	assert.Equal(t, DefaultSlippageTolerance, cfg.SlippageTolerance)
	assert.Equal(t, DefaultMaxIterations, cfg.MaxIterations)
}

func TestLoadConfigMissingEndpoint(t *testing.T) {
	_, err := LoadConfig(setupTestConfig(t, `{"poll_interval_ms": 1000}`))
	assert.Error(t, err)
}

func TestLoadConfigInvalidValues(t *testing.T) {
	cases := map[string]string{
		"bad scheme":         `{"rpc_endpoint": "ftp://rpc.example.com"}`,
		"zero poll interval": `{"rpc_endpoint": "https://rpc.example.com", "poll_interval_ms": 0}`,
		"bad slippage":       `{"rpc_endpoint": "https://rpc.example.com", "slippage_tolerance": 1.5}`,
		"zero iterations":    `{"rpc_endpoint": "https://rpc.example.com", "max_iterations": 0}`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(setupTestConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("ORCA_CLIENT_RPC_ENDPOINT", "https://override.example.com")

	cfg, err := LoadConfig(setupTestConfig(t, validConfigJSON))
	require.NoError(t, err)
	assert.Equal(t, "https://override.example.com", cfg.RPCEndpoint)
}
