package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"MOLTBOOK_API_KEY", "MOLTBOOK_API_URL", "SUBMOLT", "WALLET_PRIVATE_KEY",
	"TOKEN_ADDRESS", "RPC_URL", "PRIZE_AMOUNT", "ROUND_SCHEDULE", "RUN_ON_START",
	"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "SQLITE_PATH", "LOG_LEVEL", "HTTPS_PROXY",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultAPIBaseURL, cfg.Moltbook.BaseURL)
	assert.Equal(t, DefaultCategory, cfg.Moltbook.Category)
	assert.Equal(t, DefaultRPCURL, cfg.Wallet.RPCURL)
	assert.Equal(t, DefaultPrizeAmount, cfg.Arena.PrizeAmount)
	assert.Equal(t, 30*time.Minute, cfg.Arena.Window)
	assert.Equal(t, time.Minute, cfg.Arena.WaitStep)
	assert.Equal(t, DefaultSchedule, cfg.Arena.Schedule)
	assert.Equal(t, uint64(1), cfg.Wallet.Confirmations)
	assert.True(t, cfg.ShouldRunOnStart())
}

func TestLoadParsesYAMLAndEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := strings.TrimSpace(`
moltbook:
  base_url: https://example.test/api/v1/
  api_key: from-file
  category: battles
wallet:
  token_address: "0x1111111111111111111111111111111111111111"
  confirmations: 3
arena:
  prize_amount: "250.5"
  window: 10m
  wait_step: 30s
  run_on_start: false
`)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	t.Setenv("MOLTBOOK_API_KEY", "from-env")
	t.Setenv("WALLET_PRIVATE_KEY", "deadbeef")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.test/api/v1", cfg.Moltbook.BaseURL)
	assert.Equal(t, "from-env", cfg.Moltbook.APIKey)
	assert.Equal(t, "battles", cfg.Moltbook.Category)
	assert.Equal(t, uint64(3), cfg.Wallet.Confirmations)
	assert.Equal(t, 10*time.Minute, cfg.Arena.Window)
	assert.Equal(t, 30*time.Second, cfg.Arena.WaitStep)
	assert.False(t, cfg.ShouldRunOnStart())

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "250.5", cfg.Prize().String())
}

func TestValidateListsEveryMissingKey(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)

	var cerr *ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Len(t, cerr.Problems, 3)
	assert.Contains(t, err.Error(), "MOLTBOOK_API_KEY")
	assert.Contains(t, err.Error(), "WALLET_PRIVATE_KEY")
	assert.Contains(t, err.Error(), "TOKEN_ADDRESS")
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad token address", func(c *Config) { c.Wallet.TokenAddress = "0x123" }, "token_address"},
		{"zero prize", func(c *Config) { c.Arena.PrizeAmount = "0" }, "prize_amount"},
		{"garbage prize", func(c *Config) { c.Arena.PrizeAmount = "lots" }, "prize_amount"},
		{"telegram half set", func(c *Config) { c.Telegram.BotToken = "tok" }, "telegram"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
			require.NoError(t, err)
			cfg.Moltbook.APIKey = "key"
			cfg.Wallet.PrivateKey = "pk"
			cfg.Wallet.TokenAddress = "0x1111111111111111111111111111111111111111"
			tt.mutate(cfg)

			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateAPIOnlyNeedsKey(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	require.Error(t, cfg.ValidateAPI())

	cfg.Moltbook.APIKey = "key"
	assert.NoError(t, cfg.ValidateAPI())
}
