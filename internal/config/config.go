package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIBaseURL    = "https://www.moltbook.com/api/v1"
	DefaultCategory      = "tokenarena"
	DefaultRPCURL        = "https://mainnet.base.org"
	DefaultPrizeAmount   = "100"
	DefaultSchedule      = "@every 1h"
	DefaultExplorerTxURL = "https://basescan.org/tx/%s"
)

// Config holds all application configuration.
type Config struct {
	Moltbook struct {
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
		Category string `yaml:"category"`
	} `yaml:"moltbook"`
	Wallet struct {
		PrivateKey    string        `yaml:"private_key"`
		TokenAddress  string        `yaml:"token_address"`
		RPCURL        string        `yaml:"rpc_url"`
		Confirmations uint64        `yaml:"confirmations"`
		PayoutTimeout time.Duration `yaml:"payout_timeout"`
	} `yaml:"wallet"`
	Arena struct {
		PrizeAmount   string        `yaml:"prize_amount"`
		Window        time.Duration `yaml:"window"`
		WaitStep      time.Duration `yaml:"wait_step"`
		Schedule      string        `yaml:"schedule"`
		RunOnStart    *bool         `yaml:"run_on_start"`
		ExplorerTxURL string        `yaml:"explorer_tx_url"`
	} `yaml:"arena"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	LogLevel string `yaml:"log_level"`
	Proxy    string `yaml:"proxy"`

	prize decimal.Decimal
}

// ConfigError lists every missing or invalid setting found by Validate.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error; everything can come from the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("MOLTBOOK_API_KEY"); v != "" {
		c.Moltbook.APIKey = v
	}
	if v := os.Getenv("MOLTBOOK_API_URL"); v != "" {
		c.Moltbook.BaseURL = v
	}
	if v := os.Getenv("SUBMOLT"); v != "" {
		c.Moltbook.Category = v
	}
	if v := os.Getenv("WALLET_PRIVATE_KEY"); v != "" {
		c.Wallet.PrivateKey = v
	}
	if v := os.Getenv("TOKEN_ADDRESS"); v != "" {
		c.Wallet.TokenAddress = v
	}
	if v := os.Getenv("RPC_URL"); v != "" {
		c.Wallet.RPCURL = v
	}
	if v := os.Getenv("PRIZE_AMOUNT"); v != "" {
		c.Arena.PrizeAmount = v
	}
	if v := os.Getenv("ROUND_SCHEDULE"); v != "" {
		c.Arena.Schedule = v
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Arena.RunOnStart = &b
		}
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
}

func (c *Config) applyDefaults() {
	if c.Moltbook.BaseURL == "" {
		c.Moltbook.BaseURL = DefaultAPIBaseURL
	}
	c.Moltbook.BaseURL = strings.TrimRight(c.Moltbook.BaseURL, "/")
	if c.Moltbook.Category == "" {
		c.Moltbook.Category = DefaultCategory
	}
	if c.Wallet.RPCURL == "" {
		c.Wallet.RPCURL = DefaultRPCURL
	}
	if c.Wallet.Confirmations == 0 {
		c.Wallet.Confirmations = 1
	}
	if c.Wallet.PayoutTimeout == 0 {
		c.Wallet.PayoutTimeout = 10 * time.Minute
	}
	if c.Arena.PrizeAmount == "" {
		c.Arena.PrizeAmount = DefaultPrizeAmount
	}
	if c.Arena.Window == 0 {
		c.Arena.Window = 30 * time.Minute
	}
	if c.Arena.WaitStep == 0 {
		c.Arena.WaitStep = time.Minute
	}
	if c.Arena.Schedule == "" {
		c.Arena.Schedule = DefaultSchedule
	}
	if c.Arena.RunOnStart == nil {
		on := true
		c.Arena.RunOnStart = &on
	}
	if c.Arena.ExplorerTxURL == "" {
		c.Arena.ExplorerTxURL = DefaultExplorerTxURL
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/arena.db"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks that everything a round needs is present and well formed.
// It returns a *ConfigError naming every problem at once.
func (c *Config) Validate() error {
	var problems []string
	if c.Moltbook.APIKey == "" {
		problems = append(problems, "moltbook.api_key (MOLTBOOK_API_KEY) is required")
	}
	if c.Wallet.PrivateKey == "" {
		problems = append(problems, "wallet.private_key (WALLET_PRIVATE_KEY) is required")
	}
	if c.Wallet.TokenAddress == "" {
		problems = append(problems, "wallet.token_address (TOKEN_ADDRESS) is required")
	} else if !common.IsHexAddress(c.Wallet.TokenAddress) {
		problems = append(problems, "wallet.token_address is not a valid address")
	}
	if c.Wallet.RPCURL == "" {
		problems = append(problems, "wallet.rpc_url (RPC_URL) is required")
	}
	prize, err := decimal.NewFromString(c.Arena.PrizeAmount)
	if err != nil || !prize.IsPositive() {
		problems = append(problems, fmt.Sprintf("arena.prize_amount %q must be a positive number", c.Arena.PrizeAmount))
	} else {
		c.prize = prize
	}
	if c.Arena.WaitStep <= 0 || c.Arena.Window <= 0 {
		problems = append(problems, "arena.window and arena.wait_step must be positive")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		problems = append(problems, "telegram.bot_token and telegram.chat_id must be set together")
	}
	if len(problems) > 0 {
		return &ConfigError{Problems: problems}
	}
	return nil
}

// ValidateAPI checks only the settings the platform setup commands need.
func (c *Config) ValidateAPI() error {
	if c.Moltbook.APIKey == "" {
		return &ConfigError{Problems: []string{"moltbook.api_key (MOLTBOOK_API_KEY) is required"}}
	}
	return nil
}

// Prize returns the validated prize amount in human token units.
func (c *Config) Prize() decimal.Decimal {
	return c.prize
}

// ShouldRunOnStart reports whether a round is started immediately at launch.
func (c *Config) ShouldRunOnStart() bool {
	return c.Arena.RunOnStart == nil || *c.Arena.RunOnStart
}
