package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"FlipSentinel/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token" validate:"required"`
		ChatID   string `yaml:"chat_id" validate:"required"`
	} `yaml:"telegram"`
	DataSource struct {
		BaseURL             string  `yaml:"base_url" validate:"required,url"`
		UserAgent           string  `yaml:"user_agent" validate:"required"`
		RateLimit           float64 `yaml:"rate_limit" validate:"gt=0"`
		HistoryStep         string  `yaml:"history_step" validate:"oneof=5m 1h 6h 24h"`
		BackfillConcurrency int     `yaml:"backfill_concurrency" validate:"min=1,max=32"`
	} `yaml:"data_source"`
	Schedule struct {
		LatestCron string `yaml:"latest_cron" validate:"required"`
		VolumeCron string `yaml:"volume_cron" validate:"required"`
		ReportCron string `yaml:"report_cron" validate:"required"`
	} `yaml:"schedule"`
	Fund struct {
		Budget    int64  `yaml:"budget" validate:"gt=0"`
		StateFile string `yaml:"state_file" validate:"required"`
	} `yaml:"fund"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Analysis struct {
		Window        int `yaml:"window" validate:"min=1"`
		LookbackHours int `yaml:"lookback_hours" validate:"min=1"`
		TopN          int `yaml:"top_n" validate:"min=1,max=50"`
		model.Filters `yaml:",inline"`
	} `yaml:"analysis"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies .env and environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	// A missing .env is normal outside development.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("WIKI_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("WIKI_USER_AGENT"); v != "" {
		cfg.DataSource.UserAgent = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("FLIP_BUDGET"); v != "" {
		budget, err := strconv.ParseInt(strings.ReplaceAll(v, "_", ""), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse FLIP_BUDGET: %w", err)
		}
		cfg.Fund.Budget = budget
	}
	if v := os.Getenv("CRON_LATEST"); v != "" {
		cfg.Schedule.LatestCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}

	// Defaults
	if cfg.DataSource.BaseURL == "" {
		cfg.DataSource.BaseURL = "https://prices.runescape.wiki/api/v1/osrs"
	}
	if cfg.DataSource.UserAgent == "" {
		cfg.DataSource.UserAgent = "FlipSentinel/1.0 (flip opportunity scanner)"
	}
	if cfg.DataSource.RateLimit == 0 {
		cfg.DataSource.RateLimit = 2
	}
	if cfg.DataSource.HistoryStep == "" {
		cfg.DataSource.HistoryStep = "5m"
	}
	if cfg.DataSource.BackfillConcurrency == 0 {
		cfg.DataSource.BackfillConcurrency = 4
	}
	if cfg.Schedule.LatestCron == "" {
		cfg.Schedule.LatestCron = "0 */5 * * * *"
	}
	if cfg.Schedule.VolumeCron == "" {
		cfg.Schedule.VolumeCron = "0 0 * * * *"
	}
	if cfg.Schedule.ReportCron == "" {
		cfg.Schedule.ReportCron = "0 0 18 * * *"
	}
	if cfg.Fund.Budget == 0 {
		cfg.Fund.Budget = 10_000_000
	}
	if cfg.Fund.StateFile == "" {
		cfg.Fund.StateFile = "data/bankroll.json"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/flip_sentinel.db"
	}
	if cfg.Analysis.Window == 0 {
		cfg.Analysis.Window = 10
	}
	if cfg.Analysis.LookbackHours == 0 {
		cfg.Analysis.LookbackHours = 24
	}
	if cfg.Analysis.TopN == 0 {
		cfg.Analysis.TopN = 10
	}

	return cfg, nil
}

// Validate checks that all required fields are set and in range.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
