// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aristath/tradeadvisor/internal/domain"
	"github.com/aristath/tradeadvisor/internal/modules/scoring"
)

// History sources
const (
	HistorySourceAlpaca = "alpaca"
	HistorySourceYahoo  = "yahoo"
)

// Config holds application configuration
type Config struct {
	AlpacaAPIKey    string `yaml:"alpaca_api_key"`
	AlpacaSecretKey string `yaml:"alpaca_secret_key"`
	AlpacaBaseURL   string `yaml:"alpaca_base_url"`
	AlpacaDataFeed  string `yaml:"alpaca_data_feed"` // iex or sip

	HistorySource   string `yaml:"history_source"` // alpaca or yahoo
	HistoryInterval string `yaml:"history_interval"`
	HistorySpan     string `yaml:"history_span"`
	SignalThreshold int    `yaml:"signal_threshold"`

	LogLevel  string `yaml:"log_level"`
	LogPretty bool   `yaml:"log_pretty"`

	DataDir        string `yaml:"data_dir"` // Always absolute after Load
	JournalEnabled bool   `yaml:"journal_enabled"`
	Port           int    `yaml:"port"`

	AdvisorCron    string   `yaml:"advisor_cron"` // Six fields, seconds first
	AdvisorClasses []string `yaml:"advisor_classes"`

	PaperMode        bool   `yaml:"paper_mode"`
	PaperAccountFile string `yaml:"paper_account_file"`
}

// Load reads the optional YAML file at path, then .env and the environment,
// then fills defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Load .env file if it exists
	_ = godotenv.Load()

	cfg.AlpacaAPIKey = getEnv("ALPACA_API_KEY", cfg.AlpacaAPIKey)
	cfg.AlpacaSecretKey = getEnv("ALPACA_SECRET_KEY", cfg.AlpacaSecretKey)
	cfg.AlpacaBaseURL = getEnv("ALPACA_BASE_URL", orDefault(cfg.AlpacaBaseURL, "https://paper-api.alpaca.markets"))
	cfg.AlpacaDataFeed = getEnv("ALPACA_DATA_FEED", orDefault(cfg.AlpacaDataFeed, "iex"))
	cfg.HistorySource = getEnv("HISTORY_SOURCE", orDefault(cfg.HistorySource, HistorySourceAlpaca))
	cfg.HistoryInterval = getEnv("HISTORY_INTERVAL", orDefault(cfg.HistoryInterval, string(domain.DefaultHistoryWindow.Interval)))
	cfg.HistorySpan = getEnv("HISTORY_SPAN", orDefault(cfg.HistorySpan, string(domain.DefaultHistoryWindow.Span)))
	cfg.SignalThreshold = getEnvAsInt("SIGNAL_THRESHOLD", orDefaultInt(cfg.SignalThreshold, scoring.DefaultThreshold))
	cfg.LogLevel = getEnv("LOG_LEVEL", orDefault(cfg.LogLevel, "info"))
	cfg.LogPretty = getEnvAsBool("LOG_PRETTY", cfg.LogPretty)
	cfg.DataDir = getEnv("DATA_DIR", orDefault(cfg.DataDir, "data"))
	cfg.JournalEnabled = getEnvAsBool("JOURNAL_ENABLED", cfg.JournalEnabled)
	cfg.Port = getEnvAsInt("PORT", orDefaultInt(cfg.Port, 8001))
	cfg.AdvisorCron = getEnv("ADVISOR_CRON", orDefault(cfg.AdvisorCron, "0 0 * * * *"))
	cfg.PaperMode = getEnvAsBool("PAPER_MODE", cfg.PaperMode)
	cfg.PaperAccountFile = getEnv("PAPER_ACCOUNT_FILE", orDefault(cfg.PaperAccountFile, "paper_account.yaml"))

	if classes := getEnv("ADVISOR_CLASSES", ""); classes != "" {
		cfg.AdvisorClasses = splitList(classes)
	}
	if len(cfg.AdvisorClasses) == 0 {
		cfg.AdvisorClasses = []string{"stocks", "crypto"}
	}

	absDataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	cfg.DataDir = absDataDir

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every value is usable. Credentials are only
// required outside paper mode.
func (c *Config) Validate() error {
	if !c.PaperMode && (c.AlpacaAPIKey == "" || c.AlpacaSecretKey == "") {
		return fmt.Errorf("ALPACA_API_KEY and ALPACA_SECRET_KEY are required unless PAPER_MODE is set")
	}
	if c.HistorySource != HistorySourceAlpaca && c.HistorySource != HistorySourceYahoo {
		return fmt.Errorf("invalid HISTORY_SOURCE %q: expected %s or %s", c.HistorySource, HistorySourceAlpaca, HistorySourceYahoo)
	}
	if err := c.HistoryWindow().Validate(); err != nil {
		return fmt.Errorf("invalid history window: %w", err)
	}
	if c.SignalThreshold < 1 || c.SignalThreshold > scoring.MaxScore {
		return fmt.Errorf("SIGNAL_THRESHOLD must be between 1 and %d, got %d", scoring.MaxScore, c.SignalThreshold)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if _, err := c.Classes(); err != nil {
		return fmt.Errorf("invalid ADVISOR_CLASSES: %w", err)
	}
	return nil
}

// HistoryWindow returns the configured history lookback
func (c *Config) HistoryWindow() domain.HistoryWindow {
	return domain.HistoryWindow{
		Interval: domain.Interval(c.HistoryInterval),
		Span:     domain.Span(c.HistorySpan),
	}
}

// Classes parses the asset classes scanned by the scheduler
func (c *Config) Classes() ([]domain.AssetClass, error) {
	out := make([]domain.AssetClass, 0, len(c.AdvisorClasses))
	for _, s := range c.AdvisorClasses {
		class, err := domain.ParseAssetClass(s)
		if err != nil {
			return nil, err
		}
		out = append(out, class)
	}
	return out, nil
}

// JournalPath is the SQLite file holding the journal
func (c *Config) JournalPath() string {
	return filepath.Join(c.DataDir, "journal.db")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func orDefaultInt(value, fallback int) int {
	if value == 0 {
		return fallback
	}
	return value
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
