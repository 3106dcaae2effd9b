package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	ledgererrors "github.com/ducminhle1904/prop-ledger/internal/errors"
	"github.com/ducminhle1904/prop-ledger/internal/logger"
	"github.com/ducminhle1904/prop-ledger/internal/trading"
)

// Defaults applied when neither the environment nor the account profile says otherwise
const (
	DefaultAccountSize            = 100000.0
	DefaultRiskPerTrade           = 1.0
	DefaultDailyLossLimit         = 5.0
	DefaultConsecutiveLossesLimit = 3
)

type Config struct {
	// Account is the default account key when a command gets none
	Account string

	Storage struct {
		DataDir      string
		BackupOnSave bool
	}

	Logging struct {
		Dir   string
		Level string
	}

	Monitoring struct {
		MetricsPort int
	}

	Notifications struct {
		TelegramToken  string
		TelegramChatID string
	}

	Trading struct {
		Timezone               string
		DefaultAccountSize     float64
		RiskPerTrade           float64
		DailyLossLimit         float64
		ConsecutiveLossesLimit int
	}
}

func Load() *Config {
	cfg := &Config{
		Account: getEnv("LEDGER_ACCOUNT", ""),
	}

	cfg.Storage.DataDir = getEnv("LEDGER_DATA_DIR", "data")
	cfg.Storage.BackupOnSave = getEnvBool("BACKUP_ON_SAVE", false)

	cfg.Logging.Dir = getEnv("LOG_DIR", "logs")
	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")

	cfg.Monitoring.MetricsPort = getEnvInt("METRICS_PORT", 9102)

	cfg.Notifications.TelegramToken = getEnv("TELEGRAM_TOKEN", "")
	cfg.Notifications.TelegramChatID = getEnv("TELEGRAM_CHAT_ID", "")

	cfg.Trading.Timezone = getEnv("LEDGER_TIMEZONE", "UTC")
	cfg.Trading.DefaultAccountSize = getEnvFloat("DEFAULT_ACCOUNT_SIZE", DefaultAccountSize)
	cfg.Trading.RiskPerTrade = getEnvFloat("DEFAULT_RISK_PER_TRADE", DefaultRiskPerTrade)
	cfg.Trading.DailyLossLimit = getEnvFloat("DAILY_LOSS_LIMIT", DefaultDailyLossLimit)
	cfg.Trading.ConsecutiveLossesLimit = getEnvInt("CONSECUTIVE_LOSSES_LIMIT", DefaultConsecutiveLossesLimit)

	return cfg
}

// Validate checks the loaded values once so call sites can trust them
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Storage.DataDir) == "" {
		problems = append(problems, "LEDGER_DATA_DIR must not be empty")
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		problems = append(problems, "LOG_LEVEL: "+err.Error())
	}
	if c.Monitoring.MetricsPort <= 0 || c.Monitoring.MetricsPort > 65535 {
		problems = append(problems, fmt.Sprintf("METRICS_PORT must be between 1 and 65535, got: %d", c.Monitoring.MetricsPort))
	}
	if c.Trading.DefaultAccountSize <= 0 {
		problems = append(problems, fmt.Sprintf("DEFAULT_ACCOUNT_SIZE must be positive, got: %.2f", c.Trading.DefaultAccountSize))
	}
	if c.Trading.RiskPerTrade <= 0 || c.Trading.RiskPerTrade > 100 {
		problems = append(problems, fmt.Sprintf("DEFAULT_RISK_PER_TRADE must be between 0 and 100, got: %.2f", c.Trading.RiskPerTrade))
	}
	if c.Trading.DailyLossLimit <= 0 || c.Trading.DailyLossLimit > 100 {
		problems = append(problems, fmt.Sprintf("DAILY_LOSS_LIMIT must be between 0 and 100, got: %.2f", c.Trading.DailyLossLimit))
	}
	if c.Trading.ConsecutiveLossesLimit <= 0 {
		problems = append(problems, fmt.Sprintf("CONSECUTIVE_LOSSES_LIMIT must be positive, got: %d", c.Trading.ConsecutiveLossesLimit))
	}
	if _, err := time.LoadLocation(c.Trading.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("LEDGER_TIMEZONE %q is not a known time zone", c.Trading.Timezone))
	}

	if len(problems) > 0 {
		return ledgererrors.NewConfigurationError("config", "validate", strings.Join(problems, "; "))
	}
	return nil
}

// LogLevel returns the minimum level written to account log files
func (c *Config) LogLevel() logger.LogLevel {
	level, err := logger.ParseLevel(c.Logging.Level)
	if err != nil {
		return logger.LogLevelInfo
	}
	return level
}

// Location returns the time zone trading days are counted in
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Trading.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DefaultRiskSettings returns the risk plan applied to new accounts
func (c *Config) DefaultRiskSettings() trading.RiskSettings {
	return trading.RiskSettings{
		RiskPerTrade:           c.Trading.RiskPerTrade,
		DailyLossLimit:         c.Trading.DailyLossLimit,
		ConsecutiveLossesLimit: c.Trading.ConsecutiveLossesLimit,
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return val
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return val
	}
	return defaultVal
}
