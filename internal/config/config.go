package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the complete engine configuration, loaded from the
// environment. Call Validate before using it; validation failures are
// fatal at startup.
type Config struct {
	Environment string
	LogDir      string

	Trading TradingConfig
	Risk    RiskConfig

	Bybit  BybitConfig
	Alpaca AlpacaConfig

	Monitoring struct {
		MetricsPort int
	}

	Notifications struct {
		TelegramToken  string
		TelegramChatID string
	}
}

// TradingConfig holds the trading loop settings.
type TradingConfig struct {
	EnableTrading   bool
	Symbols         []string // e.g. "BTC/USDT,AAPL"
	BarTimeframe    string   // kline interval for signal analysis
	TradeInterval   time.Duration
	MonitorInterval time.Duration
	Indicators      []string // indicator subset, empty = all
}

// RiskConfig holds the risk policy thresholds consumed by the core.
type RiskConfig struct {
	RiskPerTradePct         float64
	DefaultStopLossPct      float64
	TrailingStopPct         float64
	MaxPositionSizePct      float64
	MaxPortfolioExposurePct float64
	DailyLossLimitPct       float64
	MaxConsecutiveLosses    int
	MinOrderSizeUsd         float64
	MaxOpenPositions        int
}

// BybitConfig holds Bybit venue credentials.
type BybitConfig struct {
	APIKey    string
	APISecret string
	Testnet   bool
	Demo      bool
}

// AlpacaConfig holds Alpaca venue credentials.
type AlpacaConfig struct {
	APIKey    string
	APISecret string
	BaseURL   string
	DataURL   string
}

// Load reads the configuration from environment variables, applying
// defaults for everything except venue credentials.
func Load() *Config {
	cfg := &Config{
		Environment: getEnv("ENV", "development"),
		LogDir:      getEnv("LOG_DIR", "logs"),

		Trading: TradingConfig{
			EnableTrading:   getEnvBool("ENABLE_TRADING", false),
			Symbols:         getEnvList("TRADING_SYMBOLS", "BTC/USDT"),
			BarTimeframe:    getEnv("BAR_TIMEFRAME", "1h"),
			TradeInterval:   getEnvDuration("TRADE_INTERVAL", time.Hour),
			MonitorInterval: getEnvDuration("MONITOR_INTERVAL", time.Minute),
			Indicators:      getEnvList("INDICATORS", ""),
		},

		Risk: RiskConfig{
			RiskPerTradePct:         getEnvFloat("RISK_PER_TRADE_PCT", 2.0),
			DefaultStopLossPct:      getEnvFloat("DEFAULT_STOP_LOSS_PCT", 2.0),
			TrailingStopPct:         getEnvFloat("TRAILING_STOP_PCT", 2.0),
			MaxPositionSizePct:      getEnvFloat("MAX_POSITION_SIZE_PCT", 5.0),
			MaxPortfolioExposurePct: getEnvFloat("MAX_PORTFOLIO_EXPOSURE_PCT", 80.0),
			DailyLossLimitPct:       getEnvFloat("DAILY_LOSS_LIMIT_PCT", 10.0),
			MaxConsecutiveLosses:    getEnvInt("MAX_CONSECUTIVE_LOSSES", 5),
			MinOrderSizeUsd:         getEnvFloat("MIN_ORDER_SIZE_USD", 10.0),
			MaxOpenPositions:        getEnvInt("MAX_OPEN_POSITIONS", 20),
		},

		Bybit: BybitConfig{
			APIKey:    getEnv("BYBIT_API_KEY", ""),
			APISecret: getEnv("BYBIT_API_SECRET", ""),
			Testnet:   getEnvBool("BYBIT_TESTNET", true),
			Demo:      getEnvBool("BYBIT_DEMO", false),
		},

		Alpaca: AlpacaConfig{
			APIKey:    getEnv("ALPACA_API_KEY", ""),
			APISecret: getEnv("ALPACA_API_SECRET", ""),
			BaseURL:   getEnv("ALPACA_BASE_URL", "https://paper-api.alpaca.markets"),
			DataURL:   getEnv("ALPACA_DATA_URL", ""),
		},
	}

	cfg.Monitoring.MetricsPort = getEnvInt("METRICS_PORT", 8080)
	cfg.Notifications.TelegramToken = getEnv("TELEGRAM_BOT_TOKEN", "")
	cfg.Notifications.TelegramChatID = getEnv("TELEGRAM_CHAT_ID", "")

	return cfg
}

// Validate checks the configuration for fatal setup mistakes. It returns
// the first problem found.
func (c *Config) Validate() error {
	if len(c.Trading.Symbols) == 0 {
		return fmt.Errorf("config: no trading symbols configured")
	}
	if c.Bybit.APIKey == "" && c.Alpaca.APIKey == "" {
		return fmt.Errorf("config: no venue credentials configured (set BYBIT_API_KEY and/or ALPACA_API_KEY)")
	}
	if (c.Bybit.APIKey == "") != (c.Bybit.APISecret == "") {
		return fmt.Errorf("config: BYBIT_API_KEY and BYBIT_API_SECRET must be set together")
	}
	if (c.Alpaca.APIKey == "") != (c.Alpaca.APISecret == "") {
		return fmt.Errorf("config: ALPACA_API_KEY and ALPACA_API_SECRET must be set together")
	}

	r := c.Risk
	for _, p := range []struct {
		name  string
		value float64
	}{
		{"RISK_PER_TRADE_PCT", r.RiskPerTradePct},
		{"DEFAULT_STOP_LOSS_PCT", r.DefaultStopLossPct},
		{"TRAILING_STOP_PCT", r.TrailingStopPct},
		{"MAX_POSITION_SIZE_PCT", r.MaxPositionSizePct},
		{"MAX_PORTFOLIO_EXPOSURE_PCT", r.MaxPortfolioExposurePct},
		{"DAILY_LOSS_LIMIT_PCT", r.DailyLossLimitPct},
	} {
		if p.value <= 0 || p.value > 100 {
			return fmt.Errorf("config: %s must be in (0, 100], got %v", p.name, p.value)
		}
	}
	if r.MaxPositionSizePct > r.MaxPortfolioExposurePct {
		return fmt.Errorf("config: MAX_POSITION_SIZE_PCT (%v) exceeds MAX_PORTFOLIO_EXPOSURE_PCT (%v)",
			r.MaxPositionSizePct, r.MaxPortfolioExposurePct)
	}
	if r.MaxConsecutiveLosses < 1 {
		return fmt.Errorf("config: MAX_CONSECUTIVE_LOSSES must be at least 1")
	}
	if r.MinOrderSizeUsd <= 0 {
		return fmt.Errorf("config: MIN_ORDER_SIZE_USD must be positive")
	}
	if r.MaxOpenPositions < 1 {
		return fmt.Errorf("config: MAX_OPEN_POSITIONS must be at least 1")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvList(key, defaultVal string) []string {
	raw := getEnv(key, defaultVal)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
