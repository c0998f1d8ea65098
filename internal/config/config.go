// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Exchange describes one upstream venue the acquisition layer talks to.
type Exchange struct {
	Name      string `yaml:"name"`
	Enabled   bool   `yaml:"enabled"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// Throttle tunes the per-exchange request gate.
type Throttle struct {
	MinSpacingMs     int `yaml:"min_spacing_ms"`
	RetryDelayMs     int `yaml:"retry_delay_ms"`
	RequestTimeoutMs int `yaml:"request_timeout_ms"`
}

// Cache sets the quote-cache TTLs and the batch-refresh guard cooldown.
type Cache struct {
	PriceTTLSecs       int `yaml:"price_ttl_secs"`
	FundingTTLSecs     int `yaml:"funding_ttl_secs"`
	RefreshCooldownSec int `yaml:"refresh_cooldown_secs"`
}

// Scan drives the periodic batch evaluation over the supported symbols.
type Scan struct {
	Cron           string `yaml:"cron"`
	BatchSize      int    `yaml:"batch_size"`
	BatchDelaySecs int    `yaml:"batch_delay_secs"`
	RunOnStart     bool   `yaml:"run_on_start"`
}

// History configures the daily historical refresh.
type History struct {
	Cron            string `yaml:"cron"`
	InitAttempts    int    `yaml:"init_attempts"`
	InitBackoffSecs int    `yaml:"init_backoff_secs"`
}

// Directory seeds and refreshes the supported-coin list.
type Directory struct {
	Symbols         []string `yaml:"symbols"`
	RefreshFromWire bool     `yaml:"refresh_from_wire"`
	MaxSymbols      int      `yaml:"max_symbols"`
}

// Weights holds the per-check confidence contributions used by the style
// evaluators. Empirical values; tune here, never in the engine.
type Weights struct {
	TrendAlignment    float64 `yaml:"trend_alignment"`
	RSIExtreme        float64 `yaml:"rsi_extreme"`
	SupportResistance float64 `yaml:"support_resistance"`
	MACDHistogram     float64 `yaml:"macd_histogram"`
	BollingerConfirm  float64 `yaml:"bollinger_confirm"`
	IchimokuConfirm   float64 `yaml:"ichimoku_confirm"`
	Divergence        float64 `yaml:"divergence"`
	VolumeConfirm     float64 `yaml:"volume_confirm"`
}

// Engine groups the fusion-engine knobs.
type Engine struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	MinCandles          int     `yaml:"min_candles"`
	CandleLimit         int     `yaml:"candle_limit"`
	Weights             Weights `yaml:"weights"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App       App        `yaml:"app"`
	Exchanges []Exchange `yaml:"exchanges"`
	Throttle  Throttle   `yaml:"throttle"`
	Cache     Cache      `yaml:"cache"`
	Scan      Scan       `yaml:"scan"`
	History   History    `yaml:"history"`
	Directory Directory  `yaml:"directory"`
	Engine    Engine     `yaml:"engine"`
}

// Load reads a YAML file from disk, hydrates a Config, and applies defaults.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.MetricsAddr == "" {
		c.App.MetricsAddr = ":9102"
	}
	if c.Throttle.MinSpacingMs <= 0 {
		c.Throttle.MinSpacingMs = 500
	}
	if c.Throttle.RetryDelayMs <= 0 {
		c.Throttle.RetryDelayMs = 2000
	}
	if c.Throttle.RequestTimeoutMs <= 0 {
		c.Throttle.RequestTimeoutMs = 10000
	}
	if c.Cache.PriceTTLSecs <= 0 {
		c.Cache.PriceTTLSecs = 30
	}
	if c.Cache.FundingTTLSecs <= 0 {
		c.Cache.FundingTTLSecs = 3600
	}
	if c.Cache.RefreshCooldownSec <= 0 {
		c.Cache.RefreshCooldownSec = 30
	}
	if c.Scan.BatchSize <= 0 {
		c.Scan.BatchSize = 5
	}
	if c.Scan.BatchDelaySecs <= 0 {
		c.Scan.BatchDelaySecs = 2
	}
	if c.Scan.Cron == "" {
		c.Scan.Cron = "@every 15m"
	}
	if c.History.Cron == "" {
		c.History.Cron = "5 0 * * *"
	}
	if c.History.InitAttempts <= 0 {
		c.History.InitAttempts = 10
	}
	if c.History.InitBackoffSecs <= 0 {
		c.History.InitBackoffSecs = 3
	}
	if c.Directory.MaxSymbols <= 0 {
		c.Directory.MaxSymbols = 50
	}
	if c.Engine.ConfidenceThreshold <= 0 {
		c.Engine.ConfidenceThreshold = 60
	}
	if c.Engine.MinCandles <= 0 {
		c.Engine.MinCandles = 50
	}
	if c.Engine.CandleLimit <= 0 {
		c.Engine.CandleLimit = 100
	}
	w := &c.Engine.Weights
	if w.TrendAlignment <= 0 {
		w.TrendAlignment = 30
	}
	if w.RSIExtreme <= 0 {
		w.RSIExtreme = 20
	}
	if w.SupportResistance <= 0 {
		w.SupportResistance = 20
	}
	if w.MACDHistogram <= 0 {
		w.MACDHistogram = 10
	}
	if w.BollingerConfirm <= 0 {
		w.BollingerConfirm = 10
	}
	if w.IchimokuConfirm <= 0 {
		w.IchimokuConfirm = 10
	}
	if w.Divergence <= 0 {
		w.Divergence = 10
	}
	if w.VolumeConfirm <= 0 {
		w.VolumeConfirm = 10
	}
}

// validate fails fast on configurations the dependent components cannot run
// with, including credentials an exchange entry demands but the environment
// lacks.
func (c *Config) validate() error {
	enabled := 0
	for _, ex := range c.Exchanges {
		if !ex.Enabled {
			continue
		}
		enabled++
		if ex.APIKeyEnv != "" && os.Getenv(ex.APIKeyEnv) == "" {
			return fmt.Errorf("exchange %s requires credential %s in the environment", ex.Name, ex.APIKeyEnv)
		}
	}
	if enabled == 0 {
		return fmt.Errorf("no exchanges enabled")
	}
	return nil
}

// PriceTTL returns the price-cache TTL as a duration.
func (c *Cache) PriceTTL() time.Duration { return time.Duration(c.PriceTTLSecs) * time.Second }

// FundingTTL returns the funding-cache TTL as a duration.
func (c *Cache) FundingTTL() time.Duration { return time.Duration(c.FundingTTLSecs) * time.Second }

// RefreshCooldown returns the batch-refresh guard cooldown as a duration.
func (c *Cache) RefreshCooldown() time.Duration {
	return time.Duration(c.RefreshCooldownSec) * time.Second
}
