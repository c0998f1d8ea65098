package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "config.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.App.Name != "price-agent-test" {
		t.Fatalf("unexpected App.Name: %s", cfg.App.Name)
	}
	if len(cfg.Exchanges) != 3 {
		t.Fatalf("expected 3 exchanges, got %d", len(cfg.Exchanges))
	}
	if !cfg.Exchanges[0].Enabled || cfg.Exchanges[0].Name != "binance" {
		t.Fatalf("unexpected first exchange: %+v", cfg.Exchanges[0])
	}
	if cfg.Cache.PriceTTLSecs != 45 {
		t.Fatalf("unexpected price TTL: %d", cfg.Cache.PriceTTLSecs)
	}
	if cfg.Scan.BatchSize != 5 || cfg.Scan.BatchDelaySecs != 2 {
		t.Fatalf("unexpected scan config: %+v", cfg.Scan)
	}
	if cfg.Engine.ConfidenceThreshold != 65 {
		t.Fatalf("unexpected confidence threshold: %.0f", cfg.Engine.ConfidenceThreshold)
	}
	// Explicit weight kept, unset weights defaulted.
	if cfg.Engine.Weights.TrendAlignment != 30 {
		t.Fatalf("unexpected trend weight: %.0f", cfg.Engine.Weights.TrendAlignment)
	}
	if cfg.Engine.Weights.RSIExtreme != 20 {
		t.Fatalf("expected defaulted rsi weight 20, got %.0f", cfg.Engine.Weights.RSIExtreme)
	}
	if cfg.Throttle.MinSpacingMs != 500 {
		t.Fatalf("unexpected throttle spacing: %d", cfg.Throttle.MinSpacingMs)
	}
	if cfg.Engine.MinCandles != 50 || cfg.Engine.CandleLimit != 100 {
		t.Fatalf("unexpected engine candle defaults: %+v", cfg.Engine)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadMissingCredential(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
exchanges:
  - name: binance
    enabled: true
    api_key_env: PRICE_AGENT_TEST_MISSING_KEY
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected fail-fast on missing credential")
	}
}

func TestLoadNoExchanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("app:\n  name: empty\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error when no exchange is enabled")
	}
}
