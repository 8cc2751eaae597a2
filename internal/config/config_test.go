package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"momentum lookback", float64(cfg.Strategies.Momentum.Lookback), 5},
		{"momentum threshold", cfg.Strategies.Momentum.Threshold, 0.05},
		{"momentum min volume", cfg.Strategies.Momentum.MinVolume, 1000000},
		{"momentum max confidence", cfg.Strategies.Momentum.MaxConfidence, 0.8},
		{"momentum neutral confidence", cfg.Strategies.Momentum.NeutralConfidence, 0.6},
		{"mean reversion period", float64(cfg.Strategies.MeanReversion.Period), 20},
		{"mean reversion threshold", cfg.Strategies.MeanReversion.Threshold, 0.10},
		{"mean reversion max confidence", cfg.Strategies.MeanReversion.MaxConfidence, 0.9},
		{"max position fraction", cfg.Risk.MaxPositionFraction, 0.1},
		{"min confidence", cfg.Risk.MinConfidence, 0.6},
		{"max open positions", float64(cfg.Risk.MaxOpenPositions), 10},
		{"low adjustment", cfg.Risk.Adjustments.Low, 1.2},
		{"medium adjustment", cfg.Risk.Adjustments.Medium, 1.0},
		{"high adjustment", cfg.Risk.Adjustments.High, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Fatalf("got %v, expected %v", tt.got, tt.want)
			}
		})
	}

	if !cfg.Strategies.Momentum.Active || !cfg.Strategies.MeanReversion.Active {
		t.Fatalf("momentum and mean reversion should be active by default")
	}
	if cfg.Strategies.RSI.Active || cfg.Strategies.Sentiment.Active {
		t.Fatalf("rsi and sentiment should be inactive by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config is invalid: %v", err)
	}
}

func TestParseOverrides(t *testing.T) {
	data := []byte(`
strategies:
  rsi:
    active: true
    period: 10
risk:
  max_open_positions: 3
  adjustments:
    high: 0.25
pipeline:
  workers: 8
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if !cfg.Strategies.RSI.Active || cfg.Strategies.RSI.Period != 10 {
		t.Fatalf("rsi override not applied: %+v", cfg.Strategies.RSI)
	}
	if cfg.Strategies.RSI.Overbought != 70 {
		t.Fatalf("unset field lost its default: %v", cfg.Strategies.RSI.Overbought)
	}
	if cfg.Risk.MaxOpenPositions != 3 || cfg.Risk.Adjustments.High != 0.25 || cfg.Risk.Adjustments.Low != 1.2 {
		t.Fatalf("risk override not applied: %+v", cfg.Risk)
	}
	if cfg.Pipeline.Workers != 8 {
		t.Fatalf("Workers=%d, expected 8", cfg.Pipeline.Workers)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"confidence above one", "risk:\n  min_confidence: 1.5\n"},
		{"zero fraction", "risk:\n  max_position_fraction: 0\n"},
		{"zero lookback", "strategies:\n  momentum:\n    lookback: 0\n"},
		{"oversold above overbought", "strategies:\n  rsi:\n    oversold: 80\n"},
		{"unknown log level", "log:\n  level: verbose\n"},
		{"storage without organization", "storage:\n  enabled: true\n"},
		{"zero workers", "pipeline:\n  workers: 0\n"},
		{"broken yaml", "risk: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestParseTokenFromEnv(t *testing.T) {
	t.Setenv(InfluxTokenEnv, "secret")

	cfg, err := Parse([]byte("storage:\n  token: from-file\n"))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if cfg.Storage.Token != "secret" {
		t.Fatalf("Token=%q, expected env override", cfg.Storage.Token)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("portfolio:\n  value: 2500\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Portfolio.Value != 2500 {
		t.Fatalf("Portfolio.Value=%v, expected 2500", cfg.Portfolio.Value)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
