package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/skalibog/tradegate/pkg/logger"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// InfluxTokenEnv переменная окружения, переопределяющая токен InfluxDB
const InfluxTokenEnv = "TRADEGATE_INFLUX_TOKEN"

// Config представляет полную конфигурацию приложения
type Config struct {
	Log        logger.Config    `yaml:"log"`
	Strategies StrategiesConfig `yaml:"strategies"`
	Risk       RiskConfig       `yaml:"risk"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Portfolio  PortfolioConfig  `yaml:"portfolio"`
	Storage    StorageConfig    `yaml:"storage"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Tracing    TracingConfig    `yaml:"tracing"`
	UI         UIConfig         `yaml:"ui"`
}

// StrategiesConfig настройки всех стратегий
type StrategiesConfig struct {
	Momentum      MomentumConfig      `yaml:"momentum"`
	MeanReversion MeanReversionConfig `yaml:"mean_reversion"`
	RSI           RSIConfig           `yaml:"rsi"`
	Sentiment     SentimentConfig     `yaml:"sentiment"`
}

// MomentumConfig настройки импульсной стратегии
type MomentumConfig struct {
	Active            bool    `yaml:"active" default:"true"`
	Lookback          int     `yaml:"lookback" default:"5" validate:"gte=1"`
	Threshold         float64 `yaml:"threshold" default:"0.05" validate:"gte=0"`
	MinVolume         float64 `yaml:"min_volume" default:"1000000" validate:"gte=0"`
	Scale             float64 `yaml:"scale" default:"10" validate:"gt=0"`
	MaxConfidence     float64 `yaml:"max_confidence" default:"0.8" validate:"gte=0,lte=1"`
	NeutralConfidence float64 `yaml:"neutral_confidence" default:"0.6" validate:"gte=0,lte=1"`
}

// MeanReversionConfig настройки стратегии возврата к среднему
type MeanReversionConfig struct {
	Active            bool    `yaml:"active" default:"true"`
	Period            int     `yaml:"period" default:"20" validate:"gte=2"`
	Threshold         float64 `yaml:"threshold" default:"0.10" validate:"gte=0"`
	Scale             float64 `yaml:"scale" default:"5" validate:"gt=0"`
	MaxConfidence     float64 `yaml:"max_confidence" default:"0.9" validate:"gte=0,lte=1"`
	NeutralConfidence float64 `yaml:"neutral_confidence" default:"0.5" validate:"gte=0,lte=1"`
}

// RSIConfig настройки стратегии на индексе относительной силы
type RSIConfig struct {
	Active            bool    `yaml:"active" default:"false"`
	Period            int     `yaml:"period" default:"14" validate:"gte=2"`
	Oversold          float64 `yaml:"oversold" default:"30" validate:"gt=0,ltfield=Overbought"`
	Overbought        float64 `yaml:"overbought" default:"70" validate:"lt=100"`
	MaxConfidence     float64 `yaml:"max_confidence" default:"0.85" validate:"gte=0,lte=1"`
	NeutralConfidence float64 `yaml:"neutral_confidence" default:"0.5" validate:"gte=0,lte=1"`
}

// SentimentConfig настройки стратегии по метке настроения рынка
type SentimentConfig struct {
	Active     bool    `yaml:"active" default:"false"`
	Confidence float64 `yaml:"confidence" default:"0.55" validate:"gte=0,lte=1"`
}

// RiskConfig настройки риск-фильтра и расчета размера позиции
type RiskConfig struct {
	MaxPositionFraction float64         `yaml:"max_position_fraction" default:"0.1" validate:"gt=0,lte=1"`
	MinConfidence       float64         `yaml:"min_confidence" default:"0.6" validate:"gte=0,lte=1"`
	MaxOpenPositions    int             `yaml:"max_open_positions" default:"10" validate:"gte=0"`
	Adjustments         RiskAdjustments `yaml:"adjustments"`
}

// RiskAdjustments множители размера позиции по уровню риска
type RiskAdjustments struct {
	Low    float64 `yaml:"low" default:"1.2" validate:"gte=0"`
	Medium float64 `yaml:"medium" default:"1.0" validate:"gte=0"`
	High   float64 `yaml:"high" default:"0.5" validate:"gte=0"`
}

// PipelineConfig настройки конвейера анализа
type PipelineConfig struct {
	Workers int `yaml:"workers" default:"4" validate:"gte=1"`
}

// PortfolioConfig настройки портфеля
type PortfolioConfig struct {
	Value float64 `yaml:"value" default:"100000" validate:"gte=0"`
}

// StorageConfig настройки журнала решений в InfluxDB
type StorageConfig struct {
	Enabled      bool   `yaml:"enabled" default:"false"`
	URL          string `yaml:"url" default:"http://localhost:8086" validate:"required_if=Enabled true"`
	Token        string `yaml:"token"`
	Organization string `yaml:"organization" validate:"required_if=Enabled true"`
	Bucket       string `yaml:"bucket" default:"tradegate" validate:"required_if=Enabled true"`
	MaxRetries   int    `yaml:"max_retries" default:"3" validate:"gte=0"`
}

// MetricsConfig настройки экспорта метрик Prometheus
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"false"`
	Listen  string `yaml:"listen" default:":9102"`
}

// TracingConfig настройки трассировки
type TracingConfig struct {
	Enabled bool `yaml:"enabled" default:"false"`
}

// UIConfig настройки пользовательского интерфейса
type UIConfig struct {
	Interactive bool `yaml:"interactive" default:"true"`
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		// теги default статичны, ошибка здесь означает опечатку в коде
		panic(fmt.Sprintf("ошибка значений по умолчанию: %v", err))
	}
	return &cfg
}

// Load загружает конфигурацию из файла
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("ошибка чтения .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	logger.Debug("Загружена конфигурация", zap.String("path", path), zap.Any("strategies", cfg.Strategies), zap.Any("risk", cfg.Risk))
	return cfg, nil
}

// Parse разбирает YAML поверх значений по умолчанию и проверяет результат
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора файла конфигурации: %w", err)
	}

	if token := os.Getenv(InfluxTokenEnv); token != "" {
		cfg.Storage.Token = token
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет диапазоны значений
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("некорректная конфигурация: %w", err)
	}
	return nil
}
