package feed

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/skalibog/tradegate/internal/pipeline"
	"github.com/skalibog/tradegate/pkg/logger"
	"github.com/skalibog/tradegate/pkg/models"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// Entry один рыночный срез из файла воспроизведения
type Entry struct {
	Symbol         string    `yaml:"symbol" validate:"required"`
	Prices         []float64 `yaml:"prices" validate:"dive,gt=0"`
	Volume         float64   `yaml:"volume" validate:"gte=0"`
	Sentiment      string    `yaml:"sentiment"`
	PortfolioValue *float64  `yaml:"portfolio_value" validate:"omitempty,gte=0"`
}

type replayFile struct {
	Snapshots []Entry `yaml:"snapshots" validate:"dive"`
}

// Snapshot возвращает рыночный срез записи
func (e Entry) Snapshot() models.Snapshot {
	prices := make([]float64, len(e.Prices))
	copy(prices, e.Prices)
	return models.Snapshot{
		Prices:    prices,
		Volume:    e.Volume,
		Sentiment: e.Sentiment,
	}
}

// Load читает срезы из YAML-файла
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла срезов: %w", err)
	}

	entries, err := Parse(data)
	if err != nil {
		return nil, err
	}

	logger.Debug("Загружены срезы", zap.String("path", path), zap.Int("count", len(entries)))
	return entries, nil
}

// Parse разбирает содержимое файла воспроизведения
func Parse(data []byte) ([]Entry, error) {
	var file replayFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("ошибка разбора файла срезов: %w", err)
	}

	if err := validator.New().Struct(file); err != nil {
		return nil, fmt.Errorf("некорректный файл срезов: %w", err)
	}

	return file.Snapshots, nil
}

// Requests превращает записи в запросы конвейера.
// Если стоимость портфеля в записи не задана, используется defaultPortfolio.
func Requests(entries []Entry, defaultPortfolio float64) []pipeline.Request {
	requests := make([]pipeline.Request, 0, len(entries))
	for _, e := range entries {
		portfolio := defaultPortfolio
		if e.PortfolioValue != nil {
			portfolio = *e.PortfolioValue
		}
		requests = append(requests, pipeline.Request{
			Symbol:         e.Symbol,
			Snapshot:       e.Snapshot(),
			PortfolioValue: portfolio,
		})
	}
	return requests
}
