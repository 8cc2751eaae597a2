package strategy

import (
	"fmt"
	"strings"

	"github.com/skalibog/tradegate/internal/config"
	"github.com/skalibog/tradegate/pkg/models"
)

// SentimentName имя стратегии по метке настроения
const SentimentName = "sentiment"

// Sentiment переводит внешнюю метку настроения рынка в голос
type Sentiment struct {
	Toggle
	config config.SentimentConfig
}

// NewSentiment создает стратегию по метке настроения
func NewSentiment(cfg config.SentimentConfig) *Sentiment {
	s := &Sentiment{config: cfg}
	s.SetActive(cfg.Active)
	return s
}

func (s *Sentiment) Name() string { return SentimentName }

// Evaluate читает Snapshot.Sentiment. Пустая или неизвестная метка дает hold/0/high.
func (s *Sentiment) Evaluate(snapshot models.Snapshot) models.Signal {
	label := strings.ToLower(strings.TrimSpace(snapshot.Sentiment))

	switch label {
	case "bullish", "positive":
		return models.Signal{
			Strategy:   SentimentName,
			Direction:  models.Buy,
			Confidence: s.config.Confidence,
			Risk:       models.RiskHigh,
			Rationale:  fmt.Sprintf("sentiment: %s", label),
		}
	case "bearish", "negative":
		return models.Signal{
			Strategy:   SentimentName,
			Direction:  models.Sell,
			Confidence: s.config.Confidence,
			Risk:       models.RiskHigh,
			Rationale:  fmt.Sprintf("sentiment: %s", label),
		}
	case "neutral":
		return models.Signal{
			Strategy:   SentimentName,
			Direction:  models.Hold,
			Confidence: s.config.Confidence,
			Risk:       models.RiskLow,
			Rationale:  "sentiment: neutral",
		}
	case "":
		return neutral(SentimentName, "no sentiment label")
	default:
		return neutral(SentimentName, fmt.Sprintf("unknown sentiment label %q", label))
	}
}
