package strategy

import (
	"fmt"
	"math"

	"github.com/skalibog/tradegate/internal/config"
	"github.com/skalibog/tradegate/pkg/models"
)

// MomentumName имя импульсной стратегии
const MomentumName = "momentum"

// Momentum следует за изменением цены на окне Lookback
type Momentum struct {
	Toggle
	config config.MomentumConfig
}

// NewMomentum создает импульсную стратегию
func NewMomentum(cfg config.MomentumConfig) *Momentum {
	if cfg.Lookback < 1 {
		cfg.Lookback = 1
	}
	m := &Momentum{config: cfg}
	m.SetActive(cfg.Active)
	return m
}

func (m *Momentum) Name() string { return MomentumName }

// Evaluate сравнивает последнюю цену с ценой Lookback точек назад.
// Рост требует подтверждения объемом, падение нет.
func (m *Momentum) Evaluate(snapshot models.Snapshot) models.Signal {
	prices := snapshot.Prices
	if len(prices) < m.config.Lookback {
		return insufficient(MomentumName, len(prices), m.config.Lookback)
	}

	window := prices[len(prices)-m.config.Lookback:]
	if !validPrices(window) {
		return invalidPrices(MomentumName)
	}

	reference := window[0]
	latest := window[len(window)-1]
	change := (latest - reference) / reference
	confidence := math.Min(m.config.MaxConfidence, math.Abs(change)*m.config.Scale)

	switch {
	case change > m.config.Threshold && snapshot.Volume > m.config.MinVolume:
		return models.Signal{
			Strategy:   MomentumName,
			Direction:  models.Buy,
			Confidence: confidence,
			Risk:       models.RiskMedium,
			Rationale:  fmt.Sprintf("momentum: price up %.2f%% on volume %.0f", change*100, snapshot.Volume),
		}
	case change < -m.config.Threshold:
		return models.Signal{
			Strategy:   MomentumName,
			Direction:  models.Sell,
			Confidence: confidence,
			Risk:       models.RiskMedium,
			Rationale:  fmt.Sprintf("momentum: price down %.2f%%", change*100),
		}
	default:
		return models.Signal{
			Strategy:   MomentumName,
			Direction:  models.Hold,
			Confidence: m.config.NeutralConfidence,
			Risk:       models.RiskLow,
			Rationale:  fmt.Sprintf("momentum: change %.2f%% without confirmed trend", change*100),
		}
	}
}
