package strategy

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"
	"github.com/skalibog/tradegate/internal/config"
	"github.com/skalibog/tradegate/pkg/models"
)

// RSIName имя стратегии на индексе относительной силы
const RSIName = "rsi"

// RSI покупает перепроданность и продает перекупленность
type RSI struct {
	Toggle
	config config.RSIConfig
}

// NewRSI создает стратегию RSI
func NewRSI(cfg config.RSIConfig) *RSI {
	if cfg.Period < 2 {
		cfg.Period = 2
	}
	r := &RSI{config: cfg}
	r.SetActive(cfg.Active)
	return r
}

func (r *RSI) Name() string { return RSIName }

// Evaluate рассчитывает RSI и переводит его в сигнал
func (r *RSI) Evaluate(snapshot models.Snapshot) models.Signal {
	need := r.config.Period + 1
	prices := snapshot.Prices
	if len(prices) < need {
		return insufficient(RSIName, len(prices), need)
	}

	if !validPrices(prices) {
		return invalidPrices(RSIName)
	}

	// На плоском ряду talib отдает 0, что выглядело бы как сильная перепроданность
	if isFlat(prices) {
		return neutral(RSIName, "flat price window")
	}

	rsi := talib.Rsi(prices, r.config.Period)
	lastRSI := rsi[len(rsi)-1]

	// RSI находится в диапазоне 0-100:
	// < Oversold: перепроданность (сигнал на покупку)
	// > Overbought: перекупленность (сигнал на продажу)
	switch {
	case lastRSI < r.config.Oversold:
		strength := (r.config.Oversold - lastRSI) / r.config.Oversold
		return models.Signal{
			Strategy:   RSIName,
			Direction:  models.Buy,
			Confidence: math.Min(r.config.MaxConfidence, 0.5+strength),
			Risk:       models.RiskMedium,
			Rationale:  fmt.Sprintf("rsi: oversold at %.1f", lastRSI),
		}
	case lastRSI > r.config.Overbought:
		strength := (lastRSI - r.config.Overbought) / (100 - r.config.Overbought)
		return models.Signal{
			Strategy:   RSIName,
			Direction:  models.Sell,
			Confidence: math.Min(r.config.MaxConfidence, 0.5+strength),
			Risk:       models.RiskMedium,
			Rationale:  fmt.Sprintf("rsi: overbought at %.1f", lastRSI),
		}
	default:
		return models.Signal{
			Strategy:   RSIName,
			Direction:  models.Hold,
			Confidence: r.config.NeutralConfidence,
			Risk:       models.RiskLow,
			Rationale:  fmt.Sprintf("rsi: neutral at %.1f", lastRSI),
		}
	}
}

func isFlat(prices []float64) bool {
	for _, p := range prices[1:] {
		if p != prices[0] {
			return false
		}
	}
	return true
}
