package strategy

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"
	"github.com/skalibog/tradegate/internal/config"
	"github.com/skalibog/tradegate/pkg/models"
)

// MeanReversionName имя стратегии возврата к среднему
const MeanReversionName = "mean_reversion"

// MeanReversion ставит против отклонения цены от скользящей средней
type MeanReversion struct {
	Toggle
	config config.MeanReversionConfig
}

// NewMeanReversion создает стратегию возврата к среднему
func NewMeanReversion(cfg config.MeanReversionConfig) *MeanReversion {
	// talib.Sma требует период не меньше 2
	if cfg.Period < 2 {
		cfg.Period = 2
	}
	m := &MeanReversion{config: cfg}
	m.SetActive(cfg.Active)
	return m
}

func (m *MeanReversion) Name() string { return MeanReversionName }

// Evaluate считает отклонение последней цены от SMA за Period точек
func (m *MeanReversion) Evaluate(snapshot models.Snapshot) models.Signal {
	prices := snapshot.Prices
	if len(prices) < m.config.Period {
		return insufficient(MeanReversionName, len(prices), m.config.Period)
	}

	// talib считает SMA по всему ряду, нам нужно только последнее окно
	window := prices[len(prices)-m.config.Period:]
	if !validPrices(window) {
		return invalidPrices(MeanReversionName)
	}
	sma := talib.Sma(window, m.config.Period)
	average := sma[len(sma)-1]
	if average <= 0 || math.IsNaN(average) || math.IsInf(average, 0) {
		return neutral(MeanReversionName, "invalid moving average")
	}

	latest := window[len(window)-1]
	deviation := (latest - average) / average
	confidence := math.Min(m.config.MaxConfidence, math.Abs(deviation)*m.config.Scale)

	switch {
	case deviation > m.config.Threshold:
		return models.Signal{
			Strategy:   MeanReversionName,
			Direction:  models.Sell,
			Confidence: confidence,
			Risk:       models.RiskMedium,
			Rationale:  fmt.Sprintf("mean reversion: price %.2f%% above SMA%d %.4f", deviation*100, m.config.Period, average),
		}
	case deviation < -m.config.Threshold:
		return models.Signal{
			Strategy:   MeanReversionName,
			Direction:  models.Buy,
			Confidence: confidence,
			Risk:       models.RiskMedium,
			Rationale:  fmt.Sprintf("mean reversion: price %.2f%% below SMA%d %.4f", -deviation*100, m.config.Period, average),
		}
	default:
		return models.Signal{
			Strategy:   MeanReversionName,
			Direction:  models.Hold,
			Confidence: m.config.NeutralConfidence,
			Risk:       models.RiskLow,
			Rationale:  fmt.Sprintf("mean reversion: deviation %.2f%% within band", deviation*100),
		}
	}
}
