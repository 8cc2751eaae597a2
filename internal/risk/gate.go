package risk

import (
	"fmt"
	"math"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/skalibog/tradegate/internal/config"
	"github.com/skalibog/tradegate/pkg/logger"
	"github.com/skalibog/tradegate/pkg/models"
	"go.uber.org/zap"
)

// Причины отклонения
const (
	ReasonAccepted      = "accepted"
	ReasonLowConfidence = "low_confidence"
	ReasonMaxPositions  = "max_positions"
)

// Gate проверяет решения перед исполнением и рассчитывает размер позиции.
// Единственное изменяемое состояние - счетчик открытых позиций.
type Gate struct {
	config config.RiskConfig
	mu     sync.Mutex
	open   int
}

// NewGate создает риск-фильтр
func NewGate(cfg config.RiskConfig) *Gate {
	return &Gate{config: cfg}
}

// Config возвращает настройки фильтра
func (g *Gate) Config() config.RiskConfig {
	return g.config
}

// Size рассчитывает долю портфеля для решения.
// Множитель риска может только уменьшить позицию: итог ограничен MaxPositionFraction.
func (g *Gate) Size(decision models.Decision, portfolioValue float64) models.SizeResult {
	base := g.config.MaxPositionFraction
	multiplier := clamp01(decision.Confidence) * g.adjustment(decision.Risk)

	fraction := math.Min(base*multiplier, g.config.MaxPositionFraction)
	if fraction < 0 || math.IsNaN(fraction) {
		fraction = 0
	}

	notional := decimal.Zero
	if portfolioValue > 0 && !math.IsInf(portfolioValue, 0) {
		notional = decimal.NewFromFloat(portfolioValue).Mul(decimal.NewFromFloat(fraction)).Round(2)
	}

	return models.SizeResult{Fraction: fraction, Notional: notional}
}

// Validate проверяет решение без изменения состояния
func (g *Gate) Validate(decision models.Decision) models.Verdict {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.validateLocked(decision)
}

// Admit атомарно проверяет решение и при принятии увеличивает счетчик открытых позиций.
// Два параллельных вызова не могут оба пройти на последнем свободном слоте.
func (g *Gate) Admit(decision models.Decision) models.Verdict {
	g.mu.Lock()
	defer g.mu.Unlock()

	verdict := g.validateLocked(decision)
	if verdict.Accepted {
		g.open++
		logger.Info("RISK: позиция открыта",
			zap.String("direction", string(decision.Direction)),
			zap.Float64("confidence", decision.Confidence),
			zap.Int("open_positions", g.open))
	} else {
		logger.Warn("RISK: решение отклонено",
			zap.String("direction", string(decision.Direction)),
			zap.Float64("confidence", decision.Confidence),
			zap.String("reason", verdict.Detail),
			zap.Int("open_positions", g.open))
	}
	return verdict
}

// OpenPositions возвращает текущее число открытых позиций
func (g *Gate) OpenPositions() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.open
}

func (g *Gate) validateLocked(decision models.Decision) models.Verdict {
	// NaN не проходит ни одно сравнение, поэтому проверяем явно
	if math.IsNaN(decision.Confidence) || decision.Confidence < g.config.MinConfidence {
		return models.Verdict{
			Accepted: false,
			Reason:   ReasonLowConfidence,
			Detail:   fmt.Sprintf("confidence %.2f below minimum %.2f", decision.Confidence, g.config.MinConfidence),
		}
	}
	if g.open >= g.config.MaxOpenPositions {
		return models.Verdict{
			Accepted: false,
			Reason:   ReasonMaxPositions,
			Detail:   fmt.Sprintf("open position limit reached: %d/%d", g.open, g.config.MaxOpenPositions),
		}
	}
	return models.Verdict{Accepted: true, Reason: ReasonAccepted, Detail: "within risk limits"}
}

// adjustment множитель размера по уровню риска; неизвестный уровень считается высоким
func (g *Gate) adjustment(level models.RiskLevel) float64 {
	switch level {
	case models.RiskLow:
		return g.config.Adjustments.Low
	case models.RiskMedium:
		return g.config.Adjustments.Medium
	default:
		return g.config.Adjustments.High
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
