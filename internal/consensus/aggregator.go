package consensus

import (
	"math"
	"strings"

	"github.com/skalibog/tradegate/pkg/logger"
	"github.com/skalibog/tradegate/pkg/models"
	"go.uber.org/zap"
)

// NoActiveStrategies пояснение решения при пустом наборе сигналов
const NoActiveStrategies = "no active strategies"

// rationaleSeparator разделитель пояснений отдельных стратегий
const rationaleSeparator = "; "

// Aggregator объединяет сигналы стратегий взвешенным по уверенности голосованием
type Aggregator struct{}

// NewAggregator создает новый агрегатор
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Aggregate вычисляет консенсус.
// Победитель определяется по сумме уверенностей; при равенстве порядок buy, sell, hold.
// Уверенность консенсуса равна доле победителя в общей массе уверенности.
// Исключение из порядка buy, sell, hold: при нулевой общей массе решение hold с уверенностью 0.
func (a *Aggregator) Aggregate(signals []models.Signal) models.Decision {
	if len(signals) == 0 {
		return models.Decision{
			Direction:  models.Hold,
			Confidence: 0,
			Risk:       models.RiskHigh,
			Rationale:  NoActiveStrategies,
			Votes:      emptyVotes(),
		}
	}

	votes := emptyVotes()
	var totalMass float64
	risk := models.RiskLow
	rationales := make([]string, 0, len(signals))
	contributors := make([]string, 0, len(signals))

	for _, s := range signals {
		confidence := clamp01(s.Confidence)
		if _, known := votes[s.Direction]; !known {
			// неизвестное направление голосует за hold
			logger.Warn("CONSENSUS: неизвестное направление сигнала", zap.String("strategy", s.Strategy), zap.String("direction", string(s.Direction)))
			votes[models.Hold] += confidence
		} else {
			votes[s.Direction] += confidence
		}
		totalMass += confidence

		if s.Risk.Rank() > risk.Rank() {
			risk = s.Risk
		}
		rationales = append(rationales, s.Rationale)
		contributors = append(contributors, s.Strategy)
	}
	// неизвестный уровень риска сводится к high
	if !risk.IsValid() {
		risk = models.RiskHigh
	}

	direction := models.Hold
	confidence := 0.0
	if totalMass > 0 {
		direction = models.Directions[0]
		for _, d := range models.Directions[1:] {
			if votes[d] > votes[direction] {
				direction = d
			}
		}
		confidence = math.Min(1, votes[direction]/totalMass)
	}

	decision := models.Decision{
		Direction:    direction,
		Confidence:   confidence,
		Risk:         risk,
		Rationale:    strings.Join(rationales, rationaleSeparator),
		Votes:        votes,
		Contributors: contributors,
	}

	logger.Debug("CONSENSUS: решение принято",
		zap.String("direction", string(decision.Direction)),
		zap.Float64("confidence", decision.Confidence),
		zap.String("risk", string(decision.Risk)),
		zap.Int("signals", len(signals)))

	return decision
}

func emptyVotes() map[models.Direction]float64 {
	votes := make(map[models.Direction]float64, len(models.Directions))
	for _, d := range models.Directions {
		votes[d] = 0
	}
	return votes
}

// clamp01 ограничивает уверенность диапазоном [0,1]; NaN считается нулем
func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
