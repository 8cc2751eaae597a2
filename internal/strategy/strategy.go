package strategy

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/skalibog/tradegate/internal/config"
	"github.com/skalibog/tradegate/pkg/models"
)

// Strategy превращает рыночный срез ровно в один сигнал.
// Evaluate обязан быть тотальным и детерминированным: при нехватке данных
// стратегия возвращает нейтральный сигнал, а не ошибку.
type Strategy interface {
	Name() string
	Active() bool
	Evaluate(snapshot models.Snapshot) models.Signal
}

// Toggle флаг активности стратегии, безопасный для конкурентного доступа
type Toggle struct {
	active atomic.Bool
}

// Active сообщает, участвует ли стратегия в агрегации
func (t *Toggle) Active() bool {
	return t.active.Load()
}

// SetActive включает или выключает стратегию
func (t *Toggle) SetActive(active bool) {
	t.active.Store(active)
}

// Set упорядоченный список стратегий, которым владеет вызывающий код.
// Add не предназначен для вызова параллельно с Evaluate.
type Set struct {
	strategies []Strategy
}

// NewSet создает набор из переданных стратегий
func NewSet(strategies ...Strategy) *Set {
	return &Set{strategies: strategies}
}

// FromConfig собирает стандартный набор стратегий
func FromConfig(cfg config.StrategiesConfig) *Set {
	return NewSet(
		NewMomentum(cfg.Momentum),
		NewMeanReversion(cfg.MeanReversion),
		NewRSI(cfg.RSI),
		NewSentiment(cfg.Sentiment),
	)
}

// Add регистрирует стратегию в конце набора
func (s *Set) Add(st Strategy) {
	s.strategies = append(s.strategies, st)
}

// Lookup ищет стратегию по имени
func (s *Set) Lookup(name string) (Strategy, bool) {
	for _, st := range s.strategies {
		if st.Name() == name {
			return st, true
		}
	}
	return nil, false
}

// All возвращает все зарегистрированные стратегии
func (s *Set) All() []Strategy {
	out := make([]Strategy, len(s.strategies))
	copy(out, s.strategies)
	return out
}

// Evaluate возвращает сигналы активных стратегий в порядке регистрации.
// Неактивные стратегии не голосуют вовсе.
func (s *Set) Evaluate(snapshot models.Snapshot) []models.Signal {
	signals := make([]models.Signal, 0, len(s.strategies))
	for _, st := range s.strategies {
		if !st.Active() {
			continue
		}
		signals = append(signals, st.Evaluate(snapshot))
	}
	return signals
}

// insufficient нейтральный сигнал при нехватке данных
func insufficient(name string, have, need int) models.Signal {
	return models.Signal{
		Strategy:   name,
		Direction:  models.Hold,
		Confidence: 0,
		Risk:       models.RiskHigh,
		Rationale:  fmt.Sprintf("%s: insufficient data (have %d prices, need %d)", name, have, need),
	}
}

// neutral сигнал hold/0/high с произвольным пояснением
func neutral(name, reason string) models.Signal {
	return models.Signal{
		Strategy:   name,
		Direction:  models.Hold,
		Confidence: 0,
		Risk:       models.RiskHigh,
		Rationale:  fmt.Sprintf("%s: %s", name, reason),
	}
}

// validPrices проверяет, что все цены окна положительны и конечны
func validPrices(prices []float64) bool {
	for _, p := range prices {
		if p <= 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			return false
		}
	}
	return true
}

// invalidPrices сигнал для окна с нулевыми, отрицательными или нечисловыми ценами
func invalidPrices(name string) models.Signal {
	return neutral(name, "invalid prices in window")
}
