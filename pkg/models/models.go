package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction направление торговой рекомендации
type Direction string

const (
	Buy  Direction = "buy"
	Sell Direction = "sell"
	Hold Direction = "hold"
)

// Directions фиксированный порядок направлений; при равенстве голосов побеждает первое
var Directions = [...]Direction{Buy, Sell, Hold}

// RiskLevel уровень риска сигнала
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Rank возвращает порядковый номер уровня риска. Неизвестный уровень считается высоким.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	default:
		return 2
	}
}

// IsValid проверяет, что уровень риска известен
func (r RiskLevel) IsValid() bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}

// Snapshot представляет рыночный срез для одного анализа.
// Prices упорядочены хронологически, самая старая цена первая.
type Snapshot struct {
	Prices    []float64
	Volume    float64
	Sentiment string
}

// Latest возвращает последнюю цену среза
func (s Snapshot) Latest() (float64, bool) {
	if len(s.Prices) == 0 {
		return 0, false
	}
	return s.Prices[len(s.Prices)-1], true
}

// Signal результат одной стратегии
type Signal struct {
	Strategy   string
	Direction  Direction
	Confidence float64
	Risk       RiskLevel
	Rationale  string
}

// Decision консенсус всех активных стратегий
type Decision struct {
	Direction    Direction
	Confidence   float64
	Risk         RiskLevel
	Rationale    string
	Votes        map[Direction]float64
	Contributors []string
}

// SizeResult размер позиции как доля портфеля и в деньгах
type SizeResult struct {
	Fraction float64
	Notional decimal.Decimal
}

// Verdict решение риск-фильтра. Reason - короткий код причины, Detail - пояснение.
type Verdict struct {
	Accepted bool
	Reason   string
	Detail   string
}

// Evaluation полный результат одного прогона конвейера
type Evaluation struct {
	ID             string
	Symbol         string
	Timestamp      time.Time
	LastPrice      float64
	Volume         float64
	PortfolioValue float64
	Signals        []Signal
	Decision       Decision
	Verdict        Verdict
	Size           SizeResult
}
