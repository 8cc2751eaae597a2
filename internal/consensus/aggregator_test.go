package consensus

import (
	"math"
	"math/rand"
	"testing"

	"github.com/skalibog/tradegate/pkg/models"
)

func sig(name string, dir models.Direction, conf float64, risk models.RiskLevel) models.Signal {
	return models.Signal{Strategy: name, Direction: dir, Confidence: conf, Risk: risk, Rationale: name + " says " + string(dir)}
}

func TestAggregateEmpty(t *testing.T) {
	got := NewAggregator().Aggregate(nil)

	if got.Direction != models.Hold || got.Confidence != 0 || got.Risk != models.RiskHigh {
		t.Fatalf("got %s/%v/%s, expected hold/0/high", got.Direction, got.Confidence, got.Risk)
	}
	if got.Rationale != "no active strategies" {
		t.Fatalf("Rationale=%q", got.Rationale)
	}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name     string
		signals  []models.Signal
		wantDir  models.Direction
		wantConf float64
		wantRisk models.RiskLevel
	}{
		{
			name: "weighted majority",
			signals: []models.Signal{
				sig("a", models.Buy, 0.8, models.RiskLow),
				sig("b", models.Sell, 0.3, models.RiskLow),
				sig("c", models.Buy, 0.1, models.RiskLow),
			},
			wantDir:  models.Buy,
			wantConf: 0.75,
			wantRisk: models.RiskLow,
		},
		{
			name: "single strong signal beats two weak ones",
			signals: []models.Signal{
				sig("a", models.Hold, 0.2, models.RiskLow),
				sig("b", models.Hold, 0.2, models.RiskMedium),
				sig("c", models.Sell, 0.9, models.RiskLow),
			},
			wantDir:  models.Sell,
			wantConf: 0.9 / 1.3,
			wantRisk: models.RiskMedium,
		},
		{
			name: "tie buy beats sell",
			signals: []models.Signal{
				sig("a", models.Sell, 0.5, models.RiskLow),
				sig("b", models.Buy, 0.5, models.RiskLow),
			},
			wantDir:  models.Buy,
			wantConf: 0.5,
			wantRisk: models.RiskLow,
		},
		{
			name: "tie sell beats hold",
			signals: []models.Signal{
				sig("a", models.Hold, 0.6, models.RiskLow),
				sig("b", models.Sell, 0.6, models.RiskHigh),
			},
			wantDir:  models.Sell,
			wantConf: 0.5,
			wantRisk: models.RiskHigh,
		},
		{
			name: "zero mass is neutral",
			signals: []models.Signal{
				sig("a", models.Hold, 0, models.RiskHigh),
				sig("b", models.Hold, 0, models.RiskHigh),
			},
			wantDir:  models.Hold,
			wantConf: 0,
			wantRisk: models.RiskHigh,
		},
		{
			name: "both strategies hold",
			signals: []models.Signal{
				sig("momentum", models.Hold, 0.6, models.RiskLow),
				sig("mean_reversion", models.Hold, 0, models.RiskHigh),
			},
			wantDir:  models.Hold,
			wantConf: 1,
			wantRisk: models.RiskHigh,
		},
		{
			name: "out of range confidences are clamped",
			signals: []models.Signal{
				sig("a", models.Buy, 3, models.RiskLow),
				sig("b", models.Sell, -2, models.RiskLow),
				sig("c", models.Sell, math.NaN(), models.RiskLow),
			},
			wantDir:  models.Buy,
			wantConf: 1,
			wantRisk: models.RiskLow,
		},
		{
			name: "unknown risk counts as high",
			signals: []models.Signal{
				sig("a", models.Buy, 0.7, models.RiskLevel("extreme")),
			},
			wantDir:  models.Buy,
			wantConf: 1,
			wantRisk: models.RiskHigh,
		},
	}

	agg := NewAggregator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := agg.Aggregate(tt.signals)
			if got.Direction != tt.wantDir {
				t.Fatalf("Direction=%s, expected %s", got.Direction, tt.wantDir)
			}
			if math.Abs(got.Confidence-tt.wantConf) > 1e-9 {
				t.Fatalf("Confidence=%v, expected %v", got.Confidence, tt.wantConf)
			}
			if got.Risk != tt.wantRisk {
				t.Fatalf("Risk=%s, expected %s", got.Risk, tt.wantRisk)
			}
			if len(got.Contributors) != len(tt.signals) {
				t.Fatalf("Contributors=%v", got.Contributors)
			}
		})
	}
}

func TestAggregateRationaleKeepsInputOrder(t *testing.T) {
	signals := []models.Signal{
		{Strategy: "x", Direction: models.Buy, Confidence: 0.4, Risk: models.RiskLow, Rationale: "first"},
		{Strategy: "y", Direction: models.Sell, Confidence: 0.4, Risk: models.RiskLow, Rationale: "second"},
		{Strategy: "z", Direction: models.Hold, Confidence: 0.4, Risk: models.RiskLow, Rationale: "third"},
	}

	got := NewAggregator().Aggregate(signals)
	if got.Rationale != "first; second; third" {
		t.Fatalf("Rationale=%q", got.Rationale)
	}
}

func TestAggregateOrderInvariantConfidence(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	agg := NewAggregator()
	dirs := []models.Direction{models.Buy, models.Sell, models.Hold}
	risks := []models.RiskLevel{models.RiskLow, models.RiskMedium, models.RiskHigh}

	for round := 0; round < 200; round++ {
		n := 1 + rng.Intn(6)
		signals := make([]models.Signal, n)
		for i := range signals {
			signals[i] = sig("s", dirs[rng.Intn(3)], rng.Float64(), risks[rng.Intn(3)])
		}

		base := agg.Aggregate(signals)
		if base.Confidence < 0 || base.Confidence > 1 {
			t.Fatalf("confidence out of range: %v", base.Confidence)
		}

		shuffled := append([]models.Signal(nil), signals...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got := agg.Aggregate(shuffled)
		if got.Direction != base.Direction {
			t.Fatalf("round %d: direction %s vs %s", round, got.Direction, base.Direction)
		}
		if math.Abs(got.Confidence-base.Confidence) > 1e-9 {
			t.Fatalf("round %d: confidence %v vs %v", round, got.Confidence, base.Confidence)
		}
		if got.Risk != base.Risk {
			t.Fatalf("round %d: risk %s vs %s", round, got.Risk, base.Risk)
		}
	}
}
