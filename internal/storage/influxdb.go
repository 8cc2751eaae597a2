package storage

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/jpillora/backoff"
	"github.com/skalibog/tradegate/internal/config"
	"github.com/skalibog/tradegate/pkg/logger"
	"github.com/skalibog/tradegate/pkg/models"
	"go.uber.org/zap"
)

// InfluxDBJournal пишет результаты анализа в InfluxDB.
// Журнал только для записи: ничего из него не читается обратно.
type InfluxDBJournal struct {
	client     influxdb2.Client
	writeAPI   api.WriteAPIBlocking
	maxRetries int
	backoff    backoff.Backoff
}

// NewInfluxDBJournal создает журнал InfluxDB
func NewInfluxDBJournal(ctx context.Context, cfg config.StorageConfig) (*InfluxDBJournal, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	// Проверка соединения
	health, err := client.Health(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("ошибка соединения с InfluxDB: %w", err)
	}
	if health == nil || health.Status != "pass" {
		client.Close()
		return nil, fmt.Errorf("InfluxDB не в состоянии 'pass': %+v", health)
	}

	return &InfluxDBJournal{
		client:     client,
		writeAPI:   client.WriteAPIBlocking(cfg.Organization, cfg.Bucket),
		maxRetries: cfg.MaxRetries,
		backoff: backoff.Backoff{
			Min:    200 * time.Millisecond,
			Max:    5 * time.Second,
			Factor: 2,
			Jitter: true,
		},
	}, nil
}

// Record записывает оценку и ее сигналы, повторяя запись с экспоненциальной задержкой
func (j *InfluxDBJournal) Record(ctx context.Context, eval *models.Evaluation) error {
	points := evaluationPoints(eval)

	// копия, чтобы параллельные записи не делили счетчик попыток
	b := j.backoff
	var err error
	for attempt := 0; attempt <= j.maxRetries; attempt++ {
		if err = j.writeAPI.WritePoint(ctx, points...); err == nil {
			return nil
		}

		if attempt == j.maxRetries {
			break
		}
		delay := b.Duration()
		logger.Warn("Ошибка записи в InfluxDB, повтор",
			zap.String("evaluation", eval.ID),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("не удалось записать оценку %s: %w", eval.ID, err)
}

// Close закрывает соединение с базой данных
func (j *InfluxDBJournal) Close() {
	j.client.Close()
}

// evaluationPoints превращает оценку в точки InfluxDB:
// одна точка "evaluations" и по одной точке "signals" на стратегию
func evaluationPoints(eval *models.Evaluation) []*write.Point {
	points := make([]*write.Point, 0, len(eval.Signals)+1)

	notional, _ := eval.Size.Notional.Float64()
	points = append(points, influxdb2.NewPoint(
		"evaluations",
		map[string]string{
			"symbol":    eval.Symbol,
			"direction": string(eval.Decision.Direction),
			"risk":      string(eval.Decision.Risk),
			"accepted":  fmt.Sprintf("%t", eval.Verdict.Accepted),
		},
		map[string]interface{}{
			"id":              eval.ID,
			"confidence":      eval.Decision.Confidence,
			"reason":          eval.Verdict.Reason,
			"fraction":        eval.Size.Fraction,
			"notional":        notional,
			"price":           eval.LastPrice,
			"volume":          eval.Volume,
			"portfolio_value": eval.PortfolioValue,
			"rationale":       eval.Decision.Rationale,
		},
		eval.Timestamp,
	))

	for _, s := range eval.Signals {
		points = append(points, influxdb2.NewPoint(
			"signals",
			map[string]string{
				"symbol":    eval.Symbol,
				"strategy":  s.Strategy,
				"direction": string(s.Direction),
				"risk":      string(s.Risk),
			},
			map[string]interface{}{
				"evaluation": eval.ID,
				"confidence": s.Confidence,
				"rationale":  s.Rationale,
			},
			eval.Timestamp,
		))
	}

	return points
}
