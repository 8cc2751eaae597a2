package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/skalibog/tradegate/internal/consensus"
	"github.com/skalibog/tradegate/internal/metrics"
	"github.com/skalibog/tradegate/internal/risk"
	"github.com/skalibog/tradegate/internal/storage"
	"github.com/skalibog/tradegate/internal/strategy"
	"github.com/skalibog/tradegate/pkg/logger"
	"github.com/skalibog/tradegate/pkg/models"
	"github.com/skalibog/tradegate/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ReasonNothingToExecute решение hold не передается риск-фильтру
const ReasonNothingToExecute = "nothing_to_execute"

// Request входные данные одного анализа
type Request struct {
	Symbol         string
	Snapshot       models.Snapshot
	PortfolioValue float64
}

// Pipeline связывает стратегии, консенсус и риск-фильтр
type Pipeline struct {
	strategies *strategy.Set
	aggregator *consensus.Aggregator
	gate       *risk.Gate
	journal    storage.Journal
	metrics    *metrics.Recorder
	workers    int
	now        func() time.Time
}

// Option настраивает конвейер
type Option func(*Pipeline)

// WithJournal подключает журнал решений
func WithJournal(j storage.Journal) Option {
	return func(p *Pipeline) { p.journal = j }
}

// WithMetrics подключает метрики
func WithMetrics(r *metrics.Recorder) Option {
	return func(p *Pipeline) { p.metrics = r }
}

// WithWorkers ограничивает число параллельных оценок в EvaluateAll
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// New создает конвейер
func New(set *strategy.Set, aggregator *consensus.Aggregator, gate *risk.Gate, opts ...Option) *Pipeline {
	p := &Pipeline{
		strategies: set,
		aggregator: aggregator,
		gate:       gate,
		workers:    1,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Gate возвращает риск-фильтр конвейера
func (p *Pipeline) Gate() *risk.Gate {
	return p.gate
}

// Evaluate прогоняет срез через стратегии, консенсус и риск-фильтр.
// Ошибка возвращается только при отмене контекста.
func (p *Pipeline) Evaluate(ctx context.Context, req Request) (*models.Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := tracing.StartSpan(ctx, "pipeline.Evaluate")
	defer span.End()

	r := p.decide(ctx, req)
	p.admit(r)
	p.report(ctx, r)
	return r.eval, nil
}

// EvaluateAll оценивает срезы параллельно, сохраняя порядок запросов в результате.
// Сигналы и консенсус считаются параллельно, а риск-фильтр принимает решения
// строго в порядке запросов, поэтому при исчерпании лимита позиций слоты
// получают первые по порядку срезы независимо от числа воркеров.
func (p *Pipeline) EvaluateAll(ctx context.Context, requests []Request) ([]*models.Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := tracing.StartSpan(ctx, "pipeline.EvaluateAll")
	defer span.End()
	span.SetAttributes(attribute.Int("requests", len(requests)))

	runs := make([]*run, len(requests))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, req := range requests {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return fmt.Errorf("анализ %s: %w", req.Symbol, err)
			}
			runs[i] = p.decide(gctx, req)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, r := range runs {
		p.admit(r)
	}

	g = new(errgroup.Group)
	g.SetLimit(p.workers)
	for _, r := range runs {
		g.Go(func() error {
			p.report(ctx, r)
			return nil
		})
	}
	_ = g.Wait()

	results := make([]*models.Evaluation, len(runs))
	for i, r := range runs {
		results[i] = r.eval
	}
	return results, nil
}

// run промежуточное состояние одной оценки
type run struct {
	eval  *models.Evaluation
	start time.Time
	took  time.Duration
}

// decide считает сигналы и консенсус без обращения к риск-фильтру
func (p *Pipeline) decide(ctx context.Context, req Request) *run {
	_, span := tracing.StartSpan(ctx, "pipeline.decide")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", req.Symbol), attribute.Int("prices", len(req.Snapshot.Prices)))

	start := time.Now()

	signals := p.strategies.Evaluate(req.Snapshot)
	decision := p.aggregator.Aggregate(signals)

	eval := &models.Evaluation{
		ID:             uuid.NewString(),
		Symbol:         req.Symbol,
		Timestamp:      p.now(),
		Volume:         req.Snapshot.Volume,
		PortfolioValue: req.PortfolioValue,
		Signals:        signals,
		Decision:       decision,
	}
	eval.LastPrice, _ = req.Snapshot.Latest()

	span.SetAttributes(
		attribute.String("direction", string(decision.Direction)),
		attribute.Float64("confidence", decision.Confidence),
	)
	return &run{eval: eval, start: start}
}

// admit передает решение риск-фильтру; hold до фильтра не доходит
func (p *Pipeline) admit(r *run) {
	eval := r.eval
	if eval.Decision.Direction == models.Hold {
		eval.Verdict = models.Verdict{
			Accepted: false,
			Reason:   ReasonNothingToExecute,
			Detail:   "consensus is hold",
		}
	} else {
		eval.Verdict = p.gate.Admit(eval.Decision)
		if eval.Verdict.Accepted {
			eval.Size = p.gate.Size(eval.Decision, eval.PortfolioValue)
		}
	}
	r.took = time.Since(r.start)
}

// report пишет лог, метрики и журнал. Ошибка журнала не влияет на решение.
func (p *Pipeline) report(ctx context.Context, r *run) {
	eval := r.eval

	ctx, span := tracing.StartSpan(ctx, "pipeline.report")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", eval.Symbol), attribute.Bool("accepted", eval.Verdict.Accepted))

	logger.Info("PIPELINE: анализ завершен",
		zap.String("id", eval.ID),
		zap.String("symbol", eval.Symbol),
		zap.String("direction", string(eval.Decision.Direction)),
		zap.Float64("confidence", eval.Decision.Confidence),
		zap.String("risk", string(eval.Decision.Risk)),
		zap.Bool("accepted", eval.Verdict.Accepted),
		zap.String("reason", eval.Verdict.Reason),
		zap.Float64("fraction", eval.Size.Fraction),
		zap.String("notional", eval.Size.Notional.StringFixed(2)),
		zap.Duration("took", r.took))

	if p.metrics != nil {
		p.metrics.RecordEvaluation(eval, p.gate.OpenPositions(), r.took)
	}

	if p.journal == nil {
		return
	}
	if err := p.journal.Record(ctx, eval); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "journal write failed")
		logger.Warn("Предупреждение: не удалось сохранить оценку", zap.String("id", eval.ID), zap.Error(err))
		if p.metrics != nil {
			p.metrics.RecordJournalError()
		}
	}
}
