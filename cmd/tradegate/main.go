package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skalibog/tradegate/internal/config"
	"github.com/skalibog/tradegate/internal/consensus"
	"github.com/skalibog/tradegate/internal/feed"
	"github.com/skalibog/tradegate/internal/metrics"
	"github.com/skalibog/tradegate/internal/pipeline"
	"github.com/skalibog/tradegate/internal/risk"
	"github.com/skalibog/tradegate/internal/storage"
	"github.com/skalibog/tradegate/internal/strategy"
	"github.com/skalibog/tradegate/internal/ui"
	"github.com/skalibog/tradegate/pkg/logger"
	"github.com/skalibog/tradegate/pkg/tracing"
	"go.uber.org/zap"
)

func main() {
	// Контекст отменяется по SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := run(ctx, os.Args[1:], os.Stdout)
	stop()
	if err != nil {
		logger.Error("Ошибка выполнения", zap.Error(err))
		_ = logger.GetLogger().Sync()
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// run собирает конвейер и выполняет анализ; все отложенные вызовы отрабатывают до выхода
func run(ctx context.Context, args []string, stdout io.Writer) error {
	// Обработка флагов командной строки
	flags := flag.NewFlagSet("tradegate", flag.ContinueOnError)
	configPath := flags.String("config", "config.yaml", "путь к файлу конфигурации")
	snapshotsPath := flags.String("snapshots", "snapshots.yaml", "путь к файлу рыночных срезов")
	plain := flags.Bool("plain", false, "вывести отчет без интерактивного интерфейса")
	if err := flags.Parse(args); err != nil {
		return err
	}

	// Загружаем конфигурацию
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	if err := logger.Init(cfg.Log); err != nil {
		return fmt.Errorf("ошибка инициализации логгера: %w", err)
	}
	defer logger.GetLogger().Sync()

	if err := tracing.Init(cfg.Tracing.Enabled); err != nil {
		return fmt.Errorf("ошибка инициализации трассировки: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Ошибка завершения трассировки", zap.Error(err))
		}
	}()

	opts := []pipeline.Option{pipeline.WithWorkers(cfg.Pipeline.Workers)}

	// Метрики
	if cfg.Metrics.Enabled {
		recorder := metrics.New()
		opts = append(opts, pipeline.WithMetrics(recorder))

		mux := http.NewServeMux()
		mux.Handle("/metrics", recorder.Handler())
		server := &http.Server{Addr: cfg.Metrics.Listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logger.Info("Запуск сервера метрик", zap.String("listen", cfg.Metrics.Listen))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Ошибка сервера метрик", zap.Error(err))
			}
		}()
		defer server.Close()
	}

	// Журнал решений
	if cfg.Storage.Enabled {
		journal, err := storage.NewInfluxDBJournal(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("ошибка инициализации журнала: %w", err)
		}
		defer journal.Close()
		opts = append(opts, pipeline.WithJournal(journal))
	}

	p := pipeline.New(
		strategy.FromConfig(cfg.Strategies),
		consensus.NewAggregator(),
		risk.NewGate(cfg.Risk),
		opts...,
	)

	entries, err := feed.Load(*snapshotsPath)
	if err != nil {
		return fmt.Errorf("ошибка загрузки срезов: %w", err)
	}

	logger.Info("Запуск анализа", zap.Int("snapshots", len(entries)), zap.Int("workers", cfg.Pipeline.Workers))

	evaluations, err := p.EvaluateAll(ctx, feed.Requests(entries, cfg.Portfolio.Value))
	if err != nil {
		return fmt.Errorf("анализ прерван: %w", err)
	}

	logger.Info("Анализ завершен",
		zap.Int("evaluations", len(evaluations)),
		zap.Int("open_positions", p.Gate().OpenPositions()))

	if *plain || !cfg.UI.Interactive {
		_, err := fmt.Fprint(stdout, ui.RenderReport(evaluations))
		return err
	}

	// Запускаем UI в основном потоке (блокирующий вызов)
	return ui.NewTermUI(evaluations, cfg.Log.JSONFile).Run(ctx)
}
