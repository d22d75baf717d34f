package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/documind-auditor/internal/bootstrap"
	"github.com/kirillkom/documind-auditor/internal/config"
	"github.com/kirillkom/documind-auditor/internal/core/domain"
	"github.com/kirillkom/documind-auditor/internal/core/usecase"
	"github.com/kirillkom/documind-auditor/internal/infrastructure/queue/nats"
	"github.com/kirillkom/documind-auditor/internal/infrastructure/resilience"
	"github.com/kirillkom/documind-auditor/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/documind-auditor/internal/observability/logging"
	"github.com/kirillkom/documind-auditor/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("worker", cfg.LogLevel))

	if err := run(cfg); err != nil {
		slog.Error("worker_failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	if cfg.NATSURL == "" {
		return errors.New("NATS_URL is required for the report archiver")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	composer, err := bootstrap.NewComposer(cfg)
	if err != nil {
		return err
	}
	archive, err := localfs.New(cfg.ReportArchivePath)
	if err != nil {
		return err
	}
	workerMetrics := metrics.NewWorkerMetrics("worker")
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig(), resilience.WithObserver(workerMetrics)),
		ClientName:         "documind-worker",
	})
	if err != nil {
		return err
	}
	defer queue.Close()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	archiver := usecase.NewReportArchiver(composer, archive)
	slog.Info("worker_subscribed", "subject", cfg.NATSSubject, "archive_path", archive.BasePath())

	return queue.SubscribeAuditCompleted(ctx, func(handlerCtx context.Context, event domain.AuditCompletedEvent) error {
		archiveCtx, cancel := context.WithTimeout(handlerCtx, time.Minute)
		defer cancel()

		workerMetrics.ObserveEventLag(time.Since(event.Entry.Date))
		workerMetrics.StartArchive()
		started := time.Now()
		key, err := archiver.Archive(archiveCtx, event)
		workerMetrics.FinishArchive(time.Since(started), err)
		if err != nil {
			return err
		}
		slog.Info("report_archived", "entry_id", event.Entry.ID, "key", key)
		return nil
	})
}
