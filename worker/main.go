package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DeafMist/job-radar/backend/internal/app"
	"github.com/DeafMist/job-radar/backend/internal/config"
	"github.com/DeafMist/job-radar/backend/internal/logger"
	"github.com/DeafMist/job-radar/backend/internal/scheduler"
)

type refreshSchedule interface {
	Start(ctx context.Context) error
	Stop()
}

type snapshotSink interface {
	Run(ctx context.Context)
	Close() error
}

func main() {
	log := logger.New("worker")
	cfg, err := config.LoadWorker()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	pipeline := app.NewPipeline(cfg.Common, reg, log)
	pub := pipeline.NewPublisher(cfg.Common, log)
	sched := scheduler.New(pipeline.Service, cfg.RefreshSchedule, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if cfg.MetricsAddr != "" {
		metricsServer := newMetricsServer(cfg.MetricsAddr, reg)
		go func() {
			log.Info("metrics listener starting", slog.String("addr", cfg.MetricsAddr))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics listener stopped", slog.Any("err", err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				log.Error("metrics shutdown", slog.Any("err", err))
			}
		}()
	}

	log.Info("worker started",
		slog.String("topic", cfg.KafkaTopic),
		slog.String("schedule", cfg.RefreshSchedule),
		slog.String("query", cfg.SearchQuery),
	)
	if err := run(ctx, log, sched, pub); err != nil {
		log.Error("worker stopped", slog.Any("err", err))
		os.Exit(1)
	}
}

func newMetricsServer(addr string, gatherer prometheus.Gatherer) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// run publishes scheduled refreshes until ctx is cancelled.
func run(ctx context.Context, log *slog.Logger, sched refreshSchedule, sink snapshotSink) error {
	defer func() {
		if err := sink.Close(); err != nil {
			log.Error("close publisher", slog.Any("err", err))
		}
	}()

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	sink.Run(ctx)
	log.Info("context canceled, stopping")
	sched.Stop()
	return nil
}
