package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-booking/internal/config"
	"github.com/jwalitptl/clinic-booking/internal/email"
	"github.com/jwalitptl/clinic-booking/internal/repository/postgres"
	internalWorker "github.com/jwalitptl/clinic-booking/internal/worker"
	"github.com/jwalitptl/clinic-booking/pkg/logger"
	"github.com/jwalitptl/clinic-booking/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-booking/pkg/metrics"
	"github.com/jwalitptl/clinic-booking/pkg/worker"
)

func main() {
	configPath := flag.String("config", "", "path to config.yml")
	metricsAddr := flag.String("metrics-addr", ":9091", "address of the worker /metrics endpoint")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLog := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Console:    cfg.Log.Console,
	}).WithFields(map[string]interface{}{"component": "worker"})
	logger.SetGlobal(appLog)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		appLog.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	m := metrics.New("clinic_worker", registry)

	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, appLog)
	if err != nil {
		appLog.Fatal(err, "failed to connect to Redis")
	}
	defer broker.Close()

	outboxRepo := postgres.NewOutboxRepository(postgres.NewBaseRepository(db, m))

	processor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
		BatchSize:     cfg.Outbox.BatchSize,
		PollInterval:  cfg.Outbox.PollInterval,
		RetryAttempts: 3,
		RetryDelay:    time.Second,
		MaxRetries:    cfg.Outbox.MaxRetries,
	}, appLog, m)
	cleanup := internalWorker.NewOutboxCleanupWorker(outboxRepo, cfg.Outbox.Retention, cfg.Outbox.CleanupInterval, appLog)

	var wg sync.WaitGroup
	run := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	run(func() { processor.Start(ctx) })
	run(func() { cleanup.Start(ctx) })

	if cfg.SMTP.Enabled() && cfg.Clinic.Inbox != "" {
		loc, err := cfg.Clinic.Location()
		if err != nil {
			appLog.Fatal(err, "invalid clinic timezone")
		}
		notifier := internalWorker.NewBookingNotifier(broker, email.NewSMTPService(cfg.SMTP, loc), cfg.Clinic.Inbox, appLog)
		run(func() {
			if err := notifier.Run(ctx); err != nil {
				appLog.Error(err, "booking notifier stopped")
			}
		})
	} else {
		appLog.Info("SMTP not configured, booking notifications disabled")
	}

	metricsSrv := &http.Server{
		Addr:              *metricsAddr,
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error(err, "metrics server failed")
		}
	}()

	appLog.Info("worker started", "metrics_addr", *metricsAddr)
	<-ctx.Done()
	appLog.Info("shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		appLog.Error(err, "metrics server forced to shutdown")
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		appLog.Info("worker exited properly")
	case <-shutdownCtx.Done():
		fmt.Fprintln(os.Stderr, "worker forced to exit")
	}
}
