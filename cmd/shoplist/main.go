package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/shoplist/internal/api"
	"github.com/Kerhoff/shoplist/internal/auth"
	"github.com/Kerhoff/shoplist/internal/config"
	"github.com/Kerhoff/shoplist/internal/repository/postgres"
	"github.com/Kerhoff/shoplist/internal/service"
	"github.com/Kerhoff/shoplist/internal/telegram"
	"github.com/Kerhoff/shoplist/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel, cfg.LogFormat)
	l.Info("Starting shoplist...")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := config.NewDatabase(ctx, cfg, l)
	if err != nil {
		l.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if cfg.MigrationsOn {
		if err := db.Migrate(); err != nil {
			l.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Service layer
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	svc := service.New(db.DB, l, postgres.NewManager(), tokens, service.Options{
		TxTimeout:       cfg.TxTimeout,
		DefaultLanguage: cfg.DefaultLanguage,
		DefaultCurrency: cfg.DefaultCurrency,
		NotifyPurchases: cfg.NotificationsEnabled(),
		NotifyTimeout:   cfg.NotifyTimeout,
	})

	// Telegram purchase notifications
	if cfg.NotificationsEnabled() {
		notifier, err := telegram.NewNotifier(cfg.TelegramToken, cfg.TelegramChatID, cfg.DefaultCurrency, l)
		if err != nil {
			l.Fatalf("Failed to create Telegram notifier: %v", err)
		}
		go svc.StartPurchaseNotifier(ctx, notifier.NotifyPurchase)
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db.DB, "shoplist"),
	)
	metrics := api.NewMetrics(reg)

	// HTTP servers
	apiServer := api.NewServer(svc, l, metrics)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("GET /metrics", api.MetricsHandler(reg))
	metricsServer := &http.Server{
		Addr:              ":" + cfg.PrometheusPort,
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serve(l, "HTTP server", httpServer, stop)
	serve(l, "Metrics server", metricsServer, stop)

	logger.WithFields(l, logrus.Fields{
		"port":          cfg.Port,
		"metrics_port":  cfg.PrometheusPort,
		"notifications": cfg.NotificationsEnabled(),
	}).Info("shoplist started successfully")

	<-ctx.Done()
	l.Info("Received shutdown signal...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	l.Info("Shutting down HTTP servers...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		l.WithError(err).Error("HTTP server shutdown failed")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		l.WithError(err).Error("Metrics server shutdown failed")
	}

	l.Info("shoplist stopped")
}

// serve runs srv in the background. A listener failure triggers shutdown.
func serve(l *logrus.Logger, name string, srv *http.Server, stop context.CancelFunc) {
	go func() {
		l.Infof("%s listening on %s", name, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.WithError(err).Errorf("%s error", name)
			stop()
		}
	}()
}
