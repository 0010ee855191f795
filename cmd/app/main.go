// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payment-lifecycle/internal/config"
	"payment-lifecycle/internal/infra/acquirer"
	pg "payment-lifecycle/internal/infra/db/postgres"
	"payment-lifecycle/internal/infra/events"
	"payment-lifecycle/internal/infra/logging"
	"payment-lifecycle/internal/infra/metrics"
	red "payment-lifecycle/internal/infra/redis"
	"payment-lifecycle/internal/infra/sched"
	"payment-lifecycle/internal/infra/web"
	"payment-lifecycle/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logging)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	if err := pg.RunMigrations(cfg.Database.URL); err != nil {
		logger.Fatal().Err(err).Msg("migrations failed")
	}
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer redisClient.Close()
	eventDedup := red.NewEventDedup(redisClient, cfg.Redis.DedupTTL)
	cursorStore := red.NewCursorStore(redisClient)

	// ---- Repositories ----
	paymentRepo := pg.NewPaymentRepo(pool)
	transitionRepo := pg.NewTransitionLogRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Acquirer gateway ----
	gateway := acquirer.NewClient(cfg.Acquirer.BaseURL, cfg.Acquirer.ShopID, cfg.Acquirer.SecretKey, cfg.Acquirer.Timeout, logger)
	webhookVerifier := acquirer.NewWebhookVerifier(cfg.Acquirer.WebhookSecret)

	// ---- Use cases ----
	stateUC := usecase.NewStateUseCase(paymentRepo, transitionRepo, txManager, logger)
	paymentUC := usecase.NewPaymentUseCase(paymentRepo, transitionRepo, stateUC, gateway, logger)
	webhookUC := usecase.NewWebhookUseCase(webhookVerifier, paymentRepo, stateUC, eventDedup, logger)

	// ---- HTTP server ----
	authManager := web.NewAuthManager(cfg.API.JWTSecret, cfg.API.TokenTTL)
	srv := web.NewServer(paymentUC, webhookUC, authManager, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: srv.Routes(),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	// ---- Payment reconciler ----
	reconciler := sched.NewPaymentReconciler(paymentRepo, stateUC, gateway, cfg.Reconciler.Interval, cfg.Reconciler.StaleAfter, cfg.Reconciler.BatchSize, logger)
	go reconciler.Start(ctx)

	// ---- Status event publisher (optional) ----
	if len(cfg.Events.Brokers) > 0 {
		publisher := events.NewPublisher(cfg.Events.Brokers, cfg.Events.Topic, logger)
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error().Err(err).Msg("closing kafka publisher failed")
			}
		}()
		transitionPublisher := sched.NewTransitionPublisher(transitionRepo, cursorStore, publisher, cfg.Events.PollInterval, cfg.Reconciler.BatchSize, logger)
		go transitionPublisher.Start(ctx)
		logger.Info().Strs("brokers", cfg.Events.Brokers).Str("topic", cfg.Events.Topic).Msg("status event publishing enabled")
	}

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown failed")
	}
}
