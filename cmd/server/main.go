package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/config"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/infra"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/router"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ledgerCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())

	r, ledgerWorker, outboxRepo := router.New(cfg, db, rdb, ledgerCB)

	// Goroutine worker pool delivers outbox rows; the retry cron re-enqueues
	// rows whose delivery failed or whose enqueue was lost.
	worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, worker.Handlers{Ledger: ledgerWorker})
	worker.StartRetryCron(ctx, worker.RetryCronConfig{
		OutboxRepo: outboxRepo,
		Worker:     ledgerWorker,
		CB:         ledgerCB,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("POS backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
