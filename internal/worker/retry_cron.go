package worker

// retry_cron.go
// Background goroutine that periodically re-attempts delivery of outbox rows
// stuck in status='pending' with next_retry_at in the past, plus rows whose
// original enqueue was lost. Uses the circuit breaker state to avoid
// hammering a downed ledger service.

import (
	"context"
	"time"

	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/infra"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/repository"

	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10
)

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	OutboxRepo repository.OutboxRepository
	Worker     *LedgerWorker
	CB         *infra.CircuitBreaker
}

// StartRetryCron launches a background goroutine that ticks every 30s,
// queries due outbox rows, and re-attempts delivery through the CB.
// It respects the context for graceful shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg)
			}
		}
	}()
}

func processRetries(ctx context.Context, cfg RetryCronConfig) {
	// If CB is open, skip entirely — don't hammer a downed ledger
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("retry_cron: circuit breaker is open, skipping tick")
		return
	}

	entries, err := cfg.OutboxRepo.FindDue(ctx, time.Now(), retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query due outbox rows")
		return
	}
	if len(entries) == 0 {
		return
	}

	log.Info().Int("count", len(entries)).Msg("retry_cron: processing due outbox rows")

	for i := range entries {
		// CB may have tripped mid-batch
		if cfg.CB.State() == infra.CBOpen {
			log.Debug().Msg("retry_cron: circuit breaker opened mid-batch, stopping")
			return
		}
		e := &entries[i]
		cfg.Worker.Deliver(ctx, e.ID, e.SaleID, []byte(e.Payload), e.Attempts)
	}
}
