package worker

// ledger_worker.go
// Delivers committed outbox rows to the external accounting ledger.
// Delivery always goes through the circuit breaker; failures schedule
// retries with exponential backoff, exhausted rows go to the DLQ.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/infra"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// MaxDeliveryAttempts is how many times one outbox row is tried before it is
// marked failed and parked in the DLQ.
const MaxDeliveryAttempts = 5

// LedgerJobPayload is the job envelope sent to QueueLedger.
type LedgerJobPayload struct {
	OutboxID string `json:"outbox_id"`
}

// LedgerEntryPayload is the document stored in the outbox row and posted to
// the ledger service verbatim.
type LedgerEntryPayload struct {
	SaleID       string          `json:"sale_id"`
	TicketNumber string          `json:"ticket_number"`
	StoreID      string          `json:"store_id"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	TaxAmount    decimal.Decimal `json:"tax_amount"`
	Total        decimal.Decimal `json:"total"`
	CreatedAt    string          `json:"created_at"`
}

// LedgerWorker processes delivery jobs from QueueLedger.
type LedgerWorker struct {
	client *infra.LedgerClient
	repo   repository.OutboxRepository
	cb     *infra.CircuitBreaker
	rdb    *redis.Client
}

func NewLedgerWorker(client *infra.LedgerClient, repo repository.OutboxRepository, cb *infra.CircuitBreaker, rdb *redis.Client) *LedgerWorker {
	return &LedgerWorker{client: client, repo: repo, cb: cb, rdb: rdb}
}

// Process handles a single delivery job:
//  1. Parse LedgerJobPayload from the job envelope
//  2. Load the outbox row; skip when already delivered
//  3. Post through the circuit breaker
//  4. Mark delivered, or schedule a retry / park in DLQ
func (w *LedgerWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload LedgerJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("ledger_worker: invalid payload")
		return
	}
	outboxID, err := uuid.Parse(payload.OutboxID)
	if err != nil {
		log.Error().Str("outbox_id", payload.OutboxID).Msg("ledger_worker: invalid outbox_id")
		return
	}

	entry, err := w.repo.FindByID(ctx, outboxID)
	if err != nil {
		log.Error().Err(err).Str("outbox_id", payload.OutboxID).Msg("ledger_worker: outbox row not found")
		return
	}
	if entry.Status == "delivered" {
		return
	}

	w.Deliver(ctx, entry.ID, entry.SaleID, []byte(entry.Payload), entry.Attempts)
}

// Deliver posts one outbox payload and updates its row. Shared with the retry
// cron so both paths count attempts the same way.
func (w *LedgerWorker) Deliver(ctx context.Context, outboxID, saleID uuid.UUID, payload []byte, attempts int) {
	cbErr := w.cb.Execute(func() error {
		_, err := w.client.Post(ctx, payload)
		return err
	})
	if cbErr == nil {
		if err := w.repo.MarkDelivered(ctx, outboxID); err != nil {
			log.Error().Err(err).Str("outbox_id", outboxID.String()).Msg("ledger_worker: mark delivered failed")
			return
		}
		log.Info().
			Str("sale_id", saleID.String()).
			Int("attempts", attempts+1).
			Msg("ledger_worker: entry delivered")
		return
	}

	attempts++
	if attempts >= MaxDeliveryAttempts {
		if err := w.repo.MarkFailed(ctx, outboxID, attempts, nil, cbErr.Error()); err != nil {
			log.Error().Err(err).Str("outbox_id", outboxID.String()).Msg("ledger_worker: mark failed failed")
		}
		dlqPayload := fmt.Sprintf(`{"outbox_id":%q,"sale_id":%q}`, outboxID, saleID)
		SendToDLQ(ctx, w.rdb, QueueLedger, "ledger", []byte(dlqPayload),
			fmt.Sprintf("max attempts (%d) exceeded: %s", MaxDeliveryAttempts, cbErr), attempts)
		return
	}

	nextRetry := time.Now().Add(computeRetryBackoff(attempts))
	if err := w.repo.MarkFailed(ctx, outboxID, attempts, &nextRetry, cbErr.Error()); err != nil {
		log.Error().Err(err).Str("outbox_id", outboxID.String()).Msg("ledger_worker: schedule retry failed")
		return
	}
	log.Warn().
		Err(cbErr).
		Str("sale_id", saleID.String()).
		Int("attempts", attempts).
		Time("next_retry_at", nextRetry).
		Msg("ledger_worker: delivery failed, retry scheduled")
}

// computeRetryBackoff returns the wait before the next attempt:
// 1m, 5m, 25m, 125m …
func computeRetryBackoff(attempts int) time.Duration {
	wait := time.Minute
	for i := 1; i < attempts; i++ {
		wait *= 5
	}
	return wait
}
