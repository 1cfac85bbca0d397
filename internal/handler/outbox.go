package handler

import (
	"net/http"
	"strconv"

	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/apierror"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/repository"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OutboxHandler exposes the ledger outbox for supervisors: inspect what has
// not reached the ledger yet and force a redelivery attempt.
type OutboxHandler struct {
	repo       repository.OutboxRepository
	dispatcher *worker.Dispatcher
}

func NewOutboxHandler(repo repository.OutboxRepository, dispatcher *worker.Dispatcher) *OutboxHandler {
	return &OutboxHandler{repo: repo, dispatcher: dispatcher}
}

// ListUndelivered returns pending and failed outbox rows.
func (h *OutboxHandler) ListUndelivered(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}
	entries, err := h.repo.ListUndelivered(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries})
}

// Redeliver re-enqueues one outbox row regardless of its retry schedule.
func (h *OutboxHandler) Redeliver(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid outbox id"))
		return
	}
	entry, err := h.repo.FindByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("outbox row not found"))
		return
	}
	if entry.Status == "delivered" {
		c.JSON(http.StatusConflict, apierror.New("entry already delivered"))
		return
	}
	if err := h.dispatcher.EnqueueLedger(c.Request.Context(), worker.LedgerJobPayload{OutboxID: entry.ID.String()}); err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "enqueued"})
}
