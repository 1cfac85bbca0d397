package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// LedgerAck is returned by the accounting ledger after accepting an entry.
type LedgerAck struct {
	EntryID  string `json:"entry_id"`
	Accepted bool   `json:"accepted"`
	Message  string `json:"message,omitempty"`
}

// LedgerClient posts completed sale entries to the external accounting ledger.
// Delivery is always driven through the outbox worker, never inline with the
// sale transaction.
type LedgerClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewLedgerClient(baseURL string) *LedgerClient {
	return &LedgerClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Post sends one serialized outbox payload to POST /entries.
func (c *LedgerClient) Post(ctx context.Context, payload []byte) (*LedgerAck, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/entries", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ledger: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ledger: unreachable: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
	default:
		return nil, fmt.Errorf("ledger: returned %d", resp.StatusCode)
	}

	var ack LedgerAck
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return nil, fmt.Errorf("ledger: decode response: %w", err)
	}
	if !ack.Accepted {
		return nil, fmt.Errorf("ledger: entry rejected: %s", ack.Message)
	}
	return &ack, nil
}
