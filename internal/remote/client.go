// ABOUTME: HTTP client for a peer memory service sharing the same learner
// ABOUTME: Shared-secret auth, hard timeout, fail-soft by design
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mrbrandonmills/professor-carl-memory/internal/config"
	"github.com/mrbrandonmills/professor-carl-memory/internal/models"
)

// secretHeader carries the shared secret on every request
const secretHeader = "X-Memory-Secret"

// Memory is one remote record in wire form. Peers exchange summaries, not
// full records; embeddings and counters stay local to each service.
type Memory struct {
	Summary    string  `json:"summary"`
	Category   string  `json:"category"`
	Importance float64 `json:"importance"`
}

// ContextResponse is the peer's answer to a context request
type ContextResponse struct {
	Facts []Memory `json:"facts"`
	Notes []Memory `json:"notes"`
}

type contextRequest struct {
	OwnerID string `json:"owner_id"`
	Topic   string `json:"topic,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// Client talks to one configured peer memory service
type Client struct {
	baseURL string
	secret  string
	http    *http.Client
}

// NewClient builds a client from configuration. Missing URL or secret
// yields an unconfigured client whose fetches fail immediately.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL: cfg.RemoteURL,
		secret:  cfg.RemoteSecret,
		http:    &http.Client{Timeout: cfg.RemoteTimeout},
	}
}

// Configured reports whether a peer is set up. The secret is part of the
// contract; a URL without one means no authenticated call can be made.
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.secret != ""
}

// FetchContext asks the peer for its memories about a learner. The client
// timeout bounds the call; callers treat any error as "peer unavailable".
func (c *Client) FetchContext(ctx context.Context, ownerID, topic string, limit int) (*ContextResponse, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("%w: no remote memory service configured", models.ErrUpstream)
	}

	body, err := json.Marshal(contextRequest{OwnerID: ownerID, Topic: topic, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/context", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(secretHeader, c.secret)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: remote fetch failed after %v: %v", models.ErrUpstream, time.Since(start).Round(time.Millisecond), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: remote returned status %d", models.ErrUpstream, resp.StatusCode)
	}

	var out ContextResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: failed to decode remote response: %v", models.ErrUpstream, err)
	}
	return &out, nil
}
