// Package delivery hands generated replies to the outbound WhatsApp channel
// and tracks the outcome of each attempt.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/leo-o93/treinoai-acesso-seguro-sub001/internal/config"
)

// Dispatcher forwards one reply to the outbound channel. The transport
// itself lives in the external workflow engine; this side only hands over
// the (recipient, text) pair.
type Dispatcher interface {
	Dispatch(ctx context.Context, recipient, text string) error
}

// HTTPDispatcher posts replies to the workflow engine's webhook endpoint.
type HTTPDispatcher struct {
	url    string
	token  string
	client *http.Client
}

// NewHTTPDispatcher creates an HTTPDispatcher from outbound configuration.
func NewHTTPDispatcher(cfg config.OutboundConfig) (*HTTPDispatcher, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("delivery: outbound url is required")
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPDispatcher{
		url:    cfg.URL,
		token:  cfg.Token,
		client: &http.Client{Timeout: timeout},
	}, nil
}

var _ Dispatcher = (*HTTPDispatcher)(nil)

// outboundPayload is the JSON body the workflow engine expects.
type outboundPayload struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// Dispatch posts the reply. Any non-2xx response is a failure.
func (d *HTTPDispatcher) Dispatch(ctx context.Context, recipient, text string) error {
	body, err := json.Marshal(outboundPayload{To: recipient, Message: text})
	if err != nil {
		return fmt.Errorf("delivery: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("delivery: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("delivery: dispatch to %s: %w", recipient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("delivery: dispatch to %s: status %d", recipient, resp.StatusCode)
	}
	return nil
}
