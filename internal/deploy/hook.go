package deploy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/doyensec/safeurl"
)

// DefaultHookTimeout bounds one webhook call.
const DefaultHookTimeout = 10 * time.Second

// Webhook POSTs to a hosting provider's deploy hook URL.
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook builds a webhook whose client refuses private, loopback and
// metadata addresses.
func NewWebhook(url string, timeout time.Duration) *Webhook {
	if timeout <= 0 {
		timeout = DefaultHookTimeout
	}
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("https").
		SetAllowedPorts(443).
		Build()
	return NewWebhookWithClient(url, safeurl.Client(config).Client)
}

// NewWebhookWithClient builds a webhook on an arbitrary client.
func NewWebhookWithClient(url string, client *http.Client) *Webhook {
	return &Webhook{url: url, client: client}
}

// Fire implements Hook.
func (w *Webhook) Fire(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, nil)
	if err != nil {
		return 0, fmt.Errorf("deploy: build hook request: %w", err)
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	return resp.StatusCode, nil
}
