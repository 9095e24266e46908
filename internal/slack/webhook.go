package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	logx "backrelay/pkg/logx"
)

// DeliveryError is a non-2xx response from a webhook endpoint.
type DeliveryError struct {
	Status int
	Body   string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("slack webhook: status %d: %s", e.Status, e.Body)
}

const maxErrorBody = 4 << 10

// WebhookClient posts messages to incoming webhooks. A shared limiter
// paces posts across all tenants; Slack throttles incoming webhooks at
// roughly one message per second per hook.
type WebhookClient struct {
	http    *http.Client
	limiter *rate.Limiter
	log     logx.Logger
}

func NewWebhookClient(timeout time.Duration, ratePerSec int, log logx.Logger) *WebhookClient {
	if ratePerSec <= 0 {
		ratePerSec = 1
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &WebhookClient{
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec),
		log:     log,
	}
}

// Post delivers one message. No retries; the caller decides what a
// failed delivery means for the rest of its batch.
func (c *WebhookClient) Post(ctx context.Context, webhookURL string, msg Message) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &DeliveryError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return nil
}
