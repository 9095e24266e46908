package backlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	logx "backrelay/pkg/logx"
)

// APIError is a non-2xx response from the notifications API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backlog api: status %d: %s", e.Status, e.Body)
}

// ErrMalformed marks a 2xx response whose body is not a JSON array of
// notifications. The fetcher treats it as end-of-pages, not a failure.
var ErrMalformed = errors.New("backlog api: malformed response")

const maxErrorBody = 4 << 10

// Client talks to one Backlog host family. It is stateless; the space,
// host and credential ride on each query so a single client serves all
// tenants.
type Client struct {
	http *http.Client
	log  logx.Logger

	// BaseURL overrides the https://<space>.<host> prefix when set.
	// Tests point it at an httptest server.
	BaseURL string
}

func NewClient(timeout time.Duration, log logx.Logger) *Client {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		http: &http.Client{Timeout: timeout},
		log:  log,
	}
}

// NotificationsQuery identifies one page request against one space.
type NotificationsQuery struct {
	Space  string
	Host   string
	APIKey string

	// Count is the page size (API max 100).
	Count int
	// MaxID, when > 0, asks for notifications with id <= MaxID.
	MaxID int64
}

// Notifications fetches one page, newest first.
func (c *Client) Notifications(ctx context.Context, q NotificationsQuery) ([]Notification, error) {
	base := c.BaseURL
	if base == "" {
		base = "https://" + q.Space + "." + q.Host
	}

	v := url.Values{}
	v.Set("count", strconv.Itoa(q.Count))
	v.Set("order", "desc")
	v.Set("apiKey", q.APIKey)
	if q.MaxID > 0 {
		v.Set("maxId", strconv.FormatInt(q.MaxID, 10))
	}
	u := base + "/api/v2/notifications?" + v.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var items []Notification
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return items, nil
}
