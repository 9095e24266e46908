package relay

import (
	"context"
	"fmt"
	"sort"

	"backrelay/internal/backlog"
	"backrelay/internal/slack"
	logx "backrelay/pkg/logx"
)

// WebhookPoster is the delivery side of the relay. Satisfied by
// *slack.WebhookClient.
type WebhookPoster interface {
	Post(ctx context.Context, webhookURL string, msg slack.Message) error
}

// Dispatcher delivers a fetched batch to a tenant's webhook.
type Dispatcher struct {
	hooks WebhookPoster
	log   logx.Logger
}

func NewDispatcher(hooks WebhookPoster, log logx.Logger) *Dispatcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Dispatcher{hooks: hooks, log: log}
}

// Dispatch posts the batch in ascending id order, so messages land in
// the channel chronologically no matter what order the scan produced.
// The first failed delivery aborts the remainder and returns how many
// went out; delivered messages are not rolled back.
func (d *Dispatcher) Dispatch(ctx context.Context, t TenantConfig, host string, items []backlog.Notification) (int, error) {
	if len(items) == 0 {
		d.log.Info("no new notifications", logx.String("tenant", t.Label))
		return 0, nil
	}

	sorted := append([]backlog.Notification(nil), items...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for i := range sorted {
		msg := BuildMessage(t.SpaceID, host, sorted[i])
		if err := d.hooks.Post(ctx, t.WebhookURL, msg); err != nil {
			return i, fmt.Errorf("delivering notification %d: %w", sorted[i].ID, err)
		}
		d.log.Debug("notification delivered",
			logx.String("tenant", t.Label),
			logx.Int64("id", sorted[i].ID),
			logx.String("kind", sorted[i].Kind().String()))
	}
	return len(sorted), nil
}
