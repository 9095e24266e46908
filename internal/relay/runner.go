package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"backrelay/internal/props"
	"backrelay/internal/slack"
	logx "backrelay/pkg/logx"
)

// testMessage is what the webhook test entry point posts.
const testMessage = "Backlog通知のテスト送信です。"

// Runner orchestrates one relay pass: resolve tenants once, then for
// each tenant read watermark → fetch → dispatch → advance watermark.
// Tenants are processed strictly sequentially.
type Runner struct {
	store   props.Store
	fetcher *Fetcher
	disp    *Dispatcher
	hooks   WebhookPoster
	marks   *Watermarks
	log     logx.Logger

	// DefaultHost serves tenants without their own host override.
	DefaultHost string

	// ContinueOnError isolates a failing tenant and keeps going; when
	// false (the default), the first tenant failure aborts the run.
	ContinueOnError bool
}

func NewRunner(store props.Store, lister NotificationLister, hooks WebhookPoster, log logx.Logger) *Runner {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Runner{
		store:       store,
		fetcher:     NewFetcher(lister, log),
		disp:        NewDispatcher(hooks, log),
		hooks:       hooks,
		marks:       NewWatermarks(store),
		log:         log,
		DefaultHost: "backlog.jp",
	}
}

// Run processes all configured tenants. A ConfigError aborts before any
// tenant is touched.
func (r *Runner) Run(ctx context.Context) error {
	tenants, err := ResolveTenants(ctx, r.store)
	if err != nil {
		return err
	}

	var errs []error
	for _, t := range tenants {
		if err := r.runTenant(ctx, t); err != nil {
			err = fmt.Errorf("tenant %s: %w", t.Label, err)
			if !r.ContinueOnError {
				return err
			}
			r.log.Error("tenant failed; continuing", logx.Err(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Runner) runTenant(ctx context.Context, t TenantConfig) error {
	host := t.Host
	if host == "" {
		host = r.DefaultHost
	}

	before, err := r.marks.Get(ctx, t.StorageKey)
	if err != nil {
		return err
	}

	res, err := r.fetcher.Fetch(ctx, t.SpaceID, host, t.APIKey, before)
	if err != nil {
		return err
	}

	delivered, derr := r.disp.Dispatch(ctx, t, host, res.New)

	// The watermark follows the fetch, not the delivery. When delivery
	// fails mid-batch the rest of that batch is gone for good on the
	// next run — accepted at-most-once tradeoff, not a guarantee.
	after := before
	if res.MaxID > before {
		after = res.MaxID
		if perr := r.marks.Put(ctx, t.StorageKey, res.MaxID); perr != nil {
			derr = errors.Join(derr, fmt.Errorf("storing watermark: %w", perr))
		}
	}

	r.log.Info("tenant processed",
		logx.String("tenant", t.Label),
		logx.Int("new", len(res.New)),
		logx.Int("delivered", delivered),
		logx.Int("pages", res.Pages),
		logx.Int64("watermark_before", before),
		logx.Int64("watermark_after", after))

	return derr
}

// Test posts a fixed text message through the legacy-configured webhook,
// bypassing the fetch/dispatch path entirely.
func (r *Runner) Test(ctx context.Context) error {
	hook, ok, err := r.store.Get(ctx, legacyWebhookKey)
	if err != nil {
		return err
	}
	hook = strings.TrimSpace(hook)
	if !ok || hook == "" {
		return configErrorf("%s is not set", legacyWebhookKey)
	}
	return r.hooks.Post(ctx, hook, slack.Message{Text: testMessage})
}
