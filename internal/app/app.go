// Package app wires the relay together: config file -> logging ->
// property store -> HTTP clients -> runner, plus the daemon-mode cron
// trigger, config hot reload, and systemd readiness notification.
package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/robfig/cron/v3"

	"backrelay/internal/backlog"
	"backrelay/internal/config"
	"backrelay/internal/props"
	"backrelay/internal/relay"
	"backrelay/internal/slack"
	logx "backrelay/pkg/logx"
)

type App struct {
	cfgPath string

	mu  sync.Mutex
	cfg *config.Config

	logSvc *logx.Service
	log    logx.Logger

	store  props.Store
	runner *relay.Runner

	cron *cron.Cron
}

func New(cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", cfgPath, err)
	}

	logSvc, log := logx.New(logCfg(cfg))

	httpTimeout, err := config.ParseDurationOrDefault("http_timeout", cfg.HTTPTimeout, config.DefaultHTTPTimeout)
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	busy, err := config.ParseDurationField("props.busy_timeout", cfg.Props.BusyTimeout)
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}

	store, err := props.Open(props.Config{
		Driver:      cfg.Props.Driver,
		Path:        cfg.Props.Path,
		BusyTimeout: busy,
	}, log)
	if err != nil {
		_ = logSvc.Close()
		return nil, fmt.Errorf("opening property store: %w", err)
	}

	client := backlog.NewClient(httpTimeout, log)
	hooks := slack.NewWebhookClient(httpTimeout, cfg.Slack.RatePerSec, log)

	runner := relay.NewRunner(store, client, hooks, log)
	runner.DefaultHost = cfg.Host
	runner.ContinueOnError = cfg.ContinueOnError

	return &App{
		cfgPath: cfgPath,
		cfg:     cfg,
		logSvc:  logSvc,
		log:     log,
		store:   store,
		runner:  runner,
	}, nil
}

// RunOnce performs a single relay pass over all tenants.
func (a *App) RunOnce(ctx context.Context) error {
	return a.runner.Run(ctx)
}

// TestWebhook sends the fixed test message through the legacy webhook.
func (a *App) TestWebhook(ctx context.Context) error {
	return a.runner.Test(ctx)
}

// Start enters daemon mode: schedule RunOnce on the configured cron
// spec, watch the config file, and signal readiness to systemd.
// It returns immediately; the caller waits on ctx.
func (a *App) Start(ctx context.Context) error {
	loc := time.Local
	if tz := strings.TrimSpace(a.cfg.Timezone); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return fmt.Errorf("timezone %q: %w", tz, err)
		}
		loc = l
	}

	// SkipIfStillRunning keeps a slow pass from overlapping the next
	// trigger within this process.
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	_, err := c.AddFunc(a.cfg.Schedule, func() {
		if err := a.runner.Run(ctx); err != nil {
			a.log.Error("relay run failed", logx.Err(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", a.cfg.Schedule, err)
	}
	a.cron = c
	c.Start()

	go func() {
		_ = config.Watch(ctx, a.cfgPath, a.log, a.applyReload)
	}()

	// No-op outside systemd.
	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)

	a.log.Info("daemon started",
		logx.String("schedule", a.cfg.Schedule),
		logx.String("tz", loc.String()),
		logx.String("props", a.cfg.Props.Driver))
	return nil
}

// applyReload handles a config file change while the daemon runs. Only
// logging settings are safe to swap live; anything touching the cron
// schedule or the property store needs a restart and just logs.
func (a *App) applyReload(cfg *config.Config) {
	a.mu.Lock()
	old := a.cfg
	a.cfg = cfg
	a.mu.Unlock()

	a.logSvc.Apply(logCfg(cfg))

	if cfg.Schedule != old.Schedule || cfg.Timezone != old.Timezone {
		a.log.Warn("schedule changed in config; restart to apply",
			logx.String("old", old.Schedule), logx.String("new", cfg.Schedule))
	}
	if cfg.Props != old.Props {
		a.log.Warn("props backend changed in config; restart to apply")
	}
}

func (a *App) Stop(ctx context.Context) error {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	if a.cron != nil {
		select {
		case <-a.cron.Stop().Done():
		case <-ctx.Done():
		}
	}

	err := a.store.Close()
	_ = a.logSvc.Close()
	return err
}

func logCfg(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}
