// Package config loads backrelay's application config file.
//
// The file may be JSON or YAML; YAML is coerced to JSON bytes so both
// formats share one strict decoder (DisallowUnknownFields). Tenant
// definitions do NOT live here — they come from the property store
// (see internal/relay). This file only configures the process itself:
// trigger schedule, logging, property-store backend, HTTP knobs.
package config

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	// Schedule is a 5-field cron spec for daemon mode.
	Schedule string `json:"schedule,omitempty"`

	// Timezone is an IANA zone name for the cron schedule.
	// Empty means the process-local zone.
	Timezone string `json:"timezone,omitempty"`

	// Host is the default Backlog host (e.g. "backlog.jp", "backlog.com").
	// Individual tenants may override it with their own "host" field.
	Host string `json:"host,omitempty"`

	// HTTPTimeout is a Go duration string applied to outbound HTTP calls
	// (notifications API and webhook posts).
	HTTPTimeout string `json:"http_timeout,omitempty"`

	// ContinueOnError isolates a failing tenant and keeps processing the
	// remaining ones instead of aborting the whole run.
	ContinueOnError bool `json:"continue_on_error,omitempty"`

	Logging LoggingConfig `json:"logging"`
	Props   PropsConfig   `json:"props"`
	Slack   SlackConfig   `json:"slack,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// PropsConfig selects the property-store backend holding tenant
// definitions and watermarks.
//
// Example:
//
//	"props": { "driver": "file", "path": "./backrelay_props" }
type PropsConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

type SlackConfig struct {
	// RatePerSec caps outbound webhook posts. Slack throttles incoming
	// webhooks at roughly one message per second.
	RatePerSec int `json:"rate_per_sec,omitempty"`
}

const (
	DefaultSchedule    = "*/5 * * * *"
	DefaultHost        = "backlog.jp"
	DefaultHTTPTimeout = 30 * time.Second
)

// applyDefaults fills zero-valued fields after a successful parse.
func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Schedule) == "" {
		c.Schedule = DefaultSchedule
	}
	if strings.TrimSpace(c.Host) == "" {
		c.Host = DefaultHost
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = "info"
	}
	if strings.TrimSpace(c.Props.Driver) == "" {
		c.Props.Driver = "file"
	}
	if c.Props.Driver == "file" && strings.TrimSpace(c.Props.Path) == "" {
		c.Props.Path = "./backrelay_props"
	}
	if c.Slack.RatePerSec <= 0 {
		c.Slack.RatePerSec = 1
	}
}

func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}
