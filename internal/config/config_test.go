package config

import (
	"strings"
	"testing"
	"time"
)

func TestParseYAMLWithDefaults(t *testing.T) {
	t.Parallel()
	raw := `
logging:
  level: debug
  console: true
props:
  driver: sqlite
  path: ./state.db
  busy_timeout: 2s
`
	cfg, err := Parse("config.yaml", []byte(raw))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if cfg.Schedule != DefaultSchedule {
		t.Fatalf("Schedule = %q, want default", cfg.Schedule)
	}
	if cfg.Host != DefaultHost {
		t.Fatalf("Host = %q, want default", cfg.Host)
	}
	if cfg.Logging.Level != "debug" || !cfg.Logging.Console {
		t.Fatalf("Logging = %+v", cfg.Logging)
	}
	if cfg.Props.Driver != "sqlite" || cfg.Props.Path != "./state.db" {
		t.Fatalf("Props = %+v", cfg.Props)
	}
	if cfg.Slack.RatePerSec != 1 {
		t.Fatalf("Slack.RatePerSec = %d, want 1", cfg.Slack.RatePerSec)
	}
}

func TestParseJSON(t *testing.T) {
	t.Parallel()
	raw := `{
		"schedule": "0 * * * *",
		"host": "backlog.com",
		"continue_on_error": true,
		"logging": {"level": "info", "console": true, "file": {"enabled": false, "path": ""}},
		"props": {"driver": "file", "path": "./p"}
	}`
	cfg, err := Parse("config.json", []byte(raw))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if cfg.Schedule != "0 * * * *" || cfg.Host != "backlog.com" || !cfg.ContinueOnError {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	_, err := Parse("config.json", []byte(`{"shcedule": "* * * * *"}`))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
	if !strings.Contains(err.Error(), "shcedule") {
		t.Fatalf("error %q should name the unknown field", err)
	}
}

func TestParseRejectsTrailingData(t *testing.T) {
	t.Parallel()
	_, err := Parse("config.json", []byte(`{}{}`))
	if err == nil {
		t.Fatal("expected error for trailing data")
	}
}

func TestParseRejectsBadDuration(t *testing.T) {
	t.Parallel()
	_, err := Parse("config.json", []byte(`{"http_timeout": "soon"}`))
	if err == nil {
		t.Fatal("expected error for bad duration")
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"10s", 10 * time.Second, false},
		{" 1m ", time.Minute, false},
		{"-5s", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDurationField("f", tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseDurationField(%q): expected error", tt.raw)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("ParseDurationField(%q) = %v, %v", tt.raw, got, err)
		}
	}
}

func TestParseDurationOrDefault(t *testing.T) {
	t.Parallel()
	got, err := ParseDurationOrDefault("f", "", 30*time.Second)
	if err != nil || got != 30*time.Second {
		t.Fatalf("default not applied: %v, %v", got, err)
	}
	got, err = ParseDurationOrDefault("f", "5s", 30*time.Second)
	if err != nil || got != 5*time.Second {
		t.Fatalf("explicit value ignored: %v, %v", got, err)
	}
}
