package props

import (
	"context"
	"errors"
	"strings"
	"time"

	logx "backrelay/pkg/logx"
)

// Store is the flat key/value persistence API used by the relay.
//
// Get reports ok=false for absent keys. Put overwrites unconditionally.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Put(ctx context.Context, key, value string) error
	Close() error
}

// Config configures the property store.
//
// Driver values:
//   - "file": dependency-free single JSON document
//   - "sqlite": SQLite database file
//   - "mem": in-memory (lost on exit; tests and dry runs)
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	case "mem", "memory":
		return NewMem(), nil
	default:
		return nil, errors.New("unknown props driver: " + cfg.Driver)
	}
}
