package props

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	logx "backrelay/pkg/logx"
)

// fileStore is a dependency-free persistence backend.
//
// The whole namespace lives in one JSON document (<path>.json). Writes
// rewrite the document through a temp file + rename so a crash mid-write
// never leaves a torn file behind. Volume is tiny here (a handful of
// keys, one write per tenant per run), so whole-document rewrites are
// cheaper than keeping a journal.
type fileStore struct {
	log logx.Logger

	mu   sync.Mutex
	path string
	m    map[string]string
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("props.path is required for file driver")
	}
	if filepath.Ext(path) == "" {
		path += ".json"
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	m := map[string]string{}
	if err := loadDocument(path, m); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	return &fileStore{log: log, path: path, m: m}, nil
}

func (s *fileStore) Get(ctx context.Context, key string) (string, bool, error) {
	_ = ctx
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *fileStore) Put(ctx context.Context, key, value string) error {
	_ = ctx
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		s.m = map[string]string{}
	}
	s.m[key] = value
	return s.flushLocked()
}

func (s *fileStore) Close() error { return nil }

func (s *fileStore) flushLocked() error {
	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.m); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func loadDocument(path string, out map[string]string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	var m map[string]string
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return err
	}
	for k, v := range m {
		out[k] = v
	}
	return nil
}
