package props

import (
	"context"
	"sync"
)

// Mem is an in-memory Store. Used by tests and by the "mem" driver.
type Mem struct {
	mu sync.Mutex
	m  map[string]string
}

func NewMem() *Mem {
	return &Mem{m: map[string]string{}}
}

func (s *Mem) Get(ctx context.Context, key string) (string, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *Mem) Put(ctx context.Context, key, value string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *Mem) Close() error { return nil }
