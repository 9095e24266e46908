package relay

import (
	"context"
	"strconv"
	"strings"

	"backrelay/internal/props"
)

// Watermarks persists, per tenant, the highest notification id already
// relayed. Values are decimal strings in the property store; an absent
// or unparsable value reads as 0 (relay everything unread).
type Watermarks struct {
	store props.Store
}

func NewWatermarks(store props.Store) *Watermarks {
	return &Watermarks{store: store}
}

func (w *Watermarks) Get(ctx context.Context, key string) (int64, error) {
	v, ok, err := w.store.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || id < 0 {
		return 0, nil
	}
	return id, nil
}

func (w *Watermarks) Put(ctx context.Context, key string, id int64) error {
	return w.store.Put(ctx, key, strconv.FormatInt(id, 10))
}
