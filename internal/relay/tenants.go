package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"backrelay/internal/props"
)

const (
	// WatermarkKeyPrefix prefixes every persisted watermark key. The
	// legacy single-tenant setup stores its watermark under the bare
	// prefix with no suffix.
	WatermarkKeyPrefix = "LAST_NOTIFICATION_ID"

	configsKey       = "BACKLOG_CONFIGS"
	legacySpaceKey   = "BACKLOG_SPACE_ID"
	legacyAPIKeyKey  = "BACKLOG_API_KEY"
	legacyWebhookKey = "SLACK_WEBHOOK_URL"
)

// TenantConfig is one polling target: a Backlog space, its credential,
// and the webhook its notifications go to. Constructed once per run
// from the property store and immutable afterwards.
type TenantConfig struct {
	SpaceID    string
	APIKey     string
	WebhookURL string
	Label      string
	Host       string // empty = process default
	StorageKey string // unique within a run
}

// ConfigError is malformed or missing configuration. It aborts the
// whole run before any tenant is processed.
type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string { return "config: " + e.msg }

func configErrorf(format string, args ...any) *ConfigError {
	return &ConfigError{msg: fmt.Sprintf(format, args...)}
}

// ResolveTenants loads tenant configs from the property store: the
// BACKLOG_CONFIGS JSON array when present, else the legacy flat
// properties (exactly one tenant, bare watermark key).
func ResolveTenants(ctx context.Context, store props.Store) ([]TenantConfig, error) {
	raw, ok, err := store.Get(ctx, configsKey)
	if err != nil {
		return nil, err
	}
	if ok && strings.TrimSpace(raw) != "" {
		tenants, err := parseTenantList(raw)
		if err != nil {
			return nil, err
		}
		return uniqueStorageKeys(tenants), nil
	}
	return resolveLegacy(ctx, store)
}

func resolveLegacy(ctx context.Context, store props.Store) ([]TenantConfig, error) {
	space, err := legacyProp(ctx, store, legacySpaceKey)
	if err != nil {
		return nil, err
	}
	apiKey, err := legacyProp(ctx, store, legacyAPIKeyKey)
	if err != nil {
		return nil, err
	}
	webhook, err := legacyProp(ctx, store, legacyWebhookKey)
	if err != nil {
		return nil, err
	}
	if space == "" && apiKey == "" && webhook == "" {
		return nil, configErrorf("no configuration: set %s or the legacy %s/%s/%s properties",
			configsKey, legacySpaceKey, legacyAPIKeyKey, legacyWebhookKey)
	}
	for key, v := range map[string]string{
		legacySpaceKey:   space,
		legacyAPIKeyKey:  apiKey,
		legacyWebhookKey: webhook,
	} {
		if v == "" {
			return nil, configErrorf("legacy configuration: missing or empty %s", key)
		}
	}

	return []TenantConfig{{
		SpaceID:    space,
		APIKey:     apiKey,
		WebhookURL: webhook,
		Label:      space,
		StorageKey: WatermarkKeyPrefix,
	}}, nil
}

func legacyProp(ctx context.Context, store props.Store, key string) (string, error) {
	v, _, err := store.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(v), nil
}

// parseTenantList validates the BACKLOG_CONFIGS array. Validation is
// fail-fast: the first invalid element aborts with its 1-based position.
func parseTenantList(raw string) ([]TenantConfig, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elems); err != nil {
		return nil, configErrorf("%s is not a JSON array: %v", configsKey, err)
	}
	if len(elems) == 0 {
		return nil, configErrorf("%s is an empty array", configsKey)
	}

	tenants := make([]TenantConfig, 0, len(elems))
	for i, el := range elems {
		pos := i + 1

		var obj map[string]any
		if err := json.Unmarshal(el, &obj); err != nil || obj == nil {
			return nil, configErrorf("configs[%d]: element is not an object", pos)
		}

		space := strField(obj, "space")
		if space == "" {
			return nil, configErrorf("configs[%d]: missing or empty %q", pos, "space")
		}
		apiKey := strField(obj, "apiKey", "apikey")
		if apiKey == "" {
			return nil, configErrorf("configs[%d]: missing or empty %q", pos, "apiKey")
		}
		webhook := strField(obj, "webhook", "webhookUrl", "slackWebhookUrl")
		if webhook == "" {
			return nil, configErrorf("configs[%d]: missing or empty %q", pos, "webhook")
		}

		label := firstNonEmpty(
			strField(obj, "id"),
			strField(obj, "identifier"),
			strField(obj, "label"),
			strField(obj, "name"),
			space,
		)
		if label == "" {
			label = fmt.Sprintf("workspace-%d", pos)
		}

		tenants = append(tenants, TenantConfig{
			SpaceID:    space,
			APIKey:     apiKey,
			WebhookURL: webhook,
			Label:      label,
			Host:       strField(obj, "host"),
			StorageKey: storageKeyFor(strField(obj, "storageKey"), label),
		})
	}
	return tenants, nil
}

// strField returns the first of the named fields holding a non-empty
// JSON string. Non-string values count as missing.
func strField(obj map[string]any, names ...string) string {
	for _, name := range names {
		if s, ok := obj[name].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// storageKeyFor derives a tenant's watermark key. An explicit key that
// already carries the prefix is used verbatim; anything else is slugged
// under the prefix so operators can't accidentally write watermarks
// into unrelated properties.
func storageKeyFor(explicit, label string) string {
	if explicit != "" && strings.HasPrefix(explicit, WatermarkKeyPrefix) {
		return explicit
	}
	base := explicit
	if base == "" {
		base = label
	}
	slug := slugify(base)
	if slug == "" {
		slug = "workspace"
	}
	return WatermarkKeyPrefix + "__" + slug
}

// slugify lower-cases and collapses every run of non-alphanumeric
// characters into a single underscore, trimming the ends.
func slugify(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	pending := false
	for _, r := range s {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if alnum {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}

// uniqueStorageKeys guarantees distinct watermark keys across the run.
// Identical labels (or explicit keys) would otherwise share a watermark
// and silently swallow each other's notifications.
func uniqueStorageKeys(tenants []TenantConfig) []TenantConfig {
	claimed := make(map[string]bool, len(tenants))
	for i := range tenants {
		key := tenants[i].StorageKey
		if key == "" {
			key = fmt.Sprintf("%s__workspace_%d", WatermarkKeyPrefix, i+1)
		}
		if claimed[key] {
			for n := 2; ; n++ {
				cand := fmt.Sprintf("%s_%d", key, n)
				if !claimed[cand] {
					key = cand
					break
				}
			}
		}
		claimed[key] = true
		tenants[i].StorageKey = key
	}
	return tenants
}
