package cache

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
)

const defaultFlagKeyPrefix = "flags:"

const flagMatchFingerprints = "match_fingerprints"

// RedisFeatureFlags resolves runtime overrides stored as plain string keys.
// An absent or unparsable key falls back to the configured default.
type RedisFeatureFlags struct {
	client          redis.UniversalClient
	prefix          string
	matchingDefault bool
}

func NewRedisFeatureFlags(client redis.UniversalClient, prefix string, matchingDefault bool) *RedisFeatureFlags {
	if strings.TrimSpace(prefix) == "" {
		prefix = defaultFlagKeyPrefix
	}
	return &RedisFeatureFlags{client: client, prefix: prefix, matchingDefault: matchingDefault}
}

func (f *RedisFeatureFlags) MatchingEnabled(ctx context.Context) (bool, error) {
	enabled, _, err := f.MatchingOverride(ctx)
	return enabled, err
}

// MatchingOverride reports the effective value and whether it came from an
// override key rather than the default.
func (f *RedisFeatureFlags) MatchingOverride(ctx context.Context) (enabled bool, overridden bool, err error) {
	raw, err := f.client.Get(ctx, f.key(flagMatchFingerprints)).Result()
	if errors.Is(err, redis.Nil) {
		return f.matchingDefault, false, nil
	}
	if err != nil {
		return f.matchingDefault, false, unavailable("read killswitch", err)
	}
	value, ok := parseFlag(raw)
	if !ok {
		return f.matchingDefault, false, nil
	}
	return value, true, nil
}

func (f *RedisFeatureFlags) SetMatchingEnabled(ctx context.Context, enabled bool) error {
	value := "0"
	if enabled {
		value = "1"
	}
	if err := f.client.Set(ctx, f.key(flagMatchFingerprints), value, 0).Err(); err != nil {
		return unavailable("write killswitch", err)
	}
	return nil
}

// ClearMatchingOverride removes the override so the default applies again.
func (f *RedisFeatureFlags) ClearMatchingOverride(ctx context.Context) error {
	if err := f.client.Del(ctx, f.key(flagMatchFingerprints)).Err(); err != nil {
		return unavailable("clear killswitch", err)
	}
	return nil
}

func (f *RedisFeatureFlags) key(name string) string {
	return f.prefix + name
}

func parseFlag(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "on", "yes":
		return true, true
	case "0", "false", "off", "no":
		return false, true
	default:
		return false, false
	}
}
