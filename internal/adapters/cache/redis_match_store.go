package cache

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/viralforge/mesh/services/integrations/M93-deferred-deeplink-service/internal/domain"
)

const (
	deeplinkKeyPrefix    = "ddl:"
	fingerprintKeyPrefix = "fingerprint:"
)

//go:embed lpop_while.lua
var lpopWhileSource string

var lpopWhileScript = redis.NewScript(lpopWhileSource)

// RedisMatchStore keeps each candidate under ddl:<id> and pushes a copy onto
// fingerprint:<digest>. Pushes and pops both use the list head, so the
// newest candidate for a fingerprint is always tried first.
type RedisMatchStore struct {
	client    redis.UniversalClient
	getWindow time.Duration
	queueTTL  time.Duration
}

// NewRedisMatchStore builds a store whose records live for getWindow and
// whose fingerprint queues live queueTTL past their latest push.
func NewRedisMatchStore(client redis.UniversalClient, getWindow, queueTTL time.Duration) *RedisMatchStore {
	if getWindow <= 0 {
		getWindow = 7 * 24 * time.Hour
	}
	if queueTTL <= 0 {
		queueTTL = time.Hour
	}
	return &RedisMatchStore{client: client, getWindow: getWindow, queueTTL: queueTTL}
}

func DeeplinkKey(id string) string {
	return deeplinkKeyPrefix + id
}

func FingerprintKey(fingerprint string) string {
	return fingerprintKeyPrefix + fingerprint
}

func (s *RedisMatchStore) Put(ctx context.Context, record domain.DeferredDeeplink, fingerprint string) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode deeplink %s: %w", record.ID, err)
	}
	queueKey := FingerprintKey(fingerprint)
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, queueKey, payload)
		p.Expire(ctx, queueKey, s.queueTTL)
		p.Set(ctx, DeeplinkKey(record.ID), payload, s.getWindow)
		return nil
	})
	if err != nil {
		return unavailable("put deeplink", err)
	}
	return nil
}

func (s *RedisMatchStore) Get(ctx context.Context, id string) (domain.DeferredDeeplink, error) {
	raw, err := s.client.Get(ctx, DeeplinkKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.DeferredDeeplink{}, fmt.Errorf("%w: deeplink %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.DeferredDeeplink{}, unavailable("get deeplink", err)
	}
	var record domain.DeferredDeeplink
	if err := json.Unmarshal(raw, &record); err != nil {
		return domain.DeferredDeeplink{}, fmt.Errorf("decode deeplink %s: %w", id, err)
	}
	return record, nil
}

// Set only overwrites a record that still exists, keeping its remaining TTL.
func (s *RedisMatchStore) Set(ctx context.Context, record domain.DeferredDeeplink) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode deeplink %s: %w", record.ID, err)
	}
	err = s.client.SetArgs(ctx, DeeplinkKey(record.ID), payload, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: deeplink %s", domain.ErrNotFound, record.ID)
	}
	if err != nil {
		return unavailable("set deeplink", err)
	}
	return nil
}

func (s *RedisMatchStore) FindAndPop(ctx context.Context, fingerprint string, oldest time.Time) (domain.DeferredDeeplink, bool, error) {
	raw, err := lpopWhileScript.Run(ctx, s.client, []string{FingerprintKey(fingerprint)}, domain.NewTimestamp(oldest).String()).Text()
	if errors.Is(err, redis.Nil) {
		return domain.DeferredDeeplink{}, false, nil
	}
	if err != nil {
		return domain.DeferredDeeplink{}, false, unavailable("find and pop", err)
	}
	var record domain.DeferredDeeplink
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return domain.DeferredDeeplink{}, false, fmt.Errorf("decode popped deeplink: %w", err)
	}
	return record, true, nil
}

func (s *RedisMatchStore) QueueLen(ctx context.Context, fingerprint string) (int64, error) {
	n, err := s.client.LLen(ctx, FingerprintKey(fingerprint)).Result()
	if err != nil {
		return 0, unavailable("queue length", err)
	}
	return n, nil
}

func (s *RedisMatchStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStorageUnavailable, op, err)
}
