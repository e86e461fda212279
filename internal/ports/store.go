package ports

import (
	"context"
	"time"

	"github.com/viralforge/mesh/services/integrations/M93-deferred-deeplink-service/internal/domain"
)

// MatchStore owns both the candidate records and the per-fingerprint queues.
// Put and FindAndPop are each atomic on the server side.
type MatchStore interface {
	Put(ctx context.Context, record domain.DeferredDeeplink, fingerprint string) error
	// Get returns domain.ErrNotFound when the record has expired or never existed.
	Get(ctx context.Context, id string) (domain.DeferredDeeplink, error)
	// Set overwrites an existing record without touching its TTL.
	Set(ctx context.Context, record domain.DeferredDeeplink) error
	// FindAndPop returns the newest queued candidate created at or after oldest,
	// discarding stale entries on the way. ok is false when nothing qualified.
	FindAndPop(ctx context.Context, fingerprint string, oldest time.Time) (record domain.DeferredDeeplink, ok bool, err error)
	QueueLen(ctx context.Context, fingerprint string) (int64, error)
	Ping(ctx context.Context) error
}

// FeatureFlags resolves runtime switches. It is read on every call.
type FeatureFlags interface {
	MatchingEnabled(ctx context.Context) (bool, error)
}
