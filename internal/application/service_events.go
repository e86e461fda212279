package application

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/integrations/M93-deferred-deeplink-service/internal/domain"
)

const (
	// eventTypeDeeplinkCreated is emitted when a click-side candidate is stored.
	eventTypeDeeplinkCreated = "deferred_deeplink.created"
	// eventTypeDeeplinkMatched is emitted when an app open claims a candidate.
	eventTypeDeeplinkMatched = "deferred_deeplink.matched"
)

type deeplinkCreatedEventData struct {
	DeeplinkID    string            `json:"deeplink_id"`
	ApplicationID string            `json:"application_id"`
	Fingerprint   string            `json:"fingerprint"`
	Attribution   map[string]string `json:"attribution,omitempty"`
	CreatedAt     string            `json:"created_at"`
}

type deeplinkMatchedEventData struct {
	DeeplinkID      string            `json:"deeplink_id"`
	ApplicationID   string            `json:"application_id"`
	Fingerprint     string            `json:"fingerprint"`
	Attribution     map[string]string `json:"attribution,omitempty"`
	ActionDelivered bool              `json:"action_delivered"`
	CreatedAt       string            `json:"created_at"`
	MatchedAt       string            `json:"matched_at"`
}

func (s *Service) publishCreated(ctx context.Context, record domain.DeferredDeeplink, fingerprint string) {
	s.publish(ctx, eventTypeDeeplinkCreated, fingerprint, record.CreatedAt.Time, deeplinkCreatedEventData{
		DeeplinkID:    record.ID,
		ApplicationID: record.ApplicationID,
		Fingerprint:   fingerprint,
		Attribution:   record.Attribution,
		CreatedAt:     record.CreatedAt.String(),
	})
}

func (s *Service) publishMatched(ctx context.Context, record domain.DeferredDeeplink, fingerprint string, actionDelivered bool, now time.Time) {
	s.publish(ctx, eventTypeDeeplinkMatched, fingerprint, now, deeplinkMatchedEventData{
		DeeplinkID:      record.ID,
		ApplicationID:   record.ApplicationID,
		Fingerprint:     fingerprint,
		Attribution:     record.Attribution,
		ActionDelivered: actionDelivered,
		CreatedAt:       record.CreatedAt.String(),
		MatchedAt:       domain.NewTimestamp(now).String(),
	})
}

// publish never fails the caller; broker errors are only logged.
func (s *Service) publish(ctx context.Context, eventType, partitionKey string, occurredAt time.Time, data any) {
	if s.publisher == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"event_id":           uuid.NewString(),
		"event_type":         eventType,
		"occurred_at":        occurredAt.UTC().Format(time.RFC3339),
		"source_service":     s.cfg.ServiceName,
		"trace_id":           "",
		"schema_version":     "1.0",
		"partition_key_path": "data.fingerprint",
		"partition_key":      partitionKey,
		"data":               data,
	})
	if err == nil {
		err = s.publisher.Publish(ctx, eventType, payload, partitionKey)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "event publish failed",
			"module", "application",
			"layer", "service",
			"operation", "publish",
			"outcome", "failure",
			"event_type", eventType,
			"error", err,
		)
	}
}
