package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/viralforge/mesh/services/integrations/M93-deferred-deeplink-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M93-deferred-deeplink-service/internal/ports"
)

// CreateMatch stores a new candidate under the fingerprint of its
// normalized signals.
func (s *Service) CreateMatch(ctx context.Context, req CreateMatchRequest) (domain.DeferredDeeplink, error) {
	verr := domain.NewValidationError()
	if strings.TrimSpace(req.ApplicationID) == "" {
		verr.Add("application_id", "is required")
	}
	if strings.TrimSpace(req.Action) == "" {
		verr.Add("action", "is required")
	}
	id := req.ID
	if id != "" {
		parsed, idErr := domain.ParseDeeplinkID(id)
		verr.Merge(idErr)
		id = parsed
	}
	if err := verr.OrNil(); err != nil {
		return domain.DeferredDeeplink{}, err
	}
	if id == "" {
		id = s.ids.NewDeeplinkID()
	}

	signals := domain.NormalizeSignals(req.Signals)
	record := domain.NewDeferredDeeplink(id, req.Action, req.ApplicationID, req.Attribution, signals, s.nowFn())
	fingerprint := domain.Fingerprint(record.ApplicationID, signals)
	if err := s.store.Put(ctx, record, fingerprint); err != nil {
		return domain.DeferredDeeplink{}, err
	}
	s.publishCreated(ctx, record, fingerprint)
	return record, nil
}

// FetchMatch only ever reads record keys; an id outside the ddl- format is
// reported as not found.
func (s *Service) FetchMatch(ctx context.Context, id string) (domain.DeferredDeeplink, error) {
	canonical, verr := domain.ParseDeeplinkID(id)
	if verr != nil {
		return domain.DeferredDeeplink{}, domain.ErrNotFound
	}
	return s.store.Get(ctx, canonical)
}

// FindMatch pops the newest candidate for the caller's fingerprint that is
// still inside the attribution window. Each candidate is handed out at most
// once. With matching switched off it reports no match before looking at the
// request.
func (s *Service) FindMatch(ctx context.Context, req FindMatchRequest) (FindMatchResponse, error) {
	if !s.MatchingEnabled(ctx) {
		return FindMatchResponse{}, nil
	}
	if strings.TrimSpace(req.ApplicationID) == "" {
		verr := domain.NewValidationError()
		verr.Add("application_id", "is required")
		return FindMatchResponse{}, verr
	}

	signals := domain.NormalizeSignals(req.Signals)
	fingerprint := domain.Fingerprint(req.ApplicationID, signals)
	now := s.nowFn()
	record, ok, err := s.store.FindAndPop(ctx, fingerprint, now.Add(-s.cfg.AttributionWindow))
	if err != nil {
		return FindMatchResponse{}, err
	}
	if !ok {
		s.recorder.RecordMatch(ports.MatchOutcomeMiss)
		return FindMatchResponse{}, nil
	}

	resp := FindMatchResponse{
		Match:       true,
		ID:          record.ID,
		Attribution: record.Attribution,
	}
	if record.Age(now) <= s.cfg.DeferredDeeplinkWindow {
		resp.Action = record.Action
	}
	if err := s.consume(ctx, record.ID, now); err != nil {
		s.logger.ErrorContext(ctx, "consume matched deeplink failed",
			"module", "application",
			"layer", "service",
			"operation", "consume",
			"outcome", "failure",
			"deeplink_id", record.ID,
			"error", err,
		)
		if !errors.Is(err, domain.ErrStorageUnavailable) {
			err = fmt.Errorf("%w: consume deeplink: %v", domain.ErrStorageUnavailable, err)
		}
		return FindMatchResponse{}, err
	}
	s.recorder.RecordMatch(ports.MatchOutcomeHit)
	s.publishMatched(ctx, record, fingerprint, resp.Action != "", now)
	return resp, nil
}

func (s *Service) consume(ctx context.Context, id string, now time.Time) error {
	record, err := s.store.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	record.MarkMatched(now)
	return s.store.Set(ctx, record)
}

// MatchingEnabled reads the killswitch, falling back to the configured
// default when the flag store cannot be reached.
func (s *Service) MatchingEnabled(ctx context.Context) bool {
	enabled, err := s.flags.MatchingEnabled(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "killswitch lookup failed, using configured default",
			"module", "application",
			"layer", "service",
			"operation", "matching_enabled",
			"outcome", "fallback",
			"error", err,
		)
		return s.cfg.MatchingEnabled
	}
	return enabled
}
