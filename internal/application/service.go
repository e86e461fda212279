package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/integrations/M93-deferred-deeplink-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M93-deferred-deeplink-service/internal/ports"
)

const (
	defaultAttributionWindow      = time.Hour
	defaultDeferredDeeplinkWindow = 15 * time.Minute
)

type Service struct {
	cfg       Config
	logger    *slog.Logger
	store     ports.MatchStore
	flags     ports.FeatureFlags
	ids       ports.IDGenerator
	publisher ports.EventPublisher
	recorder  ports.MatchRecorder
	nowFn     func() time.Time
}

type Dependencies struct {
	Config    Config
	Logger    *slog.Logger
	Store     ports.MatchStore
	Flags     ports.FeatureFlags
	IDs       ports.IDGenerator
	Publisher ports.EventPublisher
	Recorder  ports.MatchRecorder
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "M93-Deferred-Deeplink-Service"
	}
	if cfg.AttributionWindow <= 0 {
		cfg.AttributionWindow = defaultAttributionWindow
	}
	if cfg.DeferredDeeplinkWindow <= 0 {
		cfg.DeferredDeeplinkWindow = defaultDeferredDeeplinkWindow
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	flags := deps.Flags
	if flags == nil {
		flags = staticFlags{enabled: cfg.MatchingEnabled}
	}
	recorder := deps.Recorder
	if recorder == nil {
		recorder = noopRecorder{}
	}
	ids := deps.IDs
	if ids == nil {
		ids = randomIDs{}
	}
	return &Service{
		cfg:       cfg,
		logger:    logger,
		store:     deps.Store,
		flags:     flags,
		ids:       ids,
		publisher: deps.Publisher,
		recorder:  recorder,
		nowFn:     func() time.Time { return time.Now().UTC() },
	}
}

// Config returns the effective configuration after defaults were applied.
func (s *Service) Config() Config {
	return s.cfg
}

// Ready reports whether the match store answers.
func (s *Service) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}

type staticFlags struct {
	enabled bool
}

func (f staticFlags) MatchingEnabled(context.Context) (bool, error) {
	return f.enabled, nil
}

type noopRecorder struct{}

func (noopRecorder) RecordMatch(string) {}

// randomIDs is used when no generator is wired; ids are not time-ordered.
type randomIDs struct{}

func (randomIDs) NewDeeplinkID() string {
	return domain.DeeplinkIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}
