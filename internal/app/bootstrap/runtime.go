package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/viralforge/mesh/services/integrations/M93-deferred-deeplink-service/internal/adapters/cache"
	eventadapter "github.com/viralforge/mesh/services/integrations/M93-deferred-deeplink-service/internal/adapters/events"
	httpadapter "github.com/viralforge/mesh/services/integrations/M93-deferred-deeplink-service/internal/adapters/http"
	"github.com/viralforge/mesh/services/integrations/M93-deferred-deeplink-service/internal/adapters/idgen"
	"github.com/viralforge/mesh/services/integrations/M93-deferred-deeplink-service/internal/adapters/metrics"
	"github.com/viralforge/mesh/services/integrations/M93-deferred-deeplink-service/internal/application"
	"github.com/viralforge/mesh/services/integrations/M93-deferred-deeplink-service/internal/ports"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	grpcLis    net.Listener
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With("service", cfg.ServiceID)
	slog.SetDefault(logger)

	if cfg.WindowsInverted() {
		logger.WarnContext(ctx, "deferred deeplink window exceeds attribution window; every match will carry its action",
			"attribution_window", cfg.AttributionWindow.String(),
			"deferred_deeplink_window", cfg.DeferredDeeplinkWindow.String(),
		)
	}

	redisClient, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	ids, err := idgen.NewSnowflakeGenerator(cfg.SnowflakeNodeID)
	if err != nil {
		_ = redisClient.Close()
		return nil, err
	}

	publisher := ports.EventPublisher(eventadapter.NewLoggingPublisher(logger))
	var brokerClosers []io.Closer
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, pubErr := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, map[string]string{
			"deferred_deeplink.created": cfg.KafkaTopicDeeplinkCreated,
			"deferred_deeplink.matched": cfg.KafkaTopicDeeplinkMatched,
		})
		if pubErr != nil {
			logger.WarnContext(ctx, "kafka publisher disabled, using logging publisher", "error", pubErr)
		} else {
			publisher = kafkaPublisher
			brokerClosers = append(brokerClosers, kafkaPublisher)
		}
	}
	asyncPublisher := eventadapter.NewAsyncPublisher(logger, publisher, cfg.EventQueueSize, cfg.EventPublishTimeout)
	closers := append([]io.Closer{asyncPublisher}, brokerClosers...)

	promMetrics := metrics.New()
	service := application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName:            cfg.ServiceID,
			AttributionWindow:      cfg.AttributionWindow,
			DeferredDeeplinkWindow: cfg.DeferredDeeplinkWindow,
			MatchingEnabled:        cfg.MatchFingerprints,
		},
		Logger:    logger,
		Store:     cache.NewRedisMatchStore(redisClient, cfg.GetWindow, cfg.QueueTTL()),
		Flags:     cache.NewRedisFeatureFlags(redisClient, cfg.FeatureFlagKeyPrefix, cfg.MatchFingerprints),
		IDs:       ids,
		Publisher: asyncPublisher,
		Recorder:  promMetrics,
	})

	handler := httpadapter.NewHandler(service)
	router := httpadapter.NewRouter(handler, promMetrics)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		for _, closer := range closers {
			_ = closer.Close()
		}
		_ = redisClient.Close()
		return nil, err
	}

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		grpcServer: grpcServer,
		grpcLis:    lis,
		cleanupFn: func(ctx context.Context) {
			healthSrv.Shutdown()
			for _, closer := range closers {
				_ = closer.Close()
			}
			_ = redisClient.Close()
		},
	}, nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 2)

	r.logger.InfoContext(ctx, "deferred deeplink service starting",
		"http_port", r.cfg.HTTPPort,
		"grpc_port", r.cfg.GRPCPort,
		"match_fingerprints", r.cfg.MatchFingerprints,
	)
	go func() {
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		r.logger.ErrorContext(ctx, "runtime failure", "error", runErr)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	r.cleanupFn(shutdownCtx)
	return runErr
}
