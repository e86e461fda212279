package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/viralforge/mesh/services/integrations/M93-deferred-deeplink-service/internal/adapters/cache"
	"github.com/viralforge/mesh/services/integrations/M93-deferred-deeplink-service/internal/app/bootstrap"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	RedisURL   string
	Format     string // "json" | "text"

	connect func(ctx context.Context, redisURL string) (redis.UniversalClient, error)
}

var validFormats = []string{"text", "json"}

// NewRootCommand creates the ddlctl command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(func(ctx context.Context, redisURL string) (redis.UniversalClient, error) {
		return cache.Connect(ctx, redisURL)
	})
}

func newRootCommand(connect func(context.Context, string) (redis.UniversalClient, error)) *cobra.Command {
	opts := &RootOptions{connect: connect}

	cmd := &cobra.Command{
		Use:   "ddlctl",
		Short: "Operate the deferred deeplink match store",
		Long:  "Inspect fingerprints, stored deeplinks and queues, and flip the matching killswitch.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(validFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "configs/default.yaml", "service config file")
	cmd.PersistentFlags().StringVar(&opts.RedisURL, "redis", "", "redis URL or host:port (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newFingerprintCommand(opts))
	cmd.AddCommand(newFetchCommand(opts))
	cmd.AddCommand(newQueueCommand(opts))
	cmd.AddCommand(newKillswitchCommand(opts))

	return cmd
}

// session bundles the store handles a command needs against one connection.
type session struct {
	cfg    bootstrap.Config
	client redis.UniversalClient
	store  *cache.RedisMatchStore
	flags  *cache.RedisFeatureFlags
}

func (o *RootOptions) open(ctx context.Context) (*session, error) {
	cfg, err := bootstrap.LoadConfig(o.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	redisURL := cfg.RedisURL
	if o.RedisURL != "" {
		redisURL = o.RedisURL
	}
	client, err := o.connect(ctx, redisURL)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &session{
		cfg:    cfg,
		client: client,
		store:  cache.NewRedisMatchStore(client, cfg.GetWindow, cfg.QueueTTL()),
		flags:  cache.NewRedisFeatureFlags(client, cfg.FeatureFlagKeyPrefix, cfg.MatchFingerprints),
	}, nil
}

func (s *session) Close() error {
	return s.client.Close()
}
