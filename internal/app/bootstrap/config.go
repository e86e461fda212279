package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	RedisURL     string
	KafkaBrokers []string

	KafkaTopicDeeplinkCreated string
	KafkaTopicDeeplinkMatched string
	EventQueueSize            int
	EventPublishTimeout       time.Duration

	AttributionWindow      time.Duration
	DeferredDeeplinkWindow time.Duration
	GetWindow              time.Duration

	MatchFingerprints    bool
	FeatureFlagKeyPrefix string
	SnowflakeNodeID      int64
}

type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		RedisURL                  string   `yaml:"redis_url"`
		KafkaBrokers              []string `yaml:"kafka_brokers"`
		KafkaTopicDeeplinkCreated string   `yaml:"kafka_topic_deeplink_created"`
		KafkaTopicDeeplinkMatched string   `yaml:"kafka_topic_deeplink_matched"`
		EventQueueSize            int      `yaml:"event_queue_size"`
		EventPublishTimeoutMS     int      `yaml:"event_publish_timeout_ms"`
	} `yaml:"dependencies"`
	Matching struct {
		AttributionWindowSeconds      int    `yaml:"attribution_window_seconds"`
		DeferredDeeplinkWindowSeconds int    `yaml:"deferred_deeplink_window_seconds"`
		GetWindowSeconds              int    `yaml:"get_window_seconds"`
		MatchFingerprints             *bool  `yaml:"match_fingerprints"`
		FeatureFlagKeyPrefix          string `yaml:"feature_flag_key_prefix"`
		SnowflakeNodeID               *int64 `yaml:"snowflake_node_id"`
	} `yaml:"matching"`
}

// LoadConfig applies defaults, then the YAML file at path if it exists, then
// environment overrides.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:                 "M93-Deferred-Deeplink-Service",
		HTTPPort:                  8080,
		GRPCPort:                  9090,
		RedisURL:                  "localhost:6379",
		KafkaTopicDeeplinkCreated: "deferred_deeplink.created",
		KafkaTopicDeeplinkMatched: "deferred_deeplink.matched",
		EventQueueSize:            1024,
		EventPublishTimeout:       5 * time.Second,
		AttributionWindow:         3600 * time.Second,
		DeferredDeeplinkWindow:    900 * time.Second,
		GetWindow:                 604800 * time.Second,
		MatchFingerprints:         true,
		FeatureFlagKeyPrefix:      "flags:",
		SnowflakeNodeID:           1,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = trimNonEmpty(f.Dependencies.KafkaBrokers)
		}
		if f.Dependencies.KafkaTopicDeeplinkCreated != "" {
			cfg.KafkaTopicDeeplinkCreated = f.Dependencies.KafkaTopicDeeplinkCreated
		}
		if f.Dependencies.KafkaTopicDeeplinkMatched != "" {
			cfg.KafkaTopicDeeplinkMatched = f.Dependencies.KafkaTopicDeeplinkMatched
		}
		if f.Dependencies.EventQueueSize > 0 {
			cfg.EventQueueSize = f.Dependencies.EventQueueSize
		}
		if f.Dependencies.EventPublishTimeoutMS > 0 {
			cfg.EventPublishTimeout = time.Duration(f.Dependencies.EventPublishTimeoutMS) * time.Millisecond
		}
		if f.Matching.AttributionWindowSeconds > 0 {
			cfg.AttributionWindow = time.Duration(f.Matching.AttributionWindowSeconds) * time.Second
		}
		if f.Matching.DeferredDeeplinkWindowSeconds > 0 {
			cfg.DeferredDeeplinkWindow = time.Duration(f.Matching.DeferredDeeplinkWindowSeconds) * time.Second
		}
		if f.Matching.GetWindowSeconds > 0 {
			cfg.GetWindow = time.Duration(f.Matching.GetWindowSeconds) * time.Second
		}
		if f.Matching.MatchFingerprints != nil {
			cfg.MatchFingerprints = *f.Matching.MatchFingerprints
		}
		if f.Matching.FeatureFlagKeyPrefix != "" {
			cfg.FeatureFlagKeyPrefix = f.Matching.FeatureFlagKeyPrefix
		}
		if f.Matching.SnowflakeNodeID != nil {
			cfg.SnowflakeNodeID = *f.Matching.SnowflakeNodeID
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaTopicDeeplinkCreated = envOrDefault("KAFKA_TOPIC_DEEPLINK_CREATED", cfg.KafkaTopicDeeplinkCreated)
	cfg.KafkaTopicDeeplinkMatched = envOrDefault("KAFKA_TOPIC_DEEPLINK_MATCHED", cfg.KafkaTopicDeeplinkMatched)
	cfg.EventQueueSize = envInt("EVENT_QUEUE_SIZE", cfg.EventQueueSize)
	cfg.EventPublishTimeout = time.Duration(envInt("EVENT_PUBLISH_TIMEOUT_MS", int(cfg.EventPublishTimeout.Milliseconds()))) * time.Millisecond
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.AttributionWindow = time.Duration(envInt("ATTRIBUTION_WINDOW_SECONDS", int(cfg.AttributionWindow.Seconds()))) * time.Second
	cfg.DeferredDeeplinkWindow = time.Duration(envInt("DEFERRED_DEEPLINK_WINDOW_SECONDS", int(cfg.DeferredDeeplinkWindow.Seconds()))) * time.Second
	cfg.GetWindow = time.Duration(envInt("GET_WINDOW_SECONDS", int(cfg.GetWindow.Seconds()))) * time.Second
	cfg.MatchFingerprints = envBool("MATCH_FINGERPRINTS", cfg.MatchFingerprints)
	cfg.FeatureFlagKeyPrefix = envOrDefault("FEATURE_FLAG_KEY_PREFIX", cfg.FeatureFlagKeyPrefix)
	cfg.SnowflakeNodeID = int64(envInt("SNOWFLAKE_NODE_ID", int(cfg.SnowflakeNodeID)))

	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	if cfg.AttributionWindow <= 0 || cfg.DeferredDeeplinkWindow <= 0 || cfg.GetWindow <= 0 {
		return Config{}, fmt.Errorf("matching windows must be positive")
	}
	if strings.HasPrefix(cfg.FeatureFlagKeyPrefix, "ddl:") {
		return Config{}, fmt.Errorf("feature flag key prefix %q collides with deeplink record keys", cfg.FeatureFlagKeyPrefix)
	}
	return cfg, nil
}

// QueueTTL is how long a fingerprint queue survives its latest push. It
// covers the longer of the two matching windows.
func (c Config) QueueTTL() time.Duration {
	if c.DeferredDeeplinkWindow > c.AttributionWindow {
		return c.DeferredDeeplinkWindow
	}
	return c.AttributionWindow
}

// WindowsInverted reports a deferred window longer than the attribution
// window. Such a configuration delivers actions for every match.
func (c Config) WindowsInverted() bool {
	return c.DeferredDeeplinkWindow > c.AttributionWindow
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return fallback
	}
}

func envCSV(name string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	items := strings.Split(raw, ",")
	return trimNonEmpty(items)
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
