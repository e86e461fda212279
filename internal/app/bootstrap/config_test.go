package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, time.Hour, cfg.AttributionWindow)
	assert.Equal(t, 15*time.Minute, cfg.DeferredDeeplinkWindow)
	assert.Equal(t, 7*24*time.Hour, cfg.GetWindow)
	assert.True(t, cfg.MatchFingerprints)
	assert.Equal(t, time.Hour, cfg.QueueTTL())
	assert.False(t, cfg.WindowsInverted())
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
service:
  http_port: 8181
dependencies:
  redis_url: redis://cache:6379/2
  kafka_brokers: [" k1:9092 ", ""]
matching:
  attribution_window_seconds: 7200
  match_fingerprints: false
  snowflake_node_id: 12
`), 0o600))

	t.Setenv("DEFERRED_DEEPLINK_WINDOW_SECONDS", "10800")
	t.Setenv("HTTP_PORT", "9999")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.HTTPPort)
	assert.Equal(t, "redis://cache:6379/2", cfg.RedisURL)
	assert.Equal(t, []string{"k1:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 2*time.Hour, cfg.AttributionWindow)
	assert.Equal(t, 3*time.Hour, cfg.DeferredDeeplinkWindow)
	assert.False(t, cfg.MatchFingerprints)
	assert.EqualValues(t, 12, cfg.SnowflakeNodeID)

	assert.True(t, cfg.WindowsInverted())
	assert.Equal(t, 3*time.Hour, cfg.QueueTTL())
}

func TestLoadConfigEnvKillswitch(t *testing.T) {
	t.Setenv("MATCH_FINGERPRINTS", "false")
	t.Setenv("KAFKA_BROKERS", "a:1, b:2")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.False(t, cfg.MatchFingerprints)
	assert.Equal(t, []string{"a:1", "b:2"}, cfg.KafkaBrokers)
}

func TestLoadConfigRejectsBadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("service: [unterminated"), 0o600))
	_, err := LoadConfig(path)
	assert.Error(t, err)

	t.Setenv("GET_WINDOW_SECONDS", "0")
	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultConfigFileLoads(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "..", "..", "configs", "default.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "M93-Deferred-Deeplink-Service", cfg.ServiceID)
	assert.Equal(t, "flags:", cfg.FeatureFlagKeyPrefix)
	assert.Equal(t, time.Hour, cfg.AttributionWindow)
}

func TestLoadConfigEventQueue(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 1024, cfg.EventQueueSize)
	assert.Equal(t, 5*time.Second, cfg.EventPublishTimeout)

	t.Setenv("EVENT_QUEUE_SIZE", "16")
	t.Setenv("EVENT_PUBLISH_TIMEOUT_MS", "250")
	cfg, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.EventQueueSize)
	assert.Equal(t, 250*time.Millisecond, cfg.EventPublishTimeout)
}

func TestLoadConfigRejectsFlagPrefixInRecordKeyspace(t *testing.T) {
	t.Setenv("FEATURE_FLAG_KEY_PREFIX", "ddl:flags:")
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "collides with deeplink record keys")
}
