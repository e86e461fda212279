package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viralforge/mesh/services/integrations/M93-deferred-deeplink-service/internal/adapters/cache"
	"github.com/viralforge/mesh/services/integrations/M93-deferred-deeplink-service/internal/domain"
)

func runCLI(t *testing.T, m *miniredis.Miniredis, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(func(context.Context, string) (redis.UniversalClient, error) {
		return redis.NewClient(&redis.Options{Addr: m.Addr()}), nil
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	base := []string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}
	cmd.SetArgs(append(base, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"fingerprint", "fetch", "queue", "killswitch"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}
}

func TestFingerprintCommand(t *testing.T) {
	m := miniredis.RunT(t)
	out, err := runCLI(t, m, "fingerprint", "--app", "test-app-id", "--ip", "1.1.1.1", "--os", "iOS", "--os-version", "6.0.1")
	require.NoError(t, err)
	assert.Equal(t, "2ce0cd26187ce07e4578faa9901a7898e707427c\n", out)

	out, err = runCLI(t, m, "--format", "json", "fingerprint", "--app", "test-app-id", "--ip", "1.1.1.1", "--os", "ios", "--os-version", "6.0")
	require.NoError(t, err)
	var res fingerprintResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "2ce0cd26187ce07e4578faa9901a7898e707427c", res.Fingerprint)
	assert.Equal(t, "6.0", res.Signals.OSVersion)
}

func TestInvalidFormat(t *testing.T) {
	m := miniredis.RunT(t)
	_, err := runCLI(t, m, "--format", "xml", "fingerprint", "--app", "a", "--ip", "1.1.1.1")
	assert.ErrorContains(t, err, "invalid format")
}

func TestFetchAndQueueCommands(t *testing.T) {
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	signals := domain.NormalizeSignals(domain.Signals{IP: "1.1.1.1", OS: "ios", OSVersion: "6.0"})
	record := domain.NewDeferredDeeplink("ddl-0000000000000001", "/promo", "test-app-id", nil, signals, time.Now())
	store := cache.NewRedisMatchStore(client, time.Hour, time.Hour)
	require.NoError(t, store.Put(context.Background(), record, domain.Fingerprint("test-app-id", signals)))

	out, err := runCLI(t, m, "fetch", record.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "action:      /promo")
	assert.Contains(t, out, "matched_at:  never")

	out, err = runCLI(t, m, "queue", "--app", "test-app-id", "--ip", "1.1.1.1", "--os", "ios", "--os-version", "6.0")
	require.NoError(t, err)
	assert.Equal(t, "fingerprint:2ce0cd26187ce07e4578faa9901a7898e707427c 1\n", out)

	_, err = runCLI(t, m, "fetch", "ddl-ffffffffffffffff")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = runCLI(t, m, "fetch", "flags:match_fingerprints")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestKillswitchCommands(t *testing.T) {
	m := miniredis.RunT(t)

	out, err := runCLI(t, m, "killswitch", "status")
	require.NoError(t, err)
	assert.Equal(t, "matching enabled: true (default)\n", out)

	out, err = runCLI(t, m, "killswitch", "off")
	require.NoError(t, err)
	assert.Equal(t, "matching enabled: false (override)\n", out)
	got, err := m.Get("flags:match_fingerprints")
	require.NoError(t, err)
	assert.Equal(t, "0", got)

	out, err = runCLI(t, m, "--format", "json", "killswitch", "on")
	require.NoError(t, err)
	assert.JSONEq(t, `{"matching_enabled":true,"overridden":true}`, out)

	out, err = runCLI(t, m, "killswitch", "reset")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "(default)\n"))
	assert.False(t, m.Exists("flags:match_fingerprints"))
}
