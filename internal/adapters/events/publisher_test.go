package events

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingPublisherWritesEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	pub := NewLoggingPublisher(logger)

	require.NoError(t, pub.Publish(context.Background(), "deferred_deeplink.created", []byte(`{"ok":true}`), "fp"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "published event", line["msg"])
	assert.Equal(t, "deferred_deeplink.created", line["event_type"])
	assert.Equal(t, "fp", line["partition_key"])
}

func TestKafkaPublisherTopicMapping(t *testing.T) {
	_, err := NewKafkaPublisher(nil, nil)
	assert.Error(t, err)

	pub, err := NewKafkaPublisher([]string{"localhost:9092"}, map[string]string{
		"deferred_deeplink.created": "ddl-created",
		"deferred_deeplink.matched": "",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pub.Close() })

	assert.Equal(t, "ddl-created", pub.topicFor("deferred_deeplink.created"))
	assert.Equal(t, "deferred_deeplink.matched", pub.topicFor("deferred_deeplink.matched"))
}
