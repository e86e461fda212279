package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampFormatIsFixedWidth(t *testing.T) {
	ts := NewTimestamp(time.Date(2024, 3, 9, 7, 5, 3, 0, time.UTC))
	assert.Equal(t, "2024-03-09T07:05:03.000Z", ts.String())
	assert.Len(t, ts.String(), 24)

	later := NewTimestamp(time.Date(2024, 3, 9, 7, 5, 3, 120*int(time.Millisecond), time.UTC))
	assert.Less(t, ts.String(), later.String())
}

func TestParseTimestampRequiresFixedLayout(t *testing.T) {
	ts, err := ParseTimestamp("2016-01-19T17:20:46.120Z")
	require.NoError(t, err)
	assert.True(t, time.Date(2016, 1, 19, 17, 20, 46, 120*int(time.Millisecond), time.UTC).Equal(ts.Time))

	// Each of these would sort incorrectly against fixed-layout values in a
	// byte-wise comparison.
	for _, raw := range []string{"yesterday", "2016-01-19T17:20:46Z", "2016-01-19 17:20:46", "2016-01-19T18:20:46.000+01:00", "2016-01-19T17:20:46.1Z"} {
		_, err := ParseTimestamp(raw)
		assert.ErrorIs(t, err, ErrInvalidInput, raw)
	}
}

func TestDeferredDeeplinkJSONShape(t *testing.T) {
	now := time.Date(2024, 3, 9, 7, 5, 3, 0, time.UTC)
	record := NewDeferredDeeplink("ddl-0123456789abcdef", "/promo", "test-app-id", nil,
		Signals{IP: "1.1.1.1", OS: "ios", OSVersion: "6.0"}, now)

	raw, err := json.Marshal(record)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "ddl-0123456789abcdef",
		"action": "/promo",
		"application_id": "test-app-id",
		"session_id": null,
		"signals": {"ip": "1.1.1.1", "os": "ios", "os_version": "6.0"},
		"attribution": {},
		"created_at": "2024-03-09T07:05:03.000Z",
		"modified_at": "2024-03-09T07:05:03.000Z",
		"matched_at": null
	}`, string(raw))

	var decoded DeferredDeeplink
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, record, decoded)
}

func TestDeferredDeeplinkDecodesLegacyFlatShape(t *testing.T) {
	raw := `{
		"id": "ddl-0123456789abcdef",
		"action": "/promo",
		"application_id": "test-app-id",
		"ip": "1.1.1.1",
		"os": "ios",
		"os_version": "6.0",
		"btn_ref": "abc123",
		"created_at": "2016-01-19T17:20:46.000Z",
		"modified_at": "2016-01-19T17:20:46.000Z",
		"matched_at": "2016-01-19 17:25:00"
	}`

	var record DeferredDeeplink
	require.NoError(t, json.Unmarshal([]byte(raw), &record))
	assert.Equal(t, Signals{IP: "1.1.1.1", OS: "ios", OSVersion: "6.0"}, record.Signals)
	assert.Equal(t, map[string]string{AttributionButtonRef: "abc123"}, record.Attribution)
	require.NotNil(t, record.MatchedAt)
	assert.Equal(t, "2016-01-19T17:25:00.000Z", record.MatchedAt.String())
	assert.True(t, record.Matched())
}

func TestMarkMatched(t *testing.T) {
	created := time.Date(2024, 3, 9, 7, 0, 0, 0, time.UTC)
	record := NewDeferredDeeplink("ddl-0123456789abcdef", "/promo", "app", map[string]string{"btn_ref": "x"}, Signals{IP: "1.1.1.1"}, created)
	assert.False(t, record.Matched())
	assert.Equal(t, 5*time.Minute, record.Age(created.Add(5*time.Minute)))

	matchedAt := created.Add(10 * time.Minute)
	record.MarkMatched(matchedAt)
	require.NotNil(t, record.MatchedAt)
	assert.True(t, matchedAt.Equal(record.MatchedAt.Time))
	assert.True(t, matchedAt.Equal(record.ModifiedAt.Time))
	assert.True(t, created.Equal(record.CreatedAt.Time))
}
