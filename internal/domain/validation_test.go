package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDeeplinkID(t *testing.T) {
	id, verr := ParseDeeplinkID("DDL-0123456789ABCDEF")
	require.Nil(t, verr)
	assert.Equal(t, "ddl-0123456789abcdef", id)

	for _, raw := range []string{"", "ddl-123", "btn-0123456789abcdef", "ddl-0123456789abcdeg", "ddl-0123456789abcdef0"} {
		_, verr := ParseDeeplinkID(raw)
		require.NotNil(t, verr, raw)
		assert.Contains(t, verr.Fields, "id")
	}
}

func TestParseAttribution(t *testing.T) {
	attr, verr := ParseAttribution(nil)
	assert.Nil(t, verr)
	assert.Nil(t, attr)

	attr, verr = ParseAttribution(json.RawMessage(`null`))
	assert.Nil(t, verr)
	assert.Nil(t, attr)

	attr, verr = ParseAttribution(json.RawMessage(`{"btn_ref":"abc","campaign":"spring"}`))
	require.Nil(t, verr)
	assert.Equal(t, map[string]string{"btn_ref": "abc", "campaign": "spring"}, attr)

	_, verr = ParseAttribution(json.RawMessage(`{"btn_ref":1}`))
	require.NotNil(t, verr)
	assert.Equal(t, []string{"must have only string values"}, verr.Fields["attribution"])

	_, verr = ParseAttribution(json.RawMessage(`["abc"]`))
	require.NotNil(t, verr)
	assert.Equal(t, []string{"must be of type Object"}, verr.Fields["attribution"])
}

func TestValidationError(t *testing.T) {
	verr := NewValidationError()
	assert.NoError(t, verr.OrNil())

	verr.Add("signals.ip", "is required")
	other := NewValidationError()
	other.Add("application_id", "is required")
	verr.Merge(other)
	verr.Merge(nil)

	err := verr.OrNil()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Equal(t, "invalid input: application_id is required; signals.ip is required", err.Error())
}
