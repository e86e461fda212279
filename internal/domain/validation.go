package domain

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

// DeeplinkIDPrefix namespaces deferred-deeplink identifiers.
const DeeplinkIDPrefix = "ddl-"

var deeplinkIDPattern = regexp.MustCompile(`^ddl-[0-9a-f]{16}$`)

// ParseDeeplinkID validates a caller-supplied id and returns its canonical
// lower-case form. Failures are reported against the "id" field.
func ParseDeeplinkID(raw string) (string, *ValidationError) {
	id := strings.ToLower(strings.TrimSpace(raw))
	if !deeplinkIDPattern.MatchString(id) {
		verr := NewValidationError()
		verr.Add("id", "must match "+DeeplinkIDPrefix+"<16 hex chars>")
		return "", verr
	}
	return id, nil
}

// ParseAttribution decodes an optional attribution object whose values must
// all be strings. A missing or null payload yields a nil map. Failures are
// reported against the "attribution" field.
func ParseAttribution(raw json.RawMessage) (map[string]string, *ValidationError) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var generic map[string]any
	if err := json.Unmarshal(trimmed, &generic); err != nil || generic == nil {
		verr := NewValidationError()
		verr.Add("attribution", "must be of type Object")
		return nil, verr
	}
	out := make(map[string]string, len(generic))
	for k, v := range generic {
		s, ok := v.(string)
		if !ok {
			verr := NewValidationError()
			verr.Add("attribution", "must have only string values")
			return nil, verr
		}
		out[k] = s
	}
	return out, nil
}
