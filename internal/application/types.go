package application

import (
	"encoding/json"
	"time"

	"github.com/viralforge/mesh/services/integrations/M93-deferred-deeplink-service/internal/domain"
)

type Config struct {
	ServiceName string
	// AttributionWindow bounds how old a candidate may be and still match.
	AttributionWindow time.Duration
	// DeferredDeeplinkWindow bounds how old a match may be and still carry
	// its action. Normally shorter than AttributionWindow.
	DeferredDeeplinkWindow time.Duration
	// MatchingEnabled is the killswitch default used when no runtime
	// override is available.
	MatchingEnabled bool
}

type CreateMatchRequest struct {
	// ID is optional; one is generated when empty.
	ID            string            `json:"id,omitempty"`
	ApplicationID string            `json:"application_id"`
	Action        string            `json:"action"`
	Signals       domain.Signals    `json:"signals"`
	Attribution   map[string]string `json:"attribution,omitempty"`
}

type FindMatchRequest struct {
	ApplicationID string         `json:"application_id"`
	Signals       domain.Signals `json:"signals"`
}

type FindMatchResponse struct {
	Match       bool
	ID          string
	Attribution map[string]string
	// Action is empty once the deferred window has passed.
	Action string
}

// MarshalJSON emits {"match":false} on a miss and always includes the
// attribution object on a hit.
func (r FindMatchResponse) MarshalJSON() ([]byte, error) {
	if !r.Match {
		return json.Marshal(struct {
			Match bool `json:"match"`
		}{})
	}
	attribution := r.Attribution
	if attribution == nil {
		attribution = map[string]string{}
	}
	return json.Marshal(struct {
		Match       bool              `json:"match"`
		ID          string            `json:"id"`
		Attribution map[string]string `json:"attribution"`
		Action      string            `json:"action,omitempty"`
	}{
		Match:       true,
		ID:          r.ID,
		Attribution: attribution,
		Action:      r.Action,
	})
}
