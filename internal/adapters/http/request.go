package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/viralforge/mesh/services/integrations/M93-deferred-deeplink-service/internal/application"
	"github.com/viralforge/mesh/services/integrations/M93-deferred-deeplink-service/internal/domain"
)

// Payload fields are pointers so a missing key can be told apart from an
// empty value.
type signalsPayload struct {
	IP        *string `json:"ip"`
	OS        *string `json:"os"`
	OSVersion *string `json:"os_version"`
}

type createMatchPayload struct {
	ID            *string         `json:"id"`
	ApplicationID *string         `json:"application_id"`
	Action        *string         `json:"action"`
	Signals       *signalsPayload `json:"signals"`
	Attribution   json.RawMessage `json:"attribution"`
}

type findMatchPayload struct {
	ApplicationID *string         `json:"application_id"`
	Signals       *signalsPayload `json:"signals"`
}

func (p createMatchPayload) toRequest() (application.CreateMatchRequest, error) {
	verr := domain.NewValidationError()
	requireString(verr, "application_id", p.ApplicationID)
	requireString(verr, "action", p.Action)
	signals := requireSignals(verr, p.Signals)

	var id string
	if p.ID != nil {
		parsed, idErr := domain.ParseDeeplinkID(*p.ID)
		verr.Merge(idErr)
		id = parsed
	}
	attribution, attrErr := domain.ParseAttribution(p.Attribution)
	verr.Merge(attrErr)

	if err := verr.OrNil(); err != nil {
		return application.CreateMatchRequest{}, err
	}
	return application.CreateMatchRequest{
		ID:            id,
		ApplicationID: *p.ApplicationID,
		Action:        *p.Action,
		Signals:       signals,
		Attribution:   attribution,
	}, nil
}

func (p findMatchPayload) toRequest() (application.FindMatchRequest, error) {
	verr := domain.NewValidationError()
	requireString(verr, "application_id", p.ApplicationID)
	signals := requireSignals(verr, p.Signals)
	if err := verr.OrNil(); err != nil {
		return application.FindMatchRequest{}, err
	}
	return application.FindMatchRequest{
		ApplicationID: *p.ApplicationID,
		Signals:       signals,
	}, nil
}

func requireString(verr *domain.ValidationError, field string, value *string) {
	if value == nil || *value == "" {
		verr.Add(field, "is required")
	}
}

func requireSignals(verr *domain.ValidationError, p *signalsPayload) domain.Signals {
	if p == nil {
		verr.Add("signals", "is required")
		return domain.Signals{}
	}
	requireString(verr, "signals.ip", p.IP)
	return domain.Signals{
		IP:        deref(p.IP),
		OS:        deref(p.OS),
		OSVersion: deref(p.OSVersion),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON value")
	}
	return nil
}
