package domain

import (
	"encoding/json"
	"time"
)

// AttributionButtonRef is the referral token key carried by most clicks.
const AttributionButtonRef = "btn_ref"

// DeferredDeeplink is a click-side candidate awaiting a matching app open.
// The same JSON shape is returned to clients and stored in Redis.
type DeferredDeeplink struct {
	ID            string            `json:"id"`
	Action        string            `json:"action"`
	ApplicationID string            `json:"application_id"`
	SessionID     *string           `json:"session_id"`
	Signals       Signals           `json:"signals"`
	Attribution   map[string]string `json:"attribution"`
	CreatedAt     Timestamp         `json:"created_at"`
	ModifiedAt    Timestamp         `json:"modified_at"`
	MatchedAt     *Timestamp        `json:"matched_at"`
}

func NewDeferredDeeplink(id, action, applicationID string, attribution map[string]string, signals Signals, now time.Time) DeferredDeeplink {
	ts := NewTimestamp(now)
	attr := make(map[string]string, len(attribution))
	for k, v := range attribution {
		attr[k] = v
	}
	return DeferredDeeplink{
		ID:            id,
		Action:        action,
		ApplicationID: applicationID,
		Signals:       signals,
		Attribution:   attr,
		CreatedAt:     ts,
		ModifiedAt:    ts,
	}
}

// Age is how long ago the candidate was created, as seen at now.
func (d DeferredDeeplink) Age(now time.Time) time.Duration {
	return now.Sub(d.CreatedAt.Time)
}

func (d DeferredDeeplink) Matched() bool {
	return d.MatchedAt != nil
}

// MarkMatched records consumption. Callers must only do this once per record.
func (d *DeferredDeeplink) MarkMatched(now time.Time) {
	ts := NewTimestamp(now)
	d.MatchedAt = &ts
	d.ModifiedAt = ts
}

type deeplinkJSON DeferredDeeplink

// legacyDeeplinkJSON also reads the flat layout older writers stored under
// ddl:<id>, with signals and btn_ref at the top level.
type legacyDeeplinkJSON struct {
	deeplinkJSON
	IP        *string `json:"ip"`
	OS        *string `json:"os"`
	OSVersion *string `json:"os_version"`
	BtnRef    *string `json:"btn_ref"`
}

func (d DeferredDeeplink) MarshalJSON() ([]byte, error) {
	out := deeplinkJSON(d)
	if out.Attribution == nil {
		out.Attribution = map[string]string{}
	}
	return json.Marshal(out)
}

func (d *DeferredDeeplink) UnmarshalJSON(raw []byte) error {
	var in legacyDeeplinkJSON
	if err := json.Unmarshal(raw, &in); err != nil {
		return err
	}
	out := DeferredDeeplink(in.deeplinkJSON)
	if in.IP != nil {
		out.Signals.IP = *in.IP
	}
	if in.OS != nil {
		out.Signals.OS = *in.OS
	}
	if in.OSVersion != nil {
		out.Signals.OSVersion = *in.OSVersion
	}
	if in.BtnRef != nil && *in.BtnRef != "" {
		if out.Attribution == nil {
			out.Attribution = map[string]string{}
		}
		out.Attribution[AttributionButtonRef] = *in.BtnRef
	}
	*d = out
	return nil
}
