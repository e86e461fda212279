package domain

import (
	"regexp"
	"strings"
)

// Only major.minor of the OS version takes part in a fingerprint, so
// "12.3.12-alpha" and "12.3" collapse to the same device.
var osVersionPattern = regexp.MustCompile(`^(\d+\.\d+)`)

// Signals are the device attributes a click and a later app open must share.
type Signals struct {
	IP        string `json:"ip"`
	OS        string `json:"os"`
	OSVersion string `json:"os_version"`
}

// NormalizeSignals returns the canonical form used for fingerprinting.
// Absent fields are already empty strings; values are lower-cased and
// os_version is cut to major.minor when it parses, left verbatim otherwise.
func NormalizeSignals(s Signals) Signals {
	out := Signals{
		IP:        strings.ToLower(s.IP),
		OS:        strings.ToLower(s.OS),
		OSVersion: strings.ToLower(s.OSVersion),
	}
	if m := osVersionPattern.FindStringSubmatch(out.OSVersion); m != nil {
		out.OSVersion = m[1]
	}
	return out
}
