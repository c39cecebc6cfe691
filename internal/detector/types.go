// Package detector synthesizes per-device health assessments from fresh
// diagnostic readings, historical trends, and mount reachability. It owns
// the latest-assessment cache and a rolling per-device failure-event log.
package detector

import (
	"encoding/json"
	"fmt"
	"time"
)

// Risk is the ordinal failure-risk classification of a device or event.
// The ordering Critical > High > Medium > Low is load-bearing: an
// assessment's overall risk is the maximum of its events' risks.
type Risk int

const (
	RiskLow Risk = iota
	RiskMedium
	RiskHigh
	RiskCritical
)

// String returns the lowercase label used in JSON output and messages.
func (r Risk) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	case RiskCritical:
		return "critical"
	default:
		return fmt.Sprintf("risk(%d)", int(r))
	}
}

// MarshalJSON renders the risk as its string label.
func (r Risk) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON parses a risk from its string label.
func (r *Risk) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "low":
		*r = RiskLow
	case "medium":
		*r = RiskMedium
	case "high":
		*r = RiskHigh
	case "critical":
		*r = RiskCritical
	default:
		return fmt.Errorf("unknown risk level %q", s)
	}
	return nil
}

// ParseRisk parses a lowercase risk label such as "medium".
func ParseRisk(s string) (Risk, error) {
	var r Risk
	if err := r.UnmarshalJSON([]byte(fmt.Sprintf("%q", s))); err != nil {
		return RiskLow, err
	}
	return r, nil
}

// EventKind identifies the kind of anomaly a FailureEvent describes.
type EventKind string

const (
	KindSmartFailure        EventKind = "smart_failure"
	KindMountFailure        EventKind = "mount_failure"
	KindIOError             EventKind = "io_error"
	KindTemperatureCritical EventKind = "temperature_critical"
	KindReallocatedSectors  EventKind = "reallocated_sectors"
	KindPendingSectors      EventKind = "pending_sectors"
	KindCommunicationError  EventKind = "communication_error"
)

// FailureEvent is one detected anomaly at assessment time. Events are
// created fresh on every assessment, never mutated, and retained in a
// bounded per-device rolling log for history queries.
type FailureEvent struct {
	DeviceID           string    `json:"device_id"`
	Kind               EventKind `json:"kind"`
	Risk               Risk      `json:"risk"`
	Message            string    `json:"message"`
	RecommendedActions []string  `json:"recommended_actions"`
	IsCritical         bool      `json:"is_critical"`
	CapturedAt         time.Time `json:"captured_at"`
}

// Assessment is the health synthesis for one device at one point in
// time. The latest assessment per device is cached by the Detector;
// readers never observe a partially-built value.
type Assessment struct {
	DeviceID string `json:"device_id"`

	// OverallRisk is the maximum risk among Events, RiskLow when none.
	OverallRisk Risk `json:"overall_risk"`

	Events []FailureEvent `json:"events"`

	// DegradedModeCapable is the conservative per-device estimate of
	// whether this device's failure still permits degraded operation.
	// The pool-level decision lives in the pool package and is a
	// deliberately separate rule.
	DegradedModeCapable bool `json:"degraded_mode_capable"`

	AssessedAt time.Time `json:"assessed_at"`
}
