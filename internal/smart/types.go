// Package smart turns raw drive self-diagnostic output into structured
// readings. It parses the health verdict and attribute table produced by
// smartctl and defines the DiagnosticSource boundary through which the
// rest of the system obtains that output.
package smart

import (
	"context"
	"time"
)

// HealthStatus is the drive's overall self-assessment verdict.
type HealthStatus string

const (
	// HealthPassed means the drive reports its self-assessment as passing.
	HealthPassed HealthStatus = "PASSED"

	// HealthFailed means the drive reports an imminent-failure verdict.
	HealthFailed HealthStatus = "FAILED"

	// HealthUnknown means no recognizable verdict was present in the output.
	HealthUnknown HealthStatus = "UNKNOWN"
)

// Reading is one point-in-time diagnostic snapshot for a device.
//
// Numeric fields are pointers because the diagnostic tool does not report
// every attribute for every drive; nil means "not reported" and must never
// be collapsed to zero (zero is a meaningful "no defects" value for the
// sector counters). A Reading is immutable once created.
type Reading struct {
	// DeviceID is the stable device identifier, e.g. "/dev/sda".
	DeviceID string `json:"device_id"`

	// OverallHealth is always set, falling back to HealthUnknown when the
	// tool output carried no recognizable verdict.
	OverallHealth HealthStatus `json:"overall_health"`

	TemperatureC         *int `json:"temperature_c,omitempty"`
	PowerOnHours         *int `json:"power_on_hours,omitempty"`
	PowerCycleCount      *int `json:"power_cycle_count,omitempty"`
	ReallocatedSectors   *int `json:"reallocated_sectors,omitempty"`
	PendingSectors       *int `json:"pending_sectors,omitempty"`
	UncorrectableSectors *int `json:"uncorrectable_sectors,omitempty"`

	// CapturedAt is when the reading was taken.
	CapturedAt time.Time `json:"captured_at"`
}

// DiagnosticSource produces raw diagnostic text for a device. The health
// text carries the pass/fail verdict; the attributes text is the optional
// tabular attribute dump (nil when the tool could not produce one).
//
// Implementations own how the text is obtained (process invocation,
// library call); callers treat both blobs as opaque input to Parse.
type DiagnosticSource interface {
	ReadDiagnostics(ctx context.Context, deviceID string) (healthText string, attributesText *string, err error)
}
