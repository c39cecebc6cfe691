// Package trend derives directional trends and a coarse degradation-risk
// label from a device's diagnostic history window. Analyses are computed
// on demand and never persisted.
package trend

import (
	"sort"

	"github.com/dkellner/drivesentry/internal/smart"
)

// Direction is the directional trend of one numeric attribute across a
// history window.
type Direction string

const (
	DirectionIncreasing Direction = "increasing"
	DirectionDecreasing Direction = "decreasing"
	DirectionStable     Direction = "stable"

	// DirectionUnknown means the attribute was not reported at both ends
	// of the window, so no direction can be derived.
	DirectionUnknown Direction = "unknown"
)

// Risk is the coarse degradation-risk label for a device's trend picture.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// temperatureDeadband is how many degrees Celsius the last reading must
// move from the first before the temperature trend leaves "stable".
const temperatureDeadband = 5

// hotTemperatureC is the max-observed-temperature threshold above which
// an increasing temperature trend contributes risk.
const hotTemperatureC = 50

// highPowerOnHours marks a drive near end of expected service life
// (roughly five years of continuous operation).
const highPowerOnHours = 43800

// Analysis is the derived trend picture for one device over one window.
type Analysis struct {
	DeviceID   string `json:"device_id"`
	WindowDays int    `json:"window_days"`

	TemperatureTrend        Direction `json:"temperature_trend"`
	ReallocatedSectorsTrend Direction `json:"reallocated_sectors_trend"`
	PendingSectorsTrend     Direction `json:"pending_sectors_trend"`

	TemperatureAvg float64 `json:"temperature_avg"`
	TemperatureMax int     `json:"temperature_max"`

	DegradationRisk Risk     `json:"degradation_risk"`
	Recommendations []string `json:"recommendations"`
}

// Analyzer computes trend analyses. It is stateless and safe for
// concurrent use.
type Analyzer struct{}

// NewAnalyzer returns a new Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze derives the trend picture for deviceID from the given history
// window. At least two readings are required; with fewer the second
// return value is false and no analysis is produced; this is an expected,
// routine outcome for new devices, not an error.
//
// Trend direction deliberately compares only the last reading to the
// first rather than fitting a regression; the goal is to catch sustained
// directional change cheaply, and the choice is preserved intentionally.
func (a *Analyzer) Analyze(deviceID string, history []smart.Reading, windowDays int) (*Analysis, bool) {
	if len(history) < 2 {
		return nil, false
	}

	// Sort a copy ascending by capture time; callers pass windows in
	// whatever order their store produced them.
	window := make([]smart.Reading, len(history))
	copy(window, history)
	sort.SliceStable(window, func(i, j int) bool {
		return window[i].CapturedAt.Before(window[j].CapturedAt)
	})

	first, last := window[0], window[len(window)-1]

	analysis := &Analysis{
		DeviceID:                deviceID,
		WindowDays:              windowDays,
		TemperatureTrend:        temperatureDirection(first.TemperatureC, last.TemperatureC),
		ReallocatedSectorsTrend: counterDirection(first.ReallocatedSectors, last.ReallocatedSectors),
		PendingSectorsTrend:     counterDirection(first.PendingSectors, last.PendingSectors),
	}
	analysis.TemperatureAvg, analysis.TemperatureMax = temperatureStats(window)

	a.scoreRisk(analysis, window, last)
	return analysis, true
}

// scoreRisk accumulates integer risk points from the trend contributors
// and maps the total onto a Risk label. Recommendations are emitted in
// contributor-check order so output is reproducible.
func (a *Analyzer) scoreRisk(analysis *Analysis, window []smart.Reading, last smart.Reading) {
	points := 0
	var recs []string

	if analysis.TemperatureTrend == DirectionIncreasing && analysis.TemperatureMax > hotTemperatureC {
		points++
		recs = append(recs, "Improve drive cooling and enclosure airflow; sustained operation above 50°C shortens drive life")
	}

	if analysis.ReallocatedSectorsTrend == DirectionIncreasing {
		points += 2
		recs = append(recs, "Reallocated sector count is growing; run an extended self-test and plan a replacement drive")
	}

	if analysis.PendingSectorsTrend == DirectionIncreasing {
		points += 2
		recs = append(recs, "Pending sector count is growing; verify backups and run an extended self-test")
	}

	// Any failing verdict among the last three readings.
	recent := window
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}
	for _, r := range recent {
		if r.OverallHealth == smart.HealthFailed {
			points += 3
			break
		}
	}

	if last.PowerOnHours != nil && *last.PowerOnHours > highPowerOnHours {
		recs = append(recs, "Drive has exceeded five years of power-on time; consider proactive replacement")
	}

	switch {
	case points >= 3:
		analysis.DegradationRisk = RiskHigh
	case points >= 1:
		analysis.DegradationRisk = RiskMedium
	default:
		analysis.DegradationRisk = RiskLow
	}
	analysis.Recommendations = recs
}

// temperatureDirection applies the ±5°C deadband between the first and
// last reported temperatures.
func temperatureDirection(first, last *int) Direction {
	if first == nil || last == nil {
		return DirectionUnknown
	}
	switch {
	case *last >= *first+temperatureDeadband:
		return DirectionIncreasing
	case *last <= *first-temperatureDeadband:
		return DirectionDecreasing
	default:
		return DirectionStable
	}
}

// counterDirection compares a monotonically-meaningful counter (sector
// counts) between the ends of the window; any movement counts.
func counterDirection(first, last *int) Direction {
	if first == nil || last == nil {
		return DirectionUnknown
	}
	switch {
	case *last > *first:
		return DirectionIncreasing
	case *last < *first:
		return DirectionDecreasing
	default:
		return DirectionStable
	}
}

// temperatureStats returns the mean and maximum of the reported
// temperatures in the window. Readings without a temperature are left
// out of both figures.
func temperatureStats(window []smart.Reading) (avg float64, max int) {
	sum, n := 0, 0
	for _, r := range window {
		if r.TemperatureC == nil {
			continue
		}
		sum += *r.TemperatureC
		if n == 0 || *r.TemperatureC > max {
			max = *r.TemperatureC
		}
		n++
	}
	if n > 0 {
		avg = float64(sum) / float64(n)
	}
	return avg, max
}
