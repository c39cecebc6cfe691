package detector

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/dkellner/drivesentry/internal/smart"
	"github.com/dkellner/drivesentry/internal/topology"
	"github.com/dkellner/drivesentry/internal/trend"
)

// Reading-based thresholds. An instantaneous value at or past one of
// these produces an event regardless of trend; trend-based events are
// generated independently because they represent different evidence
// (historical versus instantaneous).
const (
	temperatureCriticalC = 60
	temperatureHighC     = 55

	reallocatedHighCount   = 10
	reallocatedMediumCount = 5

	pendingHighCount   = 5
	pendingMediumCount = 1
)

// DefaultTrendWindowDays is the history window fed to the trend analyzer.
const DefaultTrendWindowDays = 7

// eventRetention bounds the per-device rolling event log.
const eventRetention = 30 * 24 * time.Hour

// HistoryStore is the slice of the history package the detector needs.
type HistoryStore interface {
	Record(reading smart.Reading) error
	Query(deviceID string, days int) []smart.Reading
}

// Detector assesses device health. All collaborator calls are
// independently fault-tolerant: a failing sub-check contributes a
// communication-error event instead of aborting the assessment.
type Detector struct {
	source   smart.DiagnosticSource
	store    HistoryStore
	analyzer *trend.Analyzer
	topo     topology.Provider
	access   topology.AccessChecker

	windowDays int
	now        func() time.Time

	// mu guards the caches; deviceLocks serializes concurrent
	// assessments of the same device while allowing different devices
	// to be assessed in parallel.
	mu          sync.RWMutex
	assessments map[string]*Assessment
	eventLog    map[string][]FailureEvent

	locksMu     sync.Mutex
	deviceLocks map[string]*sync.Mutex
}

// New returns a Detector wired to its collaborators. windowDays <= 0
// falls back to DefaultTrendWindowDays.
func New(source smart.DiagnosticSource, store HistoryStore, analyzer *trend.Analyzer, topo topology.Provider, access topology.AccessChecker, windowDays int) *Detector {
	if source == nil || store == nil || analyzer == nil || topo == nil || access == nil {
		panic("detector collaborators must not be nil")
	}
	if windowDays <= 0 {
		windowDays = DefaultTrendWindowDays
	}
	return &Detector{
		source:      source,
		store:       store,
		analyzer:    analyzer,
		topo:        topo,
		access:      access,
		windowDays:  windowDays,
		now:         time.Now,
		assessments: make(map[string]*Assessment),
		eventLog:    make(map[string][]FailureEvent),
		deviceLocks: make(map[string]*sync.Mutex),
	}
}

// AssessDevice runs a full health assessment for deviceID: fresh
// diagnostic reading, trend analysis over the history window, threshold
// evaluation, and mount reachability. The resulting assessment is cached
// and its events appended to the device's rolling log.
//
// Assessments of the same device are serialized; different devices may
// be assessed concurrently.
func (d *Detector) AssessDevice(ctx context.Context, deviceID string) (*Assessment, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("assess device: empty device id")
	}

	lock := d.deviceLock(deviceID)
	lock.Lock()
	defer lock.Unlock()

	now := d.now().UTC()
	var events []FailureEvent

	// Fresh reading. A collaborator failure becomes an event,
	// not an aborted assessment.
	reading := d.readDiagnostics(ctx, deviceID, now, &events)

	// Trend analysis over the retained window. Insufficient
	// history simply contributes no trend-based events.
	var analysis *trend.Analysis
	if window := d.store.Query(deviceID, d.windowDays); len(window) > 0 {
		analysis, _ = d.analyzer.Analyze(deviceID, window, d.windowDays)
	}

	// Topology lookup before grading: a device missing from the pool
	// short-circuits the threshold checks, since there is nothing meaningful
	// to grade against.
	device, lookupErr := d.topo.Lookup(deviceID)
	if lookupErr != nil {
		events = append(events, FailureEvent{
			DeviceID: deviceID,
			Kind:     KindMountFailure,
			Risk:     RiskHigh,
			Message:  fmt.Sprintf("Device %s is not present in the pool topology", deviceID),
			RecommendedActions: []string{
				"Check drive cabling and power",
				"Verify the drive is assigned to the pool",
			},
			CapturedAt: now,
		})
	} else {
		// Instantaneous and trend thresholds, evaluated
		// independently of each other.
		if reading != nil {
			events = append(events, readingEvents(reading, now)...)
		}
		if analysis != nil {
			events = append(events, trendEvents(deviceID, analysis, now)...)
		}

		// Reachability of the device's mount point.
		switch d.access.Check(device.MountPoint) {
		case topology.MountUnreachable:
			events = append(events, FailureEvent{
				DeviceID: deviceID,
				Kind:     KindMountFailure,
				Risk:     RiskHigh,
				Message:  fmt.Sprintf("Mount point %s is unreachable", device.MountPoint),
				RecommendedActions: []string{
					"Check that the filesystem is mounted",
					"Inspect system logs for filesystem errors",
				},
				CapturedAt: now,
			})
		case topology.MountNotWritable:
			events = append(events, FailureEvent{
				DeviceID: deviceID,
				Kind:     KindIOError,
				Risk:     RiskMedium,
				Message:  fmt.Sprintf("Mount point %s is not read/write accessible", device.MountPoint),
				RecommendedActions: []string{
					"Check for a read-only remount after filesystem errors",
					"Run a filesystem check at the next maintenance window",
				},
				CapturedAt: now,
			})
		}
	}

	assessment := &Assessment{
		DeviceID:    deviceID,
		OverallRisk: maxRisk(events),
		Events:      events,
		AssessedAt:  now,
	}

	d.mu.Lock()
	assessment.DegradedModeCapable = d.degradedCapableLocked(deviceID, assessment)
	d.assessments[deviceID] = assessment
	d.eventLog[deviceID] = appendPruned(d.eventLog[deviceID], events, now)
	d.mu.Unlock()

	return assessment, nil
}

// readDiagnostics fetches and parses a fresh reading, recording it into
// the history store. On any failure it appends a communication-error
// event and returns nil.
func (d *Detector) readDiagnostics(ctx context.Context, deviceID string, now time.Time, events *[]FailureEvent) *smart.Reading {
	commError := func(err error) {
		*events = append(*events, FailureEvent{
			DeviceID: deviceID,
			Kind:     KindCommunicationError,
			Risk:     RiskMedium,
			Message:  fmt.Sprintf("Could not read diagnostics: %v", err),
			RecommendedActions: []string{
				"Verify the drive responds to diagnostic queries",
				"Check drive cabling and controller health",
			},
			CapturedAt: now,
		})
	}

	healthText, attrText, err := d.source.ReadDiagnostics(ctx, deviceID)
	if err != nil {
		commError(err)
		return nil
	}

	reading, err := smart.Parse(deviceID, healthText, attrText)
	if err != nil {
		commError(err)
		return nil
	}

	if err := d.store.Record(*reading); err != nil {
		// History persistence failure degrades trend quality but must
		// not block the assessment itself.
		log.Printf("warning: could not record reading for %s: %v", deviceID, err)
	}
	return reading
}

// readingEvents grades the instantaneous reading against the fixed
// thresholds. Each check is independent; several may fire at once.
func readingEvents(r *smart.Reading, now time.Time) []FailureEvent {
	var events []FailureEvent

	if r.OverallHealth == smart.HealthFailed {
		events = append(events, FailureEvent{
			DeviceID:   r.DeviceID,
			Kind:       KindSmartFailure,
			Risk:       RiskCritical,
			Message:    "SMART overall health self-assessment reports FAILED",
			IsCritical: true,
			RecommendedActions: []string{
				"Back up all data from this drive immediately",
				"Replace the drive as soon as possible",
			},
			CapturedAt: now,
		})
	}

	if r.TemperatureC != nil {
		switch t := *r.TemperatureC; {
		case t >= temperatureCriticalC:
			events = append(events, FailureEvent{
				DeviceID: r.DeviceID,
				Kind:     KindTemperatureCritical,
				Risk:     RiskHigh,
				Message:  fmt.Sprintf("Drive temperature %d°C is at a critical level", t),
				RecommendedActions: []string{
					"Check enclosure fans and airflow immediately",
					"Reduce drive workload until temperature recovers",
				},
				CapturedAt: now,
			})
		case t >= temperatureHighC:
			events = append(events, FailureEvent{
				DeviceID: r.DeviceID,
				Kind:     KindTemperatureCritical,
				Risk:     RiskMedium,
				Message:  fmt.Sprintf("Drive temperature %d°C is elevated", t),
				RecommendedActions: []string{
					"Check enclosure cooling and airflow",
				},
				CapturedAt: now,
			})
		}
	}

	if r.ReallocatedSectors != nil && *r.ReallocatedSectors > reallocatedMediumCount {
		risk := RiskMedium
		if *r.ReallocatedSectors > reallocatedHighCount {
			risk = RiskHigh
		}
		events = append(events, FailureEvent{
			DeviceID: r.DeviceID,
			Kind:     KindReallocatedSectors,
			Risk:     risk,
			Message:  fmt.Sprintf("Drive has %d reallocated sectors", *r.ReallocatedSectors),
			RecommendedActions: []string{
				"Run an extended self-test",
				"Plan a replacement drive",
			},
			CapturedAt: now,
		})
	}

	if r.PendingSectors != nil && *r.PendingSectors > pendingMediumCount {
		risk := RiskMedium
		if *r.PendingSectors > pendingHighCount {
			risk = RiskHigh
		}
		events = append(events, FailureEvent{
			DeviceID: r.DeviceID,
			Kind:     KindPendingSectors,
			Risk:     risk,
			Message:  fmt.Sprintf("Drive has %d pending sectors awaiting reallocation", *r.PendingSectors),
			RecommendedActions: []string{
				"Verify backups are current",
				"Run an extended self-test",
			},
			CapturedAt: now,
		})
	}

	return events
}

// trendEvents converts increasing trend directions into medium-risk
// events of the corresponding kind. These fire independently of the
// instantaneous checks; the duplication is accepted because the two
// represent different evidence.
func trendEvents(deviceID string, a *trend.Analysis, now time.Time) []FailureEvent {
	var events []FailureEvent

	if a.TemperatureTrend == trend.DirectionIncreasing {
		events = append(events, FailureEvent{
			DeviceID: deviceID,
			Kind:     KindTemperatureCritical,
			Risk:     RiskMedium,
			Message:  fmt.Sprintf("Temperature has trended upward over the last %d days", a.WindowDays),
			RecommendedActions: []string{
				"Check enclosure cooling and airflow",
			},
			CapturedAt: now,
		})
	}
	if a.ReallocatedSectorsTrend == trend.DirectionIncreasing {
		events = append(events, FailureEvent{
			DeviceID: deviceID,
			Kind:     KindReallocatedSectors,
			Risk:     RiskMedium,
			Message:  fmt.Sprintf("Reallocated sector count has grown over the last %d days", a.WindowDays),
			RecommendedActions: []string{
				"Run an extended self-test",
				"Plan a replacement drive",
			},
			CapturedAt: now,
		})
	}
	if a.PendingSectorsTrend == trend.DirectionIncreasing {
		events = append(events, FailureEvent{
			DeviceID: deviceID,
			Kind:     KindPendingSectors,
			Risk:     RiskMedium,
			Message:  fmt.Sprintf("Pending sector count has grown over the last %d days", a.WindowDays),
			RecommendedActions: []string{
				"Verify backups are current",
				"Run an extended self-test",
			},
			CapturedAt: now,
		})
	}

	return events
}

// degradedCapableLocked is the conservative per-device estimate: a device
// can no longer degrade gracefully once it is failed and at least one
// other device is failed too, since that would push the pool past
// single-fault tolerance. The caller must hold d.mu. This is deliberately
// a separate rule from the pool-level evaluator.
func (d *Detector) degradedCapableLocked(deviceID string, a *Assessment) bool {
	if !assessmentFailed(a) {
		return true
	}
	for id, cached := range d.assessments {
		if id != deviceID && assessmentFailed(cached) {
			return false
		}
	}
	return true
}

// assessmentFailed reports whether an assessment marks its device as
// failed: critical overall risk or any critical event.
func assessmentFailed(a *Assessment) bool {
	if a.OverallRisk == RiskCritical {
		return true
	}
	for _, e := range a.Events {
		if e.IsCritical {
			return true
		}
	}
	return false
}

// GetCachedAssessment returns the most recent assessment for deviceID
// without touching hardware. The second return value is false when the
// device has never been assessed.
func (d *Detector) GetCachedAssessment(deviceID string) (*Assessment, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.assessments[deviceID]
	return a, ok
}

// GetFailedDevices returns the ids of every device whose cached
// assessment is critical or carries a critical event, sorted.
func (d *Detector) GetFailedDevices() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var ids []string
	for id, a := range d.assessments {
		if assessmentFailed(a) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// GetDegradedDevices returns the ids of every device whose cached risk
// is medium or high and which can still operate degraded, sorted.
func (d *Detector) GetDegradedDevices() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var ids []string
	for id, a := range d.assessments {
		if (a.OverallRisk == RiskMedium || a.OverallRisk == RiskHigh) && a.DegradedModeCapable {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// GetRecoveryRecommendations returns the union of the cached events'
// recommended actions plus risk-level boilerplate, preserving first-seen
// order. An empty slice is returned for unassessed devices.
func (d *Detector) GetRecoveryRecommendations(deviceID string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	a, ok := d.assessments[deviceID]
	if !ok {
		return []string{}
	}

	seen := make(map[string]struct{})
	recs := []string{}
	add := func(items ...string) {
		for _, item := range items {
			if _, dup := seen[item]; dup {
				continue
			}
			seen[item] = struct{}{}
			recs = append(recs, item)
		}
	}

	for _, e := range a.Events {
		add(e.RecommendedActions...)
	}

	switch a.OverallRisk {
	case RiskCritical:
		add(
			"Back up this drive's data immediately",
			"Stop writing new data to this drive",
			"Replace the drive as soon as possible",
		)
	case RiskHigh:
		add(
			"Plan a drive replacement soon",
			"Increase backup cadence for this drive",
		)
	case RiskMedium:
		add(
			"Monitor this drive closely",
			"Run an extended self-test",
		)
	}
	return recs
}

// GetFailureHistory returns the device's logged failure events from the
// last `days` days, oldest-first.
func (d *Detector) GetFailureHistory(deviceID string, days int) []FailureEvent {
	cutoff := d.now().Add(-time.Duration(days) * 24 * time.Hour)

	d.mu.RLock()
	defer d.mu.RUnlock()

	out := []FailureEvent{}
	for _, e := range d.eventLog[deviceID] {
		if !e.CapturedAt.Before(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

// deviceLock returns the per-device assessment mutex, creating it on
// first use.
func (d *Detector) deviceLock(deviceID string) *sync.Mutex {
	d.locksMu.Lock()
	defer d.locksMu.Unlock()
	lock, ok := d.deviceLocks[deviceID]
	if !ok {
		lock = &sync.Mutex{}
		d.deviceLocks[deviceID] = lock
	}
	return lock
}

// maxRisk returns the maximum risk among events, RiskLow when there are
// none.
func maxRisk(events []FailureEvent) Risk {
	max := RiskLow
	for _, e := range events {
		if e.Risk > max {
			max = e.Risk
		}
	}
	return max
}

// appendPruned appends fresh events to a device log and drops entries
// older than the retention window.
func appendPruned(logEntries, fresh []FailureEvent, now time.Time) []FailureEvent {
	cutoff := now.Add(-eventRetention)
	kept := logEntries[:0:0]
	for _, e := range logEntries {
		if !e.CapturedAt.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	return append(kept, fresh...)
}
