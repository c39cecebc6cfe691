package detector

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dkellner/drivesentry/internal/pool"
	"github.com/dkellner/drivesentry/internal/smart"
	"github.com/dkellner/drivesentry/internal/topology"
	"github.com/dkellner/drivesentry/internal/trend"
)

const healthPassed = "SMART overall-health self-assessment test result: PASSED\n"
const healthFailed = "SMART overall-health self-assessment test result: FAILED!\n"

func intPtr(v int) *int { return &v }

// attrTable renders a minimal attribute table with the given raw values.
func attrTable(temp, realloc, pending int) *string {
	table := fmt.Sprintf(`  5 Reallocated_Sector_Ct   0x0033   100   100   010    Pre-fail  Always       -       %d
194 Temperature_Celsius     0x0022   058   045   000    Old_age   Always       -       %d
197 Current_Pending_Sector  0x0032   100   100   000    Old_age   Always       -       %d
`, realloc, temp, pending)
	return &table
}

// ===========================================================================
// Mocks
// ===========================================================================

type mockSource struct {
	readFunc func(ctx context.Context, deviceID string) (string, *string, error)
}

var _ smart.DiagnosticSource = (*mockSource)(nil)

func (m *mockSource) ReadDiagnostics(ctx context.Context, deviceID string) (string, *string, error) {
	if m.readFunc != nil {
		return m.readFunc(ctx, deviceID)
	}
	return healthPassed, nil, nil
}

type mockStore struct {
	recordFunc func(reading smart.Reading) error
	queryFunc  func(deviceID string, days int) []smart.Reading

	recorded []smart.Reading
}

var _ HistoryStore = (*mockStore)(nil)

func (m *mockStore) Record(reading smart.Reading) error {
	m.recorded = append(m.recorded, reading)
	if m.recordFunc != nil {
		return m.recordFunc(reading)
	}
	return nil
}

func (m *mockStore) Query(deviceID string, days int) []smart.Reading {
	if m.queryFunc != nil {
		return m.queryFunc(deviceID, days)
	}
	return nil
}

type mockProvider struct {
	devicesFunc  func() ([]topology.Device, error)
	lookupFunc   func(deviceID string) (*topology.Device, error)
	classifyFunc func(deviceID string) (pool.Role, error)
	countsFunc   func() (int, int, error)
}

var _ topology.Provider = (*mockProvider)(nil)

func (m *mockProvider) Devices() ([]topology.Device, error) {
	if m.devicesFunc != nil {
		return m.devicesFunc()
	}
	return nil, nil
}

func (m *mockProvider) Lookup(deviceID string) (*topology.Device, error) {
	if m.lookupFunc != nil {
		return m.lookupFunc(deviceID)
	}
	return &topology.Device{ID: deviceID, Name: "disk1", Role: pool.RoleData}, nil
}

func (m *mockProvider) ClassifyDevice(deviceID string) (pool.Role, error) {
	if m.classifyFunc != nil {
		return m.classifyFunc(deviceID)
	}
	return pool.RoleData, nil
}

func (m *mockProvider) Counts() (int, int, error) {
	if m.countsFunc != nil {
		return m.countsFunc()
	}
	return 4, 1, nil
}

type mockAccess struct {
	checkFunc func(mountPoint string) topology.MountState
}

var _ topology.AccessChecker = (*mockAccess)(nil)

func (m *mockAccess) Check(mountPoint string) topology.MountState {
	if m.checkFunc != nil {
		return m.checkFunc(mountPoint)
	}
	return topology.MountOK
}

func newTestDetector(source *mockSource, store *mockStore, topo *mockProvider, access *mockAccess) *Detector {
	if source == nil {
		source = &mockSource{}
	}
	if store == nil {
		store = &mockStore{}
	}
	if topo == nil {
		topo = &mockProvider{}
	}
	if access == nil {
		access = &mockAccess{}
	}
	return New(source, store, trend.NewAnalyzer(), topo, access, 7)
}

func countEvents(events []FailureEvent, kind EventKind) int {
	n := 0
	for _, e := range events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// ===========================================================================
// Constructor
// ===========================================================================

func TestNew_NilCollaborator(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for nil collaborator, got none")
		}
	}()
	New(nil, &mockStore{}, trend.NewAnalyzer(), &mockProvider{}, &mockAccess{}, 7)
}

// ===========================================================================
// AssessDevice: SMART failure
// ===========================================================================

func Test_AssessDevice_SmartFailure(t *testing.T) {
	source := &mockSource{
		readFunc: func(ctx context.Context, deviceID string) (string, *string, error) {
			return healthFailed, nil, nil
		},
	}
	d := newTestDetector(source, nil, nil, nil)

	a, err := d.AssessDevice(context.Background(), "/dev/sda")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.OverallRisk != RiskCritical {
		t.Errorf("OverallRisk = %v, want %v", a.OverallRisk, RiskCritical)
	}
	if got := countEvents(a.Events, KindSmartFailure); got != 1 {
		t.Fatalf("got %d smart_failure events, want exactly 1", got)
	}
	for _, e := range a.Events {
		if e.Kind == KindSmartFailure {
			if !e.IsCritical {
				t.Error("smart_failure event must be marked critical")
			}
			if e.Risk != RiskCritical {
				t.Errorf("smart_failure risk = %v, want %v", e.Risk, RiskCritical)
			}
			if len(e.RecommendedActions) == 0 {
				t.Error("smart_failure event must carry recommended actions")
			}
		}
	}
}

func Test_AssessDevice_HealthyDevice(t *testing.T) {
	source := &mockSource{
		readFunc: func(ctx context.Context, deviceID string) (string, *string, error) {
			return healthPassed, attrTable(35, 0, 0), nil
		},
	}
	d := newTestDetector(source, nil, nil, nil)

	a, err := d.AssessDevice(context.Background(), "/dev/sda")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.OverallRisk != RiskLow {
		t.Errorf("OverallRisk = %v, want %v (events: %+v)", a.OverallRisk, RiskLow, a.Events)
	}
	if len(a.Events) != 0 {
		t.Errorf("got %d events, want 0: %+v", len(a.Events), a.Events)
	}
	if !a.DegradedModeCapable {
		t.Error("healthy device must be degraded-mode capable")
	}
}

// ===========================================================================
// AssessDevice: instantaneous thresholds
// ===========================================================================

func Test_AssessDevice_Thresholds(t *testing.T) {
	tests := []struct {
		name     string
		temp     int
		realloc  int
		pending  int
		wantKind EventKind
		wantRisk Risk
	}{
		{"temperature critical", 60, 0, 0, KindTemperatureCritical, RiskHigh},
		{"temperature elevated", 55, 0, 0, KindTemperatureCritical, RiskMedium},
		{"reallocated high", 0, 11, 0, KindReallocatedSectors, RiskHigh},
		{"reallocated medium", 0, 6, 0, KindReallocatedSectors, RiskMedium},
		{"pending high", 0, 0, 6, KindPendingSectors, RiskHigh},
		{"pending medium", 0, 0, 2, KindPendingSectors, RiskMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &mockSource{
				readFunc: func(ctx context.Context, deviceID string) (string, *string, error) {
					return healthPassed, attrTable(tt.temp, tt.realloc, tt.pending), nil
				},
			}
			d := newTestDetector(source, nil, nil, nil)

			a, err := d.AssessDevice(context.Background(), "/dev/sda")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := countEvents(a.Events, tt.wantKind); got != 1 {
				t.Fatalf("got %d %s events, want 1: %+v", got, tt.wantKind, a.Events)
			}
			if a.OverallRisk != tt.wantRisk {
				t.Errorf("OverallRisk = %v, want %v", a.OverallRisk, tt.wantRisk)
			}
		})
	}
}

func Test_AssessDevice_ThresholdBoundaries(t *testing.T) {
	// Values at the non-firing side of each boundary produce no events.
	tests := []struct {
		name    string
		temp    int
		realloc int
		pending int
	}{
		{"temperature below elevated", 54, 0, 0},
		{"reallocated at medium boundary", 0, 5, 0},
		{"pending at medium boundary", 0, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &mockSource{
				readFunc: func(ctx context.Context, deviceID string) (string, *string, error) {
					return healthPassed, attrTable(tt.temp, tt.realloc, tt.pending), nil
				},
			}
			d := newTestDetector(source, nil, nil, nil)

			a, err := d.AssessDevice(context.Background(), "/dev/sda")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(a.Events) != 0 {
				t.Errorf("got %d events, want 0: %+v", len(a.Events), a.Events)
			}
		})
	}
}

// ===========================================================================
// AssessDevice: trend and instantaneous evidence are independent
// ===========================================================================

func Test_AssessDevice_TrendAndInstantaneousBothFire(t *testing.T) {
	base := time.Now().UTC().Add(-48 * time.Hour)
	store := &mockStore{
		queryFunc: func(deviceID string, days int) []smart.Reading {
			return []smart.Reading{
				{DeviceID: deviceID, OverallHealth: smart.HealthPassed, ReallocatedSectors: intPtr(2), CapturedAt: base},
				{DeviceID: deviceID, OverallHealth: smart.HealthPassed, ReallocatedSectors: intPtr(12), CapturedAt: base.Add(24 * time.Hour)},
			}
		},
	}
	source := &mockSource{
		readFunc: func(ctx context.Context, deviceID string) (string, *string, error) {
			return healthPassed, attrTable(30, 12, 0), nil
		},
	}
	d := newTestDetector(source, store, nil, nil)

	a, err := d.AssessDevice(context.Background(), "/dev/sda")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// One event from the instantaneous count, one from the growth trend.
	if got := countEvents(a.Events, KindReallocatedSectors); got != 2 {
		t.Errorf("got %d reallocated_sectors events, want 2 (instantaneous + trend): %+v", got, a.Events)
	}
}

// ===========================================================================
// AssessDevice: topology misses and mount states
// ===========================================================================

func Test_AssessDevice_UnknownDevice_ShortCircuitsThresholds(t *testing.T) {
	source := &mockSource{
		readFunc: func(ctx context.Context, deviceID string) (string, *string, error) {
			// The reading alone would produce threshold events, but the
			// topology miss must suppress them.
			return healthPassed, attrTable(65, 20, 10), nil
		},
	}
	topo := &mockProvider{
		lookupFunc: func(deviceID string) (*topology.Device, error) {
			return nil, fmt.Errorf("device %s not found in pool topology", deviceID)
		},
	}
	d := newTestDetector(source, nil, topo, nil)

	a, err := d.AssessDevice(context.Background(), "/dev/sdz")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(a.Events) != 1 {
		t.Fatalf("got %d events, want 1: %+v", len(a.Events), a.Events)
	}
	e := a.Events[0]
	if e.Kind != KindMountFailure {
		t.Errorf("event kind = %q, want %q", e.Kind, KindMountFailure)
	}
	if e.Risk != RiskHigh {
		t.Errorf("event risk = %v, want %v", e.Risk, RiskHigh)
	}
	if a.OverallRisk != RiskHigh {
		t.Errorf("OverallRisk = %v, want %v", a.OverallRisk, RiskHigh)
	}
}

func Test_AssessDevice_MountStates(t *testing.T) {
	tests := []struct {
		name     string
		state    topology.MountState
		wantKind EventKind
		wantRisk Risk
	}{
		{"unreachable mount", topology.MountUnreachable, KindMountFailure, RiskHigh},
		{"read-only mount", topology.MountNotWritable, KindIOError, RiskMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			access := &mockAccess{
				checkFunc: func(mountPoint string) topology.MountState { return tt.state },
			}
			d := newTestDetector(nil, nil, nil, access)

			a, err := d.AssessDevice(context.Background(), "/dev/sda")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := countEvents(a.Events, tt.wantKind); got != 1 {
				t.Fatalf("got %d %s events, want 1: %+v", got, tt.wantKind, a.Events)
			}
			if a.OverallRisk != tt.wantRisk {
				t.Errorf("OverallRisk = %v, want %v", a.OverallRisk, tt.wantRisk)
			}
		})
	}
}

// ===========================================================================
// AssessDevice: collaborator failures
// ===========================================================================

func Test_AssessDevice_SourceError_BecomesCommunicationEvent(t *testing.T) {
	source := &mockSource{
		readFunc: func(ctx context.Context, deviceID string) (string, *string, error) {
			return "", nil, fmt.Errorf("smartctl: device open failed")
		},
	}
	d := newTestDetector(source, nil, nil, nil)

	a, err := d.AssessDevice(context.Background(), "/dev/sda")
	if err != nil {
		t.Fatalf("collaborator failure must not abort the assessment: %v", err)
	}
	if got := countEvents(a.Events, KindCommunicationError); got != 1 {
		t.Fatalf("got %d communication_error events, want 1: %+v", got, a.Events)
	}
	if a.OverallRisk != RiskMedium {
		t.Errorf("OverallRisk = %v, want %v", a.OverallRisk, RiskMedium)
	}
}

func Test_AssessDevice_StoreFailure_DoesNotAbort(t *testing.T) {
	store := &mockStore{
		recordFunc: func(reading smart.Reading) error {
			return fmt.Errorf("disk full")
		},
	}
	d := newTestDetector(nil, store, nil, nil)

	a, err := d.AssessDevice(context.Background(), "/dev/sda")
	if err != nil {
		t.Fatalf("history persistence failure must not abort the assessment: %v", err)
	}
	if a.OverallRisk != RiskLow {
		t.Errorf("OverallRisk = %v, want %v", a.OverallRisk, RiskLow)
	}
}

func Test_AssessDevice_RecordsFreshReading(t *testing.T) {
	store := &mockStore{}
	source := &mockSource{
		readFunc: func(ctx context.Context, deviceID string) (string, *string, error) {
			return healthPassed, attrTable(35, 0, 0), nil
		},
	}
	d := newTestDetector(source, store, nil, nil)

	if _, err := d.AssessDevice(context.Background(), "/dev/sda"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.recorded) != 1 {
		t.Fatalf("store received %d readings, want 1", len(store.recorded))
	}
	if store.recorded[0].DeviceID != "/dev/sda" {
		t.Errorf("recorded DeviceID = %q, want /dev/sda", store.recorded[0].DeviceID)
	}
}

func Test_AssessDevice_EmptyDeviceID(t *testing.T) {
	d := newTestDetector(nil, nil, nil, nil)
	if _, err := d.AssessDevice(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty device id, got nil")
	}
}

// ===========================================================================
// Overall risk is the maximum of event risks
// ===========================================================================

func Test_AssessDevice_OverallRiskIsMaxOfEvents(t *testing.T) {
	// Failed verdict (critical) alongside an elevated temperature
	// (medium): the assessment takes the maximum.
	source := &mockSource{
		readFunc: func(ctx context.Context, deviceID string) (string, *string, error) {
			return healthFailed, attrTable(56, 0, 0), nil
		},
	}
	d := newTestDetector(source, nil, nil, nil)

	a, err := d.AssessDevice(context.Background(), "/dev/sda")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	max := RiskLow
	for _, e := range a.Events {
		if e.Risk > max {
			max = e.Risk
		}
	}
	if a.OverallRisk != max {
		t.Errorf("OverallRisk = %v, want max event risk %v", a.OverallRisk, max)
	}
	if a.OverallRisk != RiskCritical {
		t.Errorf("OverallRisk = %v, want %v", a.OverallRisk, RiskCritical)
	}
}

// ===========================================================================
// Cached assessment queries
// ===========================================================================

func Test_GetCachedAssessment(t *testing.T) {
	d := newTestDetector(nil, nil, nil, nil)

	if _, ok := d.GetCachedAssessment("/dev/sda"); ok {
		t.Error("unassessed device must report ok=false")
	}

	if _, err := d.AssessDevice(context.Background(), "/dev/sda"); err != nil {
		t.Fatal(err)
	}

	a, ok := d.GetCachedAssessment("/dev/sda")
	if !ok {
		t.Fatal("cached assessment missing after AssessDevice")
	}
	if a.DeviceID != "/dev/sda" {
		t.Errorf("DeviceID = %q, want /dev/sda", a.DeviceID)
	}
}

func Test_GetFailedDevices(t *testing.T) {
	failing := map[string]bool{"/dev/sdb": true, "/dev/sdd": true}
	source := &mockSource{
		readFunc: func(ctx context.Context, deviceID string) (string, *string, error) {
			if failing[deviceID] {
				return healthFailed, nil, nil
			}
			return healthPassed, nil, nil
		},
	}
	d := newTestDetector(source, nil, nil, nil)

	for _, id := range []string{"/dev/sdd", "/dev/sda", "/dev/sdb", "/dev/sdc"} {
		if _, err := d.AssessDevice(context.Background(), id); err != nil {
			t.Fatal(err)
		}
	}

	got := d.GetFailedDevices()
	want := []string{"/dev/sdb", "/dev/sdd"}
	if len(got) != len(want) {
		t.Fatalf("GetFailedDevices() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("GetFailedDevices()[%d] = %q, want %q (sorted)", i, got[i], want[i])
		}
	}
}

func Test_GetDegradedDevices(t *testing.T) {
	// /dev/sda healthy, /dev/sdb elevated temperature (medium),
	// /dev/sdc failed (critical, excluded from degraded list).
	source := &mockSource{
		readFunc: func(ctx context.Context, deviceID string) (string, *string, error) {
			switch deviceID {
			case "/dev/sdb":
				return healthPassed, attrTable(56, 0, 0), nil
			case "/dev/sdc":
				return healthFailed, nil, nil
			default:
				return healthPassed, nil, nil
			}
		},
	}
	d := newTestDetector(source, nil, nil, nil)

	for _, id := range []string{"/dev/sda", "/dev/sdb", "/dev/sdc"} {
		if _, err := d.AssessDevice(context.Background(), id); err != nil {
			t.Fatal(err)
		}
	}

	got := d.GetDegradedDevices()
	if len(got) != 1 || got[0] != "/dev/sdb" {
		t.Errorf("GetDegradedDevices() = %v, want [/dev/sdb]", got)
	}
}

// ===========================================================================
// Per-device degraded capability
// ===========================================================================

func Test_DegradedModeCapable_SingleFailure(t *testing.T) {
	source := &mockSource{
		readFunc: func(ctx context.Context, deviceID string) (string, *string, error) {
			return healthFailed, nil, nil
		},
	}
	d := newTestDetector(source, nil, nil, nil)

	a, err := d.AssessDevice(context.Background(), "/dev/sda")
	if err != nil {
		t.Fatal(err)
	}
	if !a.DegradedModeCapable {
		t.Error("a lone failed device should still permit degraded operation")
	}
}

func Test_DegradedModeCapable_SecondFailure(t *testing.T) {
	source := &mockSource{
		readFunc: func(ctx context.Context, deviceID string) (string, *string, error) {
			return healthFailed, nil, nil
		},
	}
	d := newTestDetector(source, nil, nil, nil)

	if _, err := d.AssessDevice(context.Background(), "/dev/sda"); err != nil {
		t.Fatal(err)
	}
	second, err := d.AssessDevice(context.Background(), "/dev/sdb")
	if err != nil {
		t.Fatal(err)
	}
	if second.DegradedModeCapable {
		t.Error("a second concurrent failure must not be degraded-mode capable")
	}
}

// ===========================================================================
// Recovery recommendations
// ===========================================================================

func Test_GetRecoveryRecommendations(t *testing.T) {
	source := &mockSource{
		readFunc: func(ctx context.Context, deviceID string) (string, *string, error) {
			return healthFailed, nil, nil
		},
	}
	d := newTestDetector(source, nil, nil, nil)

	if _, err := d.AssessDevice(context.Background(), "/dev/sda"); err != nil {
		t.Fatal(err)
	}

	recs := d.GetRecoveryRecommendations("/dev/sda")
	if len(recs) == 0 {
		t.Fatal("expected recommendations for a failed device")
	}

	// Event actions come first, then critical-level boilerplate, with no
	// duplicates.
	seen := make(map[string]int)
	for _, r := range recs {
		seen[r]++
	}
	for r, n := range seen {
		if n > 1 {
			t.Errorf("recommendation %q appears %d times, want 1", r, n)
		}
	}
	joined := strings.Join(recs, "\n")
	if !strings.Contains(joined, "Replace the drive as soon as possible") {
		t.Errorf("recommendations missing replacement advice: %v", recs)
	}
	if !strings.Contains(joined, "Stop writing new data to this drive") {
		t.Errorf("recommendations missing critical boilerplate: %v", recs)
	}
}

func Test_GetRecoveryRecommendations_Unassessed(t *testing.T) {
	d := newTestDetector(nil, nil, nil, nil)
	recs := d.GetRecoveryRecommendations("/dev/never")
	if recs == nil {
		t.Fatal("recommendations must be an empty slice, not nil")
	}
	if len(recs) != 0 {
		t.Errorf("got %d recommendations for an unassessed device, want 0", len(recs))
	}
}

// ===========================================================================
// Failure history
// ===========================================================================

func Test_GetFailureHistory(t *testing.T) {
	source := &mockSource{
		readFunc: func(ctx context.Context, deviceID string) (string, *string, error) {
			return healthFailed, nil, nil
		},
	}
	d := newTestDetector(source, nil, nil, nil)

	if _, err := d.AssessDevice(context.Background(), "/dev/sda"); err != nil {
		t.Fatal(err)
	}
	if _, err := d.AssessDevice(context.Background(), "/dev/sda"); err != nil {
		t.Fatal(err)
	}

	events := d.GetFailureHistory("/dev/sda", 30)
	if len(events) != 2 {
		t.Fatalf("got %d logged events, want 2 (one per assessment)", len(events))
	}
	if events[0].CapturedAt.After(events[1].CapturedAt) {
		t.Error("failure history must be ordered oldest-first")
	}

	if got := d.GetFailureHistory("/dev/never", 30); got == nil || len(got) != 0 {
		t.Errorf("history for unknown device = %v, want empty slice", got)
	}
}

func Test_GetFailureHistory_WindowFilter(t *testing.T) {
	source := &mockSource{
		readFunc: func(ctx context.Context, deviceID string) (string, *string, error) {
			return healthFailed, nil, nil
		},
	}
	d := newTestDetector(source, nil, nil, nil)

	old := time.Now().UTC().Add(-10 * 24 * time.Hour)
	d.now = func() time.Time { return old }
	if _, err := d.AssessDevice(context.Background(), "/dev/sda"); err != nil {
		t.Fatal(err)
	}

	d.now = time.Now
	if _, err := d.AssessDevice(context.Background(), "/dev/sda"); err != nil {
		t.Fatal(err)
	}

	if got := d.GetFailureHistory("/dev/sda", 7); len(got) != 1 {
		t.Errorf("7-day window returned %d events, want 1", len(got))
	}
	if got := d.GetFailureHistory("/dev/sda", 30); len(got) != 2 {
		t.Errorf("30-day window returned %d events, want 2", len(got))
	}
}

// ===========================================================================
// ParseRisk
// ===========================================================================

func Test_ParseRisk(t *testing.T) {
	tests := []struct {
		in      string
		want    Risk
		wantErr bool
	}{
		{"low", RiskLow, false},
		{"medium", RiskMedium, false},
		{"high", RiskHigh, false},
		{"critical", RiskCritical, false},
		{"", 0, true},
		{"CRITICAL", 0, true},
		{"severe", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseRisk(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseRisk(%q): expected error, got nil", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRisk(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRisk(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// ===========================================================================
// Risk ordering
// ===========================================================================

func Test_Risk_Ordering(t *testing.T) {
	if !(RiskLow < RiskMedium && RiskMedium < RiskHigh && RiskHigh < RiskCritical) {
		t.Error("risk levels must be strictly ordered low < medium < high < critical")
	}
}

func Test_Risk_JSONRoundTrip(t *testing.T) {
	for _, r := range []Risk{RiskLow, RiskMedium, RiskHigh, RiskCritical} {
		data, err := r.MarshalJSON()
		if err != nil {
			t.Fatalf("MarshalJSON(%v): %v", r, err)
		}
		var back Risk
		if err := back.UnmarshalJSON(data); err != nil {
			t.Fatalf("UnmarshalJSON(%s): %v", data, err)
		}
		if back != r {
			t.Errorf("round trip of %v produced %v", r, back)
		}
	}
}
