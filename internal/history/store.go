// Package history retains a rolling per-device time series of diagnostic
// readings. It owns the only durable state in the monitoring core: the
// full in-memory set is serialized to a JSON document on every Record
// using a write-to-temp-then-rename pattern so a crash mid-write never
// corrupts the store.
package history

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/dkellner/drivesentry/internal/smart"
)

// DefaultRetentionDays is how long readings are kept before being pruned.
const DefaultRetentionDays = 30

// document is the on-disk shape of the store. Unknown extra fields in an
// existing file are tolerated for forward compatibility.
type document struct {
	HealthHistory []smart.Reading `json:"health_history"`
	LastUpdated   time.Time       `json:"last_updated"`
}

// Store appends diagnostic readings to a per-device time series and
// prunes entries older than the retention window as part of each write.
// It is safe for concurrent use.
type Store struct {
	path      string
	retention time.Duration
	now       func() time.Time

	mu       sync.Mutex
	readings map[string][]smart.Reading // per device, ascending by CapturedAt
}

// NewStore returns a Store backed by the JSON document at path, retaining
// readings for retentionDays (DefaultRetentionDays when <= 0). The store
// is rehydrated from an existing file; a missing or unparseable file
// starts the store empty with a logged warning, never fatally.
func NewStore(path string, retentionDays int) *Store {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	s := &Store{
		path:      path,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		now:       time.Now,
		readings:  make(map[string][]smart.Reading),
	}
	s.load()
	return s
}

// load rehydrates the in-memory map from the backing file.
func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("warning: could not read history file %q: %v; starting empty", s.path, err)
		}
		return
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Printf("warning: could not parse history file %q: %v; starting empty", s.path, err)
		return
	}

	for _, r := range doc.HealthHistory {
		if r.DeviceID == "" {
			continue
		}
		s.readings[r.DeviceID] = append(s.readings[r.DeviceID], r)
	}
	for id := range s.readings {
		sortAscending(s.readings[id])
	}
}

// Record appends reading to its device's series, prunes entries that have
// aged out of the retention window across every device, and persists the
// full store.
func (s *Store) Record(reading smart.Reading) error {
	if reading.DeviceID == "" {
		return fmt.Errorf("record reading: empty device id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	series := append(s.readings[reading.DeviceID], reading)
	sortAscending(series)
	s.readings[reading.DeviceID] = series

	s.pruneLocked(s.now().Add(-s.retention))

	if err := s.persist(); err != nil {
		return fmt.Errorf("record reading for %s: %w", reading.DeviceID, err)
	}
	return nil
}

// pruneLocked drops every retained reading older than cutoff, regardless
// of which device it belongs to. An idle device's entries still age out
// when any other device records. The caller must hold s.mu.
func (s *Store) pruneLocked(cutoff time.Time) {
	for id, series := range s.readings {
		i := 0
		for i < len(series) && series[i].CapturedAt.Before(cutoff) {
			i++
		}
		if i == len(series) {
			delete(s.readings, id)
			continue
		}
		s.readings[id] = series[i:]
	}
}

// Query returns the readings for deviceID captured within the last `days`
// days, ordered oldest-first. An empty slice (never an error) is returned
// when nothing matches.
func (s *Store) Query(deviceID string, days int) []smart.Reading {
	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour)

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []smart.Reading
	for _, r := range s.readings[deviceID] {
		if !r.CapturedAt.Before(cutoff) {
			out = append(out, r)
		}
	}
	if out == nil {
		out = []smart.Reading{}
	}
	return out
}

// Devices returns the ids of every device with at least one retained
// reading, sorted for stable output.
func (s *Store) Devices() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.readings))
	for id, series := range s.readings {
		if len(series) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// persist serializes every retained reading to the backing file via a
// temp file and an atomic rename. The caller must hold s.mu.
func (s *Store) persist() error {
	doc := document{
		HealthHistory: make([]smart.Reading, 0),
		LastUpdated:   s.now().UTC(),
	}

	ids := make([]string, 0, len(s.readings))
	for id := range s.readings {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		doc.HealthHistory = append(doc.HealthHistory, s.readings[id]...)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".history-*.json")
	if err != nil {
		return fmt.Errorf("create temp history file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp history file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp history file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace history file: %w", err)
	}
	return nil
}

// sortAscending orders a series oldest-first in place.
func sortAscending(series []smart.Reading) {
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].CapturedAt.Before(series[j].CapturedAt)
	})
}
