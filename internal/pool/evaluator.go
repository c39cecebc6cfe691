// Package pool decides whether the storage pool as a whole can keep
// serving reads and writes while one or more member drives are failed.
package pool

import "fmt"

// Role classifies a pool member drive.
type Role string

const (
	// RoleData is a drive holding user data.
	RoleData Role = "data"

	// RoleParity is a drive holding parity/redundancy information.
	RoleParity Role = "parity"
)

// Topology describes the data/parity composition of the pool.
type Topology struct {
	DataDrives   int `json:"data_drives"`
	ParityDrives int `json:"parity_drives"`
}

// Classifier maps a failed device id onto its pool role. The storage
// topology component owns the mapping.
type Classifier interface {
	ClassifyDevice(deviceID string) (Role, error)
}

// Evaluator applies the pool-level degraded-mode rules. It performs no
// I/O itself; callers supply the failed-device list and the topology.
type Evaluator struct {
	classifier Classifier
}

// NewEvaluator returns an Evaluator using the given classifier.
func NewEvaluator(classifier Classifier) *Evaluator {
	if classifier == nil {
		panic("pool classifier must not be nil")
	}
	return &Evaluator{classifier: classifier}
}

// CanOperateDegraded reports whether the pool can continue operating with
// the given set of failed devices, and why.
//
// Rules: a single failed data drive is tolerated by parity. Failed parity
// drives alone cost redundancy but no data. Any combination beyond that
// exceeds single-fault tolerance.
func (e *Evaluator) CanOperateDegraded(failedDevices []string, topology Topology) (bool, string) {
	if len(failedDevices) == 0 {
		return true, "No failed drives; pool is fully operational."
	}

	dataFailures, parityFailures := 0, 0
	for _, id := range failedDevices {
		role, err := e.classifier.ClassifyDevice(id)
		if err != nil {
			// An unclassifiable failed device is counted as data: the
			// conservative reading, since data failures are the ones
			// that bound fault tolerance.
			role = RoleData
		}
		switch role {
		case RoleParity:
			parityFailures++
		case RoleData:
			dataFailures++
		default:
			dataFailures++
		}
	}

	switch {
	case dataFailures <= 1 && parityFailures == 0:
		return true, fmt.Sprintf(
			"Pool can operate in degraded mode: %d data drive failure(s) tolerated by %d parity drive(s).",
			dataFailures, topology.ParityDrives,
		)
	case dataFailures == 0 && parityFailures > 0:
		return true, fmt.Sprintf(
			"Pool can operate without parity protection: %d parity drive failure(s), no data loss but redundancy is reduced.",
			parityFailures,
		)
	default:
		return false, fmt.Sprintf(
			"Pool cannot operate: %d data drive failure(s) and %d parity drive failure(s) exceed single-fault tolerance.",
			dataFailures, parityFailures,
		)
	}
}
