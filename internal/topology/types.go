// Package topology supplies the storage pool's device inventory: which
// drives exist, whether each holds data or parity, where each is mounted,
// and whether its mount point is currently reachable. The monitoring core
// consumes it through small interfaces so tests can run against fakes.
package topology

import "github.com/dkellner/drivesentry/internal/pool"

// Device is one pool member drive as reported by the appliance state.
type Device struct {
	// ID is the stable device identifier, e.g. "/dev/sda".
	ID string `json:"id"`

	// Name is the appliance's logical name, e.g. "disk1", "parity".
	Name string `json:"name"`

	// Role is the drive's pool role (data or parity).
	Role pool.Role `json:"role"`

	// MountPoint is where the drive's filesystem is mounted, empty for
	// drives that are not separately mounted (parity drives).
	MountPoint string `json:"mount_point,omitempty"`

	// Status is the raw appliance status string, e.g. "DISK_OK".
	Status string `json:"status,omitempty"`
}

// Provider exposes the pool topology to the monitoring core.
type Provider interface {
	// Devices returns every pool member drive.
	Devices() ([]Device, error)

	// Lookup returns the device with the given id, or an error when the
	// id is not part of the pool topology.
	Lookup(deviceID string) (*Device, error)

	// ClassifyDevice maps a device id onto its pool role.
	ClassifyDevice(deviceID string) (pool.Role, error)

	// Counts returns the number of data and parity drives in the pool.
	Counts() (data, parity int, err error)
}

// MountState is the reachability of a device's mount point.
type MountState int

const (
	// MountOK means the mount point exists and is read/write accessible.
	MountOK MountState = iota

	// MountUnreachable means the mount point does not exist or cannot be
	// reached at all.
	MountUnreachable

	// MountNotWritable means the mount point exists but is not
	// read/write accessible.
	MountNotWritable
)

// AccessChecker probes a mount point's reachability.
type AccessChecker interface {
	Check(mountPoint string) MountState
}
