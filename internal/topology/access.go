package topology

import (
	"os"

	"golang.org/x/sys/unix"
)

// Compile-time interface check.
var _ AccessChecker = (*UnixAccessChecker)(nil)

// UnixAccessChecker probes mount points on the local filesystem using
// stat and the access(2) syscall.
type UnixAccessChecker struct{}

// NewUnixAccessChecker returns a new UnixAccessChecker.
func NewUnixAccessChecker() *UnixAccessChecker {
	return &UnixAccessChecker{}
}

// Check reports whether mountPoint exists and is read/write accessible.
// An empty mount point (parity drives have none) is treated as reachable;
// there is nothing to probe.
func (c *UnixAccessChecker) Check(mountPoint string) MountState {
	if mountPoint == "" {
		return MountOK
	}

	info, err := os.Stat(mountPoint)
	if err != nil || !info.IsDir() {
		return MountUnreachable
	}

	if err := unix.Access(mountPoint, unix.R_OK|unix.W_OK); err != nil {
		return MountNotWritable
	}
	return MountOK
}
