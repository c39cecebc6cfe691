package smart

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// DefaultTimeout bounds a single smartctl invocation. A drive that has
// stopped responding can hang the tool for a long time; after the timeout
// the read is reported as a failed read, never as a crash.
const DefaultTimeout = 30 * time.Second

// Compile-time interface check.
var _ DiagnosticSource = (*SmartctlSource)(nil)

// SmartctlSource implements DiagnosticSource by invoking the smartctl
// binary: `smartctl -H` for the health verdict and `smartctl -A` for the
// attribute table.
type SmartctlSource struct {
	binPath string
	timeout time.Duration
}

// NewSmartctlSource returns a SmartctlSource that runs the binary at
// binPath with the given per-invocation timeout. A zero or negative
// timeout falls back to DefaultTimeout.
func NewSmartctlSource(binPath string, timeout time.Duration) *SmartctlSource {
	if binPath == "" {
		binPath = "smartctl"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &SmartctlSource{binPath: binPath, timeout: timeout}
}

// ReadDiagnostics runs smartctl against deviceID and returns the raw
// health and attribute text. The health read is mandatory; a failure
// there is an error. The attribute read is best-effort; some devices
// (NVMe behind certain bridges, failing drives) cannot produce the table,
// and that is reported as a nil attributesText rather than an error.
func (s *SmartctlSource) ReadDiagnostics(ctx context.Context, deviceID string) (string, *string, error) {
	healthText, err := s.run(ctx, "-H", deviceID)
	if err != nil {
		return "", nil, fmt.Errorf("smartctl health read for %s: %w", deviceID, err)
	}

	attrText, err := s.run(ctx, "-A", deviceID)
	if err != nil || attrText == "" {
		return healthText, nil, nil
	}
	return healthText, &attrText, nil
}

// run executes one smartctl invocation under the configured timeout.
// smartctl exits non-zero for many non-error reasons (a failing health
// verdict among them), so output is accepted whenever any was produced.
func (s *SmartctlSource) run(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, s.binPath, args...).Output()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", fmt.Errorf("timed out after %s: %w", s.timeout, ctxErr)
	}
	if err != nil && len(out) == 0 {
		return "", err
	}
	return string(out), nil
}
