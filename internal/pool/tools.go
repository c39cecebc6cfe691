package pool

import (
	"context"
	"time"

	"github.com/dkellner/drivesentry/internal/safety"
	"github.com/dkellner/drivesentry/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// failedLister supplies the current failed-device set; the failure
// detector implements it.
type failedLister interface {
	GetFailedDevices() []string
}

// countsProvider supplies the pool's drive counts; the topology provider
// implements it.
type countsProvider interface {
	Counts() (data, parity int, err error)
}

// degradedStatus is the JSON shape returned by pool_degraded_status.
type degradedStatus struct {
	Operable      bool     `json:"operable"`
	Reason        string   `json:"reason"`
	FailedDevices []string `json:"failed_devices"`
	Topology      Topology `json:"topology"`
}

// PoolTools returns the tool registrations for pool-level degraded-mode
// queries. All tools are read-only.
func PoolTools(eval *Evaluator, failed failedLister, counts countsProvider, audit *safety.AuditLogger) []tools.Registration {
	return []tools.Registration{
		toolDegradedStatus(eval, failed, counts, audit),
	}
}

func toolDegradedStatus(eval *Evaluator, failed failedLister, counts countsProvider, audit *safety.AuditLogger) tools.Registration {
	const toolName = "pool_degraded_status"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Report whether the storage pool can keep serving reads and writes given the currently failed devices, and why."),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		params := map[string]any{}

		data, parity, err := counts.Counts()
		if err != nil {
			tools.LogAudit(audit, toolName, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		failedDevices := failed.GetFailedDevices()
		topology := Topology{DataDrives: data, ParityDrives: parity}
		operable, reason := eval.CanOperateDegraded(failedDevices, topology)

		tools.LogAudit(audit, toolName, params, "ok", start)
		return tools.JSONResult(degradedStatus{
			Operable:      operable,
			Reason:        reason,
			FailedDevices: failedDevices,
			Topology:      topology,
		}), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
