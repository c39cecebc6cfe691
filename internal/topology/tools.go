package topology

import (
	"context"
	"time"

	"github.com/dkellner/drivesentry/internal/safety"
	"github.com/dkellner/drivesentry/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// TopologyTools returns the tool registrations for the device inventory.
func TopologyTools(provider Provider, audit *safety.AuditLogger) []tools.Registration {
	return []tools.Registration{
		toolPoolDevices(provider, audit),
	}
}

func toolPoolDevices(provider Provider, audit *safety.AuditLogger) tools.Registration {
	const toolName = "pool_devices"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("List every pool member drive with its role (data or parity), mount point, and appliance status."),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		params := map[string]any{}

		devices, err := provider.Devices()
		if err != nil {
			tools.LogAudit(audit, toolName, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}
		if len(devices) == 0 {
			tools.LogAudit(audit, toolName, params, "ok: empty", start)
			return mcp.NewToolResultText("No devices found in the pool topology."), nil
		}

		tools.LogAudit(audit, toolName, params, "ok", start)
		return tools.JSONResult(devices), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
