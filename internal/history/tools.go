package history

import (
	"context"
	"time"

	"github.com/dkellner/drivesentry/internal/safety"
	"github.com/dkellner/drivesentry/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// HistoryTools returns the tool registrations for the diagnostic history
// store. All tools are read-only.
func HistoryTools(store *Store, audit *safety.AuditLogger) []tools.Registration {
	return []tools.Registration{
		toolHistoryQuery(store, audit),
	}
}

func toolHistoryQuery(store *Store, audit *safety.AuditLogger) tools.Registration {
	const toolName = "history_query"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("List a device's retained diagnostic readings over a trailing window of days, oldest first."),
		mcp.WithString("device_id",
			mcp.Required(),
			mcp.Description("Device identifier, e.g. /dev/sda"),
		),
		mcp.WithNumber("days",
			mcp.Description("Trailing window in days (default: 7)"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		deviceID := req.GetString("device_id", "")
		days := req.GetInt("days", 7)
		params := map[string]any{"device_id": deviceID, "days": days}

		readings := store.Query(deviceID, days)
		if len(readings) == 0 {
			tools.LogAudit(audit, toolName, params, "ok: empty", start)
			return mcp.NewToolResultText("No readings recorded for " + deviceID + " in that window."), nil
		}

		tools.LogAudit(audit, toolName, params, "ok", start)
		return tools.JSONResult(readings), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
