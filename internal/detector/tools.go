package detector

import (
	"context"
	"time"

	"github.com/dkellner/drivesentry/internal/safety"
	"github.com/dkellner/drivesentry/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// HealthTools returns the tool registrations for the failure detector.
// All tools are read-only except health_assess_device, which triggers a
// fresh hardware poll and may block up to the diagnostic timeout.
func HealthTools(det *Detector, audit *safety.AuditLogger) []tools.Registration {
	return []tools.Registration{
		toolAssessDevice(det, audit),
		toolGetAssessment(det, audit),
		toolFailedDevices(det, audit),
		toolDegradedDevices(det, audit),
		toolFailureHistory(det, audit),
		toolRecoveryRecommendations(det, audit),
	}
}

func toolAssessDevice(det *Detector, audit *safety.AuditLogger) tools.Registration {
	const toolName = "health_assess_device"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Run a fresh health assessment for one device: diagnostic reading, trend analysis, and mount reachability. Blocks until the diagnostic tool responds or times out."),
		mcp.WithString("device_id",
			mcp.Required(),
			mcp.Description("Device identifier, e.g. /dev/sda"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		deviceID := req.GetString("device_id", "")
		params := map[string]any{"device_id": deviceID}

		assessment, err := det.AssessDevice(ctx, deviceID)
		if err != nil {
			tools.LogAudit(audit, toolName, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, toolName, params, "ok", start)
		return tools.JSONResult(assessment), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolGetAssessment(det *Detector, audit *safety.AuditLogger) tools.Registration {
	const toolName = "health_get_assessment"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Get the most recent cached health assessment for a device without touching hardware. The value may be one polling cycle stale."),
		mcp.WithString("device_id",
			mcp.Required(),
			mcp.Description("Device identifier, e.g. /dev/sda"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		deviceID := req.GetString("device_id", "")
		params := map[string]any{"device_id": deviceID}

		assessment, ok := det.GetCachedAssessment(deviceID)
		if !ok {
			tools.LogAudit(audit, toolName, params, "ok: no assessment", start)
			return mcp.NewToolResultText("No assessment available yet for " + deviceID + "."), nil
		}

		tools.LogAudit(audit, toolName, params, "ok", start)
		return tools.JSONResult(assessment), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolFailedDevices(det *Detector, audit *safety.AuditLogger) tools.Registration {
	const toolName = "health_failed_devices"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("List devices whose latest assessment is critical or carries a critical failure event."),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		params := map[string]any{}

		ids := det.GetFailedDevices()
		if len(ids) == 0 {
			tools.LogAudit(audit, toolName, params, "ok: empty", start)
			return mcp.NewToolResultText("No failed devices."), nil
		}

		tools.LogAudit(audit, toolName, params, "ok", start)
		return tools.JSONResult(ids), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolDegradedDevices(det *Detector, audit *safety.AuditLogger) tools.Registration {
	const toolName = "health_degraded_devices"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("List devices at medium or high risk that can still operate in degraded mode."),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		params := map[string]any{}

		ids := det.GetDegradedDevices()
		if len(ids) == 0 {
			tools.LogAudit(audit, toolName, params, "ok: empty", start)
			return mcp.NewToolResultText("No degraded devices."), nil
		}

		tools.LogAudit(audit, toolName, params, "ok", start)
		return tools.JSONResult(ids), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolFailureHistory(det *Detector, audit *safety.AuditLogger) tools.Registration {
	const toolName = "health_failure_history"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("List a device's logged failure events over a trailing window of days."),
		mcp.WithString("device_id",
			mcp.Required(),
			mcp.Description("Device identifier, e.g. /dev/sda"),
		),
		mcp.WithNumber("days",
			mcp.Description("Trailing window in days (default: 30)"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		deviceID := req.GetString("device_id", "")
		days := req.GetInt("days", 30)
		params := map[string]any{"device_id": deviceID, "days": days}

		events := det.GetFailureHistory(deviceID, days)
		if len(events) == 0 {
			tools.LogAudit(audit, toolName, params, "ok: empty", start)
			return mcp.NewToolResultText("No failure events recorded for " + deviceID + " in that window."), nil
		}

		tools.LogAudit(audit, toolName, params, "ok", start)
		return tools.JSONResult(events), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolRecoveryRecommendations(det *Detector, audit *safety.AuditLogger) tools.Registration {
	const toolName = "health_recovery_recommendations"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Get the recommended recovery actions for a device based on its latest assessment."),
		mcp.WithString("device_id",
			mcp.Required(),
			mcp.Description("Device identifier, e.g. /dev/sda"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		deviceID := req.GetString("device_id", "")
		params := map[string]any{"device_id": deviceID}

		recs := det.GetRecoveryRecommendations(deviceID)
		if len(recs) == 0 {
			tools.LogAudit(audit, toolName, params, "ok: empty", start)
			return mcp.NewToolResultText("No recommendations for " + deviceID + "."), nil
		}

		tools.LogAudit(audit, toolName, params, "ok", start)
		return tools.JSONResult(recs), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
