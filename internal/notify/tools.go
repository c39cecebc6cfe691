package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dkellner/drivesentry/internal/safety"
	"github.com/dkellner/drivesentry/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// DestructiveTools lists notification tool names that require
// confirmation before execution. Reconfiguring alerting can silence
// every future alarm, so it is gated.
var DestructiveTools = []string{"notifications_configure"}

// NotificationTools returns the tool registrations for the notification
// dispatcher.
func NotificationTools(d *Dispatcher, confirm *safety.ConfirmationTracker, audit *safety.AuditLogger) []tools.Registration {
	return []tools.Registration{
		toolSendTest(d, audit),
		toolRecent(d, audit),
		toolConfigure(d, confirm, audit),
	}
}

func toolSendTest(d *Dispatcher, audit *safety.AuditLogger) tools.Registration {
	const toolName = "notifications_send_test"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Send a test notification through a single channel (log, email, or webhook) to verify its configuration."),
		mcp.WithString("channel",
			mcp.Required(),
			mcp.Description("Channel to test: log, email, or webhook"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		raw := req.GetString("channel", "")
		params := map[string]any{"channel": raw}

		ch, err := ParseChannel(raw)
		if err != nil {
			tools.LogAudit(audit, toolName, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		if !d.Test(ctx, ch) {
			tools.LogAudit(audit, toolName, params, "ok: delivery failed", start)
			return mcp.NewToolResultText(fmt.Sprintf("Test delivery via %s FAILED; check the channel configuration.", ch)), nil
		}

		tools.LogAudit(audit, toolName, params, "ok", start)
		return mcp.NewToolResultText(fmt.Sprintf("Test delivery via %s succeeded.", ch)), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolRecent(d *Dispatcher, audit *safety.AuditLogger) tools.Registration {
	const toolName = "notifications_recent"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("List recently sent notifications over a trailing window of days, oldest first."),
		mcp.WithNumber("days",
			mcp.Description("Trailing window in days (default: 7)"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		days := req.GetInt("days", 7)
		params := map[string]any{"days": days}

		recent := d.Recent(days)
		if len(recent) == 0 {
			tools.LogAudit(audit, toolName, params, "ok: empty", start)
			return mcp.NewToolResultText("No notifications sent in that window."), nil
		}

		tools.LogAudit(audit, toolName, params, "ok", start)
		return tools.JSONResult(recent), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolConfigure(d *Dispatcher, confirm *safety.ConfirmationTracker, audit *safety.AuditLogger) tools.Registration {
	const toolName = "notifications_configure"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Update the notification configuration: enabled flag, channels, minimum level, and rate limit. Requires confirmation. Invalid settings are rejected and the prior configuration stays in effect."),
		mcp.WithBoolean("enabled",
			mcp.Description("Whether notifications are enabled"),
		),
		mcp.WithString("channels",
			mcp.Description("Comma-separated channel list, e.g. \"log,webhook\""),
		),
		mcp.WithString("min_level",
			mcp.Description("Minimum severity to deliver: info, warning, error, or critical"),
		),
		mcp.WithNumber("rate_limit_minutes",
			mcp.Description("Suppression window for repeat notifications of the same condition"),
		),
		mcp.WithString("webhook_url",
			mcp.Description("Webhook endpoint URL (empty to leave unchanged)"),
		),
		mcp.WithString("confirmation_token",
			mcp.Description("Token from a prior confirmation prompt"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		current := d.Config()
		enabled := req.GetBool("enabled", current.Enabled)
		channelsRaw := req.GetString("channels", "")
		minLevelRaw := req.GetString("min_level", "")
		rateLimit := req.GetInt("rate_limit_minutes", current.RateLimitMinutes)
		webhookURL := req.GetString("webhook_url", "")
		token := req.GetString("confirmation_token", "")

		params := map[string]any{
			"enabled":            enabled,
			"channels":           channelsRaw,
			"min_level":          minLevelRaw,
			"rate_limit_minutes": rateLimit,
		}

		if confirm.NeedsConfirmation(toolName) && token == "" {
			tools.LogAudit(audit, toolName, params, "confirmation requested", start)
			return tools.ConfirmPrompt(confirm, toolName, "notifications",
				"Apply the new alerting configuration. A misconfiguration can silence future alerts."), nil
		}
		if token != "" && !confirm.Confirm(token) {
			tools.LogAudit(audit, toolName, params, "error: invalid confirmation token", start)
			return tools.ErrorResult("invalid or expired confirmation token"), nil
		}

		next := current
		next.Enabled = enabled
		next.RateLimitMinutes = rateLimit
		if webhookURL != "" {
			next.Webhook.URL = webhookURL
		}
		if minLevelRaw != "" {
			level, err := ParseLevel(minLevelRaw)
			if err != nil {
				tools.LogAudit(audit, toolName, params, "error: "+err.Error(), start)
				return tools.ErrorResult(err.Error()), nil
			}
			next.MinLevel = level
		}
		if channelsRaw != "" {
			var channels []Channel
			for _, part := range strings.Split(channelsRaw, ",") {
				ch, err := ParseChannel(strings.TrimSpace(part))
				if err != nil {
					tools.LogAudit(audit, toolName, params, "error: "+err.Error(), start)
					return tools.ErrorResult(err.Error()), nil
				}
				channels = append(channels, ch)
			}
			next.Channels = channels
		}

		if err := d.UpdateConfig(next); err != nil {
			tools.LogAudit(audit, toolName, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, toolName, params, "ok", start)
		return tools.JSONResult(d.Config()), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
