package tools

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dkellner/drivesentry/internal/safety"
	"github.com/mark3labs/mcp-go/mcp"
)

// JSONResult renders v as indented JSON inside a text result. Handlers
// use it for every structured payload (assessments, readings, events) so
// clients see one consistent shape.
func JSONResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("error marshaling result: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}

// ErrorResult wraps msg in the "error: ..." text shape handlers return
// for domain failures. The (result, nil) convention keeps transport
// errors distinct from tool-level ones.
func ErrorResult(msg string) *mcp.CallToolResult {
	return mcp.NewToolResultText(fmt.Sprintf("error: %s", msg))
}

// LogAudit records one tool invocation. A nil audit logger means
// auditing is off; the call is then a no-op.
func LogAudit(audit *safety.AuditLogger, toolName string, params map[string]any, result string, start time.Time) {
	if audit == nil {
		return
	}
	_ = audit.Log(safety.AuditEntry{
		Timestamp: start,
		Tool:      toolName,
		Params:    params,
		Result:    result,
		Duration:  time.Since(start),
	})
}

// ConfirmPrompt issues a confirmation token for a gated tool call and
// renders the prompt the caller must echo the token back from.
func ConfirmPrompt(confirm *safety.ConfirmationTracker, toolName, resource, description string) *mcp.CallToolResult {
	token := confirm.RequestConfirmation(toolName, resource, description)
	return mcp.NewToolResultText(fmt.Sprintf(
		"Confirmation required for %s on %q.\n\n%s\n\nTo proceed, call %s again with confirmation_token=%q.",
		toolName, resource, description, toolName, token,
	))
}
