// Package tool implements the typed tool layer that connects agents to the
// external collaborators of the system: the contract search index and the
// claim/cost aggregation service. Each tool wraps a collaborator interface,
// converts transport failures into ToolError values with machine-readable
// codes and computes the derived figures (percentages, variations, ratios)
// the agents reason over.
package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/costpilot/core"
)

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string      `json:"tool"`              // Name of the tool that failed
	Message string      `json:"message"`           // Error message
	Code    string      `json:"code"`              // Error code for categorization
	Details interface{} `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}

// ErrorCode extracts the machine code from err. Deadline and cancellation
// errors map to the timeout code, ToolError values keep their own code and
// anything else is reported as an unavailable collaborator.
func ErrorCode(err error) string {
	var toolErr *ToolError
	if errors.As(err, &toolErr) && toolErr.Code != "" {
		return toolErr.Code
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return core.ErrCodeTimeout
	}
	return core.ErrCodeToolUnavailable
}

// wrapErr normalizes a collaborator failure into a ToolError carrying the
// tool name and the classified code.
func wrapErr(tool string, err error) error {
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr
	}
	return NewToolError(tool, err.Error(), ErrorCode(err))
}
