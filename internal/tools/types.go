package tools

import (
	"context"
	"fmt"
)

// ToolParameter describes one declared parameter of a tool.
type ToolParameter struct {
	Name          string   `json:"name"`
	Kind          Kind     `json:"-"`
	Required      bool     `json:"required"`
	Description   string   `json:"description"`
	AllowedValues []string `json:"allowed_values,omitempty"`
}

// ToolDefinition is a catalog entry.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ToolParameter `json:"parameters"`
	HandlerKey  string          `json:"handler"`
}

// Parameter returns the declared parameter with the given name.
func (d ToolDefinition) Parameter(name string) (ToolParameter, bool) {
	for _, param := range d.Parameters {
		if param.Name == name {
			return param, true
		}
	}
	return ToolParameter{}, false
}

// Required returns the required parameters in declaration order.
func (d ToolDefinition) Required() []ToolParameter {
	var out []ToolParameter
	for _, param := range d.Parameters {
		if param.Required {
			out = append(out, param)
		}
	}
	return out
}

// ToolCall is an unvalidated candidate invocation.
type ToolCall struct {
	Tool       string `json:"tool"`
	Parameters Params `json:"parameters"`
}

// Key identifies a call by content for deduplication.
func (c ToolCall) Key() string {
	return c.Tool + "\x00" + c.Parameters.Canonical()
}

// ToolResult is the only thing the dispatch boundary hands back.
type ToolResult struct {
	Success bool   `json:"success"`
	Output  string `json:"output"`
	Data    any    `json:"data,omitempty"`
}

// NewResult builds a successful result.
func NewResult(output string, data any) ToolResult {
	return ToolResult{Success: true, Output: output, Data: data}
}

// Failed builds a failed result.
func Failed(format string, args ...any) ToolResult {
	return ToolResult{Success: false, Output: fmt.Sprintf(format, args...)}
}

// Handler executes a validated call.
// A returned error becomes a failed ToolResult carrying the error text.
type Handler func(ctx context.Context, params Params, ec ExecutionContext) (ToolResult, error)

// RegisteredTool pairs a definition with its handler.
type RegisteredTool struct {
	Definition ToolDefinition
	Handler    Handler
}

// Lookup resolves tool names. Catalog and Registry both satisfy it.
type Lookup interface {
	Lookup(name string) (ToolDefinition, bool)
	Names() []string
}
