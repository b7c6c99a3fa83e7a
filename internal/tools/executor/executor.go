// Package executor provides the tool execution interface and the vault
// tool implementations.
//
// Every failure a tool can hit surfaces as a textual result: the completion
// service cannot receive structured exceptions, and the model is expected to
// read and react to its own tool failures.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Tool represents a callable action.
type Tool interface {
	// Name returns the action's identifier.
	Name() string

	// Description returns what the action does.
	Description() string

	// Execute runs the action against its JSON argument payload.
	Execute(ctx context.Context, args json.RawMessage) *Result
}

// Result represents the outcome of a tool execution.
type Result struct {
	Success    bool   `json:"success"`
	Text       string `json:"text"`
	DurationMs int64  `json:"duration_ms"`
}

// NewTextResult creates a successful result.
func NewTextResult(text string) *Result {
	return &Result{Success: true, Text: text}
}

// NewErrorText creates a failed result whose text is fed back to the model.
func NewErrorText(format string, args ...any) *Result {
	return &Result{Success: false, Text: fmt.Sprintf(format, args...)}
}

// TimedResult stamps a result with its duration.
func TimedResult(result *Result, start time.Time) *Result {
	result.DurationMs = time.Since(start).Milliseconds()
	return result
}

// decodeArgs parses a JSON argument payload into the action's typed record.
// A parse failure is reported in the exact shape the conversation carries.
func decodeArgs(raw json.RawMessage, into any) *Result {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return NewErrorText("Error parsing arguments: %v", err)
	}
	return nil
}

// Registry manages available tools for execution.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry creates a new tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry.
func (r *Registry) Register(tool Tool) {
	r.tools[tool.Name()] = tool
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Execute runs a tool by name. An unknown name degrades to a textual
// result like every other tool failure.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) *Result {
	start := time.Now()
	tool, ok := r.Get(name)
	if !ok {
		return TimedResult(NewErrorText("Error: unknown tool %q", name), start)
	}
	return tool.Execute(ctx, args)
}
