package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/elee1766/finchat/src/aisdk"
)

// ToolExecutor is a function type for tool execution
type ToolExecutor = aisdk.ToolExecutor

// DefaultToolbox holds tools behind the Tool interface.
type DefaultToolbox = Toolbox[Tool]

// Toolbox handles tool/function calling functionality.
type Toolbox[T Tool] struct {
	tools      map[string]T
	middleware []ToolMiddleware
}

// ToolMiddleware is a function that wraps a ToolExecutor to add functionality.
type ToolMiddleware func(next ToolExecutor) ToolExecutor

// NewToolbox creates a new tool manager.
func NewToolbox[T Tool]() *Toolbox[T] {
	return &Toolbox[T]{
		tools: make(map[string]T),
	}
}

// RegisterTool registers a tool.
func (tm *Toolbox[T]) RegisterTool(tool T) error {
	if tool.GetName() == "" {
		return ErrEmptyToolName
	}

	if _, exists := tm.tools[tool.GetName()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, tool.GetName())
	}

	tm.tools[tool.GetName()] = tool
	return nil
}

// RegisterMiddleware registers middleware that will be applied to all tool executions.
// Middleware is applied in the order it's registered (first registered = outermost layer).
func (tm *Toolbox[T]) RegisterMiddleware(middleware ToolMiddleware) {
	tm.middleware = append(tm.middleware, middleware)
}

// Tools returns the registered tools sorted by name.
func (tm *Toolbox[T]) Tools() []T {
	names := make([]string, 0, len(tm.tools))
	for name := range tm.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]T, 0, len(names))
	for _, name := range names {
		out = append(out, tm.tools[name])
	}
	return out
}

// ChatTools returns the tool definitions to send to a model.
func (tm *Toolbox[T]) ChatTools() []*aisdk.ChatTool {
	return ToChatTools(tm.Tools())
}

// ExecuteTool executes a tool call with middleware applied.
func (tm *Toolbox[T]) ExecuteTool(ctx context.Context, call *aisdk.ToolCall) (*aisdk.ToolResponse, error) {
	tool, exists := tm.tools[call.Function.Name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, call.Function.Name)
	}

	toolExecutor := ToolExecutor(func(ctx context.Context, call *aisdk.ToolCall) (*aisdk.ToolResponse, error) {
		return tool.Execute(ctx, call)
	})

	finalExecutor := toolExecutor
	for i := len(tm.middleware) - 1; i >= 0; i-- {
		finalExecutor = tm.middleware[i](finalExecutor)
	}

	return finalExecutor(ctx, call)
}

// GetTool returns a specific tool by name.
func (tm *Toolbox[T]) GetTool(name string) (T, bool) {
	tool, exists := tm.tools[name]
	return tool, exists
}

// HasTool checks if a tool is available.
func (tm *Toolbox[T]) HasTool(name string) bool {
	_, exists := tm.tools[name]
	return exists
}

// LoggingMiddleware logs tool execution details.
func LoggingMiddleware(logger *slog.Logger) ToolMiddleware {
	return func(next ToolExecutor) ToolExecutor {
		return func(ctx context.Context, call *aisdk.ToolCall) (*aisdk.ToolResponse, error) {
			start := time.Now()
			logger.Debug("executing tool", "tool", call.Function.Name, "call_id", call.ID, "params", string(call.Function.Arguments))
			result, err := next(ctx, call)
			duration := time.Since(start)
			switch {
			case err != nil:
				logger.Warn("tool execution failed", "tool", call.Function.Name, "duration", duration, "error", err)
			case result != nil && result.IsError:
				logger.Info("tool returned error", "tool", call.Function.Name, "duration", duration, "content", string(result.Content))
			default:
				logger.Info("tool executed", "tool", call.Function.Name, "duration", duration)
			}
			return result, err
		}
	}
}
