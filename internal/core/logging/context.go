package logging

import "context"

type contextKey string

const (
	commandKey contextKey = "command"
	todoIDKey  contextKey = "todo_id"
)

// WithCommand adds a command name to the context.
func WithCommand(ctx context.Context, command string) context.Context {
	return context.WithValue(ctx, commandKey, command)
}

// WithTodoID adds a todo ID to the context.
func WithTodoID(ctx context.Context, todoID string) context.Context {
	return context.WithValue(ctx, todoIDKey, todoID)
}

// GetCommand retrieves the command name from the context.
// Returns empty string if not present.
func GetCommand(ctx context.Context) string {
	if id, ok := ctx.Value(commandKey).(string); ok {
		return id
	}
	return ""
}

// GetTodoID retrieves the todo ID from the context.
// Returns empty string if not present.
func GetTodoID(ctx context.Context) string {
	if id, ok := ctx.Value(todoIDKey).(string); ok {
		return id
	}
	return ""
}
