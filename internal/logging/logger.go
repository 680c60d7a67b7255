package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures the global slog logger.
// In production (ENVIRONMENT=production) it uses JSON output for log aggregation.
// Otherwise it uses the human-readable text handler.
func Init() {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	slog.SetDefault(slog.New(handler))
}

// WithWorkspace returns a logger with workspace context fields attached.
// Use this for all logging within a workspace-scoped operation.
func WithWorkspace(workspaceID, userID string) *slog.Logger {
	return slog.With(
		"workspace_id", workspaceID,
		"user_id", userID,
	)
}

// WithTask returns a logger scoped to a specific task within a project.
func WithTask(logger *slog.Logger, projectID, taskID string) *slog.Logger {
	return logger.With(
		"project_id", projectID,
		"task_id", taskID,
	)
}
