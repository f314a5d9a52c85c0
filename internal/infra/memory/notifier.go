package memory

import (
	"context"
	"log/slog"
)

// LogNotifier writes notifications to the log when no delivery channel is configured.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, userID, message string) error {
	n.log.Info("notification", "user", userID, "message", message)
	return nil
}
