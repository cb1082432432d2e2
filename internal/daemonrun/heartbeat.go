package daemonrun

import (
	"context"
	"log/slog"
	"time"

	"autopost/internal/logging"
	"autopost/internal/queue"
	"autopost/internal/scheduler"
)

const (
	heartbeatInterval = 5 * time.Minute
	// Newest screenshots that survive retention regardless of age.
	diagnosticsKeep = 20
)

type statusSource interface {
	Status(ctx context.Context) scheduler.Status
}

// runHeartbeat logs queue counts every interval until ctx is done.
func runHeartbeat(ctx context.Context, logger *slog.Logger, src statusSource, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logHeartbeat(ctx, logger, src)
		}
	}
}

func logHeartbeat(ctx context.Context, logger *slog.Logger, src statusSource) {
	status := src.Status(ctx)
	logger.Info("heartbeat",
		logging.String(logging.FieldEventType, "heartbeat"),
		logging.Int("pending", status.QueueStats[queue.StatusPending]),
		logging.Int("posted", status.QueueStats[queue.StatusPosted]),
		logging.Int("failed", status.QueueStats[queue.StatusFailed]),
		logging.Bool("running", status.Running),
		logging.Bool("busy", status.Busy),
	)
}
