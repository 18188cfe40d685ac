package server

import (
	"context"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"
	"time"
)

const (
	baseBackoff  = time.Second
	maxBackoff   = 2 * time.Minute
	healthyAfter = 5 * time.Minute
)

// RunWithRecovery runs a background task in a loop, restarting it after a
// panic or an unexpected return. Restarts back off exponentially; the backoff
// resets once a run has stayed up past healthyAfter. Stops when ctx is
// cancelled.
func RunWithRecovery(ctx context.Context, logger *slog.Logger, task string, fn func(ctx context.Context)) {
	backoff := baseBackoff
	for {
		if ctx.Err() != nil {
			logger.Info("background task stopped", "task", task)
			return
		}

		started := time.Now()
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("background task panicked",
						"task", task,
						"panic", r,
						"stack", string(debug.Stack()),
					)
				}
			}()
			fn(ctx)
		}()

		if ctx.Err() != nil {
			logger.Info("background task stopped", "task", task)
			return
		}
		if time.Since(started) > healthyAfter {
			backoff = baseBackoff
		}

		logger.Warn("background task restarting", "task", task, "backoff", backoff)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// SetupLogger creates the process-wide JSON logger, tagged with the service
// name so aggregated logs stay attributable.
func SetupLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler).With("service", "linkshield")
}
