package sse

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// scanChannel is the NOTIFY channel fired by the scans insert trigger.
const scanChannel = "scan_stream"

// PGListener bridges PostgreSQL scan notifications to the SSE hub.
type PGListener struct {
	pool   *pgxpool.Pool
	hub    *Hub
	logger *slog.Logger
}

// NewPGListener creates a listener for the scan stream.
func NewPGListener(pool *pgxpool.Pool, hub *Hub, logger *slog.Logger) *PGListener {
	return &PGListener{pool: pool, hub: hub, logger: logger}
}

// Listen subscribes to the scan NOTIFY channel and fans out to the hub.
// It blocks until ctx is cancelled or an error occurs; run it inside
// RunWithRecovery so it reconnects on failure.
func (pl *PGListener) Listen(ctx context.Context) {
	conn, err := pl.pool.Acquire(ctx)
	if err != nil {
		pl.logger.Error("pg-listen: acquire connection failed", "err", err)
		return
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+scanChannel); err != nil {
		pl.logger.Error("pg-listen: LISTEN failed", "channel", scanChannel, "err", err)
		return
	}
	pl.logger.Info("pg-listen: subscribed to scan stream")

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return // graceful shutdown
			}
			pl.logger.Error("pg-listen: notification error", "err", err)
			return // RunWithRecovery will reconnect
		}
		pl.hub.Publish(Event{Type: "scan", Data: []byte(notification.Payload)})
	}
}
