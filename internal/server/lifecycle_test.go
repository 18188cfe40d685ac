package server

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithRecoveryRestartsAfterPanic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	done := make(chan struct{})
	go func() {
		defer close(done)
		RunWithRecovery(ctx, slog.Default(), "flaky", func(ctx context.Context) {
			if runs.Add(1) == 1 {
				panic("boom")
			}
			cancel()
		})
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("task was not restarted after panic")
	}
	require.EqualValues(t, 2, runs.Load())
}

func TestRunWithRecoveryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var runs atomic.Int32
	RunWithRecovery(ctx, slog.Default(), "noop", func(ctx context.Context) {
		runs.Add(1)
	})
	assert.EqualValues(t, 0, runs.Load(), "cancelled context must not start the task")
}

func TestSetupLoggerLevels(t *testing.T) {
	ctx := context.Background()

	assert.True(t, SetupLogger("debug").Enabled(ctx, slog.LevelDebug))
	assert.False(t, SetupLogger("").Enabled(ctx, slog.LevelDebug))
	assert.True(t, SetupLogger("").Enabled(ctx, slog.LevelInfo))
	assert.False(t, SetupLogger("ERROR").Enabled(ctx, slog.LevelWarn))
}
