// Package cleanup removes finished sessions whose edit window has elapsed.
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ashureev/briefbot/internal/store"
)

// ReapCallback is called for every session the reaper deletes.
type ReapCallback func(userID string)

// Start runs a background goroutine that sweeps expired review sessions every
// interval until ctx is cancelled. The returned channel is closed once the
// goroutine has exited.
func Start(ctx context.Context, sessions store.SessionStore, window, interval time.Duration, onReap ReapCallback) <-chan struct{} {
	done := make(chan struct{})
	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		slog.Info("Reaper started", "interval", interval, "edit_window", window)

		for {
			select {
			case <-ticker.C:
				if _, err := Sweep(ctx, sessions, window, time.Now(), onReap); err != nil {
					slog.Error("Reaper sweep failed", "error", err)
				}
			case <-ctx.Done():
				slog.Info("Reaper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
	return done
}

// Sweep deletes review sessions completed more than window before now and
// returns how many were removed. A failed delete is logged and skipped.
func Sweep(ctx context.Context, sessions store.SessionStore, window time.Duration, now time.Time, onReap ReapCallback) (int, error) {
	expired, err := sessions.ListReviewBefore(ctx, now.Add(-window))
	if err != nil {
		return 0, fmt.Errorf("list expired review sessions: %w", err)
	}
	if len(expired) == 0 {
		return 0, nil
	}

	slog.Info("Reaper found expired sessions", "count", len(expired))

	reaped := 0
	for _, userID := range expired {
		if err := sessions.Delete(ctx, userID); err != nil {
			if ctx.Err() != nil {
				slog.Debug("Reaper: context cancelled, cleanup incomplete", "user_id", userID, "error", err)
				break
			}
			slog.Warn("Reaper failed to delete session", "user_id", userID, "error", err)
			continue
		}
		reaped++
		if onReap != nil {
			onReap(userID)
		}
	}

	slog.Info("Reaper cleanup completed", "reaped", reaped)
	return reaped, nil
}
