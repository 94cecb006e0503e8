package events

import (
	"context"
	"log/slog"
)

// RegisterAuditLog writes every login event to the audit logger.
func RegisterAuditLog(bus *EventBus, logger *slog.Logger) {
	audit := logger.With("component", "audit")

	handler := func(ctx context.Context, event Event) error {
		e, ok := event.(*LoginEvent)
		if !ok {
			return nil
		}
		level := slog.LevelInfo
		if e.Type == EventTypeLoginFailed {
			level = slog.LevelWarn
		}
		audit.Log(ctx, level, "login attempt",
			"event_id", e.ID,
			"event_type", e.Type,
			"user_id", e.UserID,
			"username", e.Username,
			"remote_ip", e.RemoteIP,
			"occurred_at", e.Timestamp)
		return nil
	}

	bus.Subscribe(EventTypeLoginSucceeded, handler)
	bus.Subscribe(EventTypeLoginFailed, handler)
}
