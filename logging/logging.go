// Package logging writes lock events to a log/slog logger.
package logging

import (
	"context"
	"log/slog"

	"github.com/soulteary/eqlock/lock"
)

// Observer logs every lock event at a fixed level.
type Observer struct {
	logger *slog.Logger
	level  slog.Level
}

var _ lock.Observer = (*Observer)(nil)

// NewObserver creates an observer that logs at debug level.
// A nil logger uses slog.Default().
func NewObserver(logger *slog.Logger) *Observer {
	return NewObserverWithLevel(logger, slog.LevelDebug)
}

// NewObserverWithLevel creates an observer that logs at the given level.
func NewObserverWithLevel(logger *slog.Logger, level slog.Level) *Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Observer{logger: logger, level: level}
}

// Observe implements lock.Observer.
func (o *Observer) Observe(ctx context.Context, e lock.Event) {
	level := o.level
	if e.Err != nil && level < slog.LevelWarn && e.Kind == lock.EventReleaseUnheld {
		// strict-mode misuse is a caller bug, not a trace message
		level = slog.LevelWarn
	}
	if !o.logger.Enabled(ctx, level) {
		return
	}

	attrs := []slog.Attr{
		slog.String("lock", e.Lock),
		slog.String("event", string(e.Kind)),
		slog.Any("ticket", e.Ticket),
	}
	if e.Waited > 0 {
		attrs = append(attrs, slog.Duration("waited", e.Waited))
	}
	if e.Held > 0 {
		attrs = append(attrs, slog.Duration("held", e.Held))
	}
	if e.Err != nil {
		attrs = append(attrs, slog.Any("error", e.Err))
	}
	o.logger.LogAttrs(ctx, level, "eqlock: "+string(e.Kind), attrs...)
}
