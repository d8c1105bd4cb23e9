package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/soulteary/eqlock/lock"
)

func newJSONLogger(buf *bytes.Buffer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: level}))
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var records []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		records = append(records, rec)
	}
	return records
}

func TestObserver(t *testing.T) {
	t.Run("logs lock lifecycle at debug", func(t *testing.T) {
		var buf bytes.Buffer
		obs := NewObserver(newJSONLogger(&buf, slog.LevelDebug))
		l := lock.NewWithConfig[string](lock.DefaultConfig().WithName("files").WithObserver(obs))

		_ = l.Lock(context.Background(), "report.csv")
		_ = l.Release("report.csv")

		records := decodeLines(t, &buf)
		if len(records) != 2 {
			t.Fatalf("log records = %d, want 2", len(records))
		}
		if records[0]["event"] != "acquired" || records[1]["event"] != "released" {
			t.Errorf("events = %v, %v, want acquired, released", records[0]["event"], records[1]["event"])
		}
		if records[0]["lock"] != "files" {
			t.Errorf("lock = %v, want files", records[0]["lock"])
		}
		if records[0]["ticket"] != "report.csv" {
			t.Errorf("ticket = %v, want report.csv", records[0]["ticket"])
		}
		if records[0]["level"] != "DEBUG" {
			t.Errorf("level = %v, want DEBUG", records[0]["level"])
		}
	})

	t.Run("silent above debug", func(t *testing.T) {
		var buf bytes.Buffer
		obs := NewObserver(newJSONLogger(&buf, slog.LevelInfo))
		obs.Observe(context.Background(), lock.Event{Kind: lock.EventAcquired, Ticket: "x"})

		if buf.Len() != 0 {
			t.Errorf("unexpected output: %s", buf.String())
		}
	})

	t.Run("strict misuse is a warning", func(t *testing.T) {
		var buf bytes.Buffer
		obs := NewObserver(newJSONLogger(&buf, slog.LevelInfo))
		obs.Observe(context.Background(), lock.Event{
			Kind:   lock.EventReleaseUnheld,
			Ticket: "x",
			Err:    fmt.Errorf("release x: %w", lock.ErrLockNotHeld),
		})

		records := decodeLines(t, &buf)
		if len(records) != 1 {
			t.Fatalf("log records = %d, want 1", len(records))
		}
		if records[0]["level"] != "WARN" {
			t.Errorf("level = %v, want WARN", records[0]["level"])
		}
	})

	t.Run("custom level", func(t *testing.T) {
		var buf bytes.Buffer
		obs := NewObserverWithLevel(newJSONLogger(&buf, slog.LevelInfo), slog.LevelInfo)
		obs.Observe(context.Background(), lock.Event{Kind: lock.EventWaiting, Ticket: 3})

		records := decodeLines(t, &buf)
		if len(records) != 1 || records[0]["level"] != "INFO" {
			t.Errorf("records = %v, want one INFO record", records)
		}
	})

	t.Run("nil logger uses default", func(t *testing.T) {
		obs := NewObserver(nil)
		if obs.logger != slog.Default() {
			t.Error("NewObserver(nil) logger is not slog.Default()")
		}
	})
}
