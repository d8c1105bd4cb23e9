// Package tracing records lock events on OpenTelemetry spans.
package tracing

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/soulteary/eqlock/lock"
)

const instrumentationName = "github.com/soulteary/eqlock/tracing"

// Observer adds a span event for every lock event to the span found in the
// event's context. Events without a recording span are dropped.
type Observer struct{}

var _ lock.Observer = Observer{}

// NewObserver returns a span-event observer.
func NewObserver() Observer {
	return Observer{}
}

// Observe implements lock.Observer.
func (Observer) Observe(ctx context.Context, e lock.Event) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("eqlock.name", e.Lock),
		attribute.String("eqlock.ticket", fmt.Sprint(e.Ticket)),
	}
	if e.Waited > 0 {
		attrs = append(attrs, attribute.Int64("eqlock.wait_ms", e.Waited.Milliseconds()))
	}
	if e.Held > 0 {
		attrs = append(attrs, attribute.Int64("eqlock.held_ms", e.Held.Milliseconds()))
	}
	if e.Err != nil {
		attrs = append(attrs, attribute.String("eqlock.error", e.Err.Error()))
	}
	span.AddEvent("eqlock."+string(e.Kind), trace.WithAttributes(attrs...), trace.WithTimestamp(e.Time))
}

// Lock acquires ticket on l inside an "EquivalenceLock.Lock" span started from
// the global tracer provider. The span context is passed to l, so an Observer
// configured on l records its events on that span.
func Lock[T comparable](ctx context.Context, l *lock.EquivalenceLock[T], ticket T) error {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "EquivalenceLock.Lock",
		trace.WithAttributes(
			attribute.String("eqlock.name", l.Name()),
			attribute.String("eqlock.ticket", fmt.Sprint(ticket)),
		))
	defer span.End()

	err := l.Lock(ctx, ticket)
	if err != nil {
		span.RecordError(err)
		status := "lock failed"
		if errors.Is(err, lock.ErrInterrupted) {
			status = "lock wait interrupted"
		}
		span.SetStatus(codes.Error, status)
	}
	return err
}
