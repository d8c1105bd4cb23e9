package lock

import (
	"context"
	"time"
)

// EventKind names a step in a ticket's lifecycle.
type EventKind string

const (
	// EventWaiting is emitted each time a caller suspends because an equal ticket is held.
	EventWaiting EventKind = "waiting"
	// EventAcquired is emitted when a caller takes a ticket.
	EventAcquired EventKind = "acquired"
	// EventCancelled is emitted when a waiting caller gives up because its context is done.
	EventCancelled EventKind = "cancelled"
	// EventReleased is emitted when a held ticket is given back.
	EventReleased EventKind = "released"
	// EventReleaseUnheld is emitted when Release is called for a ticket that is not held.
	EventReleaseUnheld EventKind = "release_unheld"
)

// Event describes a single lock transition.
type Event struct {
	// Lock is the name of the EquivalenceLock that produced the event.
	Lock string
	Kind EventKind
	// Ticket is the value passed by the caller.
	Ticket any
	// Waited is the time spent suspended before the event; zero when the caller never waited.
	Waited time.Duration
	// Held is how long the ticket was held; only set for EventReleased.
	Held time.Duration
	// Err is set for EventCancelled and for strict EventReleaseUnheld.
	Err  error
	Time time.Time
}

// Observer receives lock events. Observe is called outside the lock's internal
// mutex, from the goroutine performing the operation, and must be safe for
// concurrent use.
type Observer interface {
	Observe(ctx context.Context, e Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, e Event)

// Observe calls f(ctx, e).
func (f ObserverFunc) Observe(ctx context.Context, e Event) {
	f(ctx, e)
}

// Observers fans an event out to every non-nil observer in order.
type Observers []Observer

// Observe implements Observer.
func (o Observers) Observe(ctx context.Context, e Event) {
	for _, obs := range o {
		if obs != nil {
			obs.Observe(ctx, e)
		}
	}
}
