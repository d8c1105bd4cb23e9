package lock

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
)

// slot is the held-set entry for one equivalence class.
// released is closed exactly once, by the Release that removes the slot.
type slot struct {
	released chan struct{}
	acquired time.Time
	// ctx carries the acquiring caller's values to the release event; its
	// cancellation is detached so a finished request does not leak into it.
	ctx context.Context
}

// EquivalenceLock provides mutual exclusion per equivalence class of tickets.
// The held-set and every wait on it go through a single mutex.
// The zero value is not usable; create instances with New or NewWithConfig.
type EquivalenceLock[T comparable] struct {
	mu    sync.Mutex
	slots map[T]*slot

	name     string
	strict   bool
	validate func(T) error
	observer Observer
}

var _ Locker[string] = (*EquivalenceLock[string])(nil)

// New creates a new EquivalenceLock with default configuration
func New[T comparable]() *EquivalenceLock[T] {
	return NewWithConfig[T](DefaultConfig())
}

// NewWithConfig creates a new EquivalenceLock with the given configuration
func NewWithConfig[T comparable](cfg Config) *EquivalenceLock[T] {
	name := cfg.Name
	if name == "" {
		name = "eqlock-" + uuid.NewString()
	}
	return &EquivalenceLock[T]{
		slots:    make(map[T]*slot),
		name:     name,
		strict:   cfg.StrictRelease,
		validate: ticketValidator[T](cfg.AllowNil),
		observer: cfg.Observer,
	}
}

// ticketValidator returns nil when every value of T is a valid map key that
// cannot be nil, so the common string and integer cases pay nothing.
func ticketValidator[T comparable](allowNil bool) func(T) error {
	typ := reflect.TypeFor[T]()
	switch typ.Kind() {
	case reflect.Interface:
		return func(ticket T) error {
			v := any(ticket)
			if v == nil {
				if allowNil {
					return nil
				}
				return ErrNilTicket
			}
			rv := reflect.ValueOf(v)
			if !rv.Comparable() {
				return fmt.Errorf("%w: %T", ErrUnhashableTicket, v)
			}
			if !allowNil && isNilKind(rv.Kind()) && rv.IsNil() {
				return ErrNilTicket
			}
			return nil
		}
	case reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		if allowNil {
			return nil
		}
		return func(ticket T) error {
			if reflect.ValueOf(&ticket).Elem().IsNil() {
				return ErrNilTicket
			}
			return nil
		}
	case reflect.Struct, reflect.Array:
		if !holdsInterface(typ) {
			return nil
		}
		return func(ticket T) error {
			if !reflect.ValueOf(&ticket).Elem().Comparable() {
				return fmt.Errorf("%w: %T holds an uncomparable value", ErrUnhashableTicket, ticket)
			}
			return nil
		}
	default:
		return nil
	}
}

// holdsInterface reports whether a comparable struct or array type has an
// interface somewhere in its fields or elements, i.e. whether hashing one of
// its values can panic.
func holdsInterface(typ reflect.Type) bool {
	switch typ.Kind() {
	case reflect.Interface:
		return true
	case reflect.Array:
		return holdsInterface(typ.Elem())
	case reflect.Struct:
		for i := 0; i < typ.NumField(); i++ {
			if holdsInterface(typ.Field(i).Type) {
				return true
			}
		}
	}
	return false
}

func isNilKind(k reflect.Kind) bool {
	return k == reflect.Pointer || k == reflect.Chan || k == reflect.UnsafePointer
}

// Name returns the lock name used in observer events
func (l *EquivalenceLock[T]) Name() string {
	return l.name
}

// Lock blocks until no ticket equal to ticket is held, then takes it.
//
// While waiting the internal mutex is not held. Every release of an equal
// ticket wakes the caller, which then rechecks, so several waiters may race
// for the same ticket and exactly one wins each round.
//
// If ctx is done while waiting, Lock returns an error matching both
// ErrInterrupted and the context's cause, and the ticket is not taken.
// A free ticket is taken without consulting ctx.
func (l *EquivalenceLock[T]) Lock(ctx context.Context, ticket T) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := l.check(ticket); err != nil {
		return err
	}

	var start time.Time
	for {
		released, now, ok := l.take(ctx, ticket)
		if ok {
			var waited time.Duration
			if !start.IsZero() {
				waited = now.Sub(start)
			}
			l.emitAcquired(ctx, ticket, waited)
			return nil
		}

		if start.IsZero() {
			start = time.Now()
		}
		l.emit(ctx, Event{Kind: EventWaiting, Ticket: ticket, Waited: time.Since(start)})

		select {
		case <-released:
		case <-ctx.Done():
			err := fmt.Errorf("%w: %w", ErrInterrupted, context.Cause(ctx))
			l.emit(ctx, Event{Kind: EventCancelled, Ticket: ticket, Waited: time.Since(start), Err: err})
			return err
		}
	}
}

// take inserts ticket if it is free. Otherwise it returns the released channel
// of the current holder, read under the mutex, so a Release that happens after
// take returns closes the channel the caller is about to wait on.
func (l *EquivalenceLock[T]) take(ctx context.Context, ticket T) (<-chan struct{}, time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if s, held := l.slots[ticket]; held {
		return s.released, time.Time{}, false
	}
	now := time.Now()
	l.slots[ticket] = &slot{
		released: make(chan struct{}),
		acquired: now,
		ctx:      context.WithoutCancel(ctx),
	}
	return nil, now, true
}

// TryLock takes ticket if no equal ticket is held
// Returns true if the ticket was taken, false if it is already held
func (l *EquivalenceLock[T]) TryLock(ticket T) (bool, error) {
	return l.TryLockContext(context.Background(), ticket)
}

// TryLockContext is TryLock with a context that is handed to observers and
// kept for the matching release event. It never blocks, so ctx is not
// consulted for cancellation.
func (l *EquivalenceLock[T]) TryLockContext(ctx context.Context, ticket T) (bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := l.check(ticket); err != nil {
		return false, err
	}

	if _, _, ok := l.take(ctx, ticket); !ok {
		return false, nil
	}
	l.emitAcquired(ctx, ticket, 0)
	return true, nil
}

// Release gives ticket back and wakes every caller waiting on an equal ticket.
// Observers see the release with the context the ticket was acquired with.
//
// Releasing a ticket that is not held is a no-op that returns nil, unless the
// lock was configured with StrictRelease, in which case it returns
// ErrLockNotHeld. Release does not check which caller took the ticket.
func (l *EquivalenceLock[T]) Release(ticket T) error {
	return l.release(context.Background(), ticket, true)
}

// ReleaseContext is Release with the context handed to observers.
func (l *EquivalenceLock[T]) ReleaseContext(ctx context.Context, ticket T) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return l.release(ctx, ticket, false)
}

// release emits with ctx, or with the acquiring context when holderCtx is set
// and the ticket was held.
func (l *EquivalenceLock[T]) release(ctx context.Context, ticket T, holderCtx bool) error {
	if err := l.check(ticket); err != nil {
		return err
	}

	s, held := l.remove(ticket)
	if held {
		if holderCtx {
			ctx = s.ctx
		}
		l.emit(ctx, Event{Kind: EventReleased, Ticket: ticket, Held: time.Since(s.acquired)})
		return nil
	}

	var err error
	if l.strict {
		err = fmt.Errorf("release %v: %w", ticket, ErrLockNotHeld)
	}
	l.emit(ctx, Event{Kind: EventReleaseUnheld, Ticket: ticket, Err: err})
	return err
}

func (l *EquivalenceLock[T]) remove(ticket T) (*slot, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, held := l.slots[ticket]
	if held {
		delete(l.slots, ticket)
		close(s.released)
	}
	return s, held
}

// emitAcquired reports an acquisition. If the observer panics the ticket is
// given back before the panic continues, since the caller never learns it
// holds the ticket and so can never release it.
func (l *EquivalenceLock[T]) emitAcquired(ctx context.Context, ticket T, waited time.Duration) {
	reported := false
	defer func() {
		if !reported {
			l.remove(ticket)
		}
	}()
	l.emit(ctx, Event{Kind: EventAcquired, Ticket: ticket, Waited: waited})
	reported = true
}

// Do runs fn while holding ticket and releases it on every exit path,
// including a panic in fn.
func (l *EquivalenceLock[T]) Do(ctx context.Context, ticket T, fn func(context.Context) error) error {
	if err := l.Lock(ctx, ticket); err != nil {
		return err
	}
	defer func() { _ = l.Release(ticket) }()
	return fn(ctx)
}

// Held reports whether a ticket equal to ticket is currently held
func (l *EquivalenceLock[T]) Held(ticket T) bool {
	if l.check(ticket) != nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, held := l.slots[ticket]
	return held
}

// Len returns the number of tickets currently held
func (l *EquivalenceLock[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

func (l *EquivalenceLock[T]) check(ticket T) error {
	if l.validate == nil {
		return nil
	}
	return l.validate(ticket)
}

func (l *EquivalenceLock[T]) emit(ctx context.Context, e Event) {
	if l.observer == nil {
		return
	}
	e.Lock = l.name
	e.Time = time.Now()
	l.observer.Observe(ctx, e)
}
