package lock

import "context"

// Locker provides mutual exclusion per equivalence class of tickets.
// Two tickets name the same lock if and only if they compare equal.
type Locker[T comparable] interface {
	// Lock blocks until ticket is free and then takes it.
	// Returns an error matching ErrInterrupted if ctx is done while waiting
	Lock(ctx context.Context, ticket T) error

	// TryLock takes ticket without waiting
	// Returns true if the ticket was taken, false if an equal ticket is already held
	TryLock(ticket T) (bool, error)

	// Release gives ticket back and wakes every caller waiting on an equal ticket
	Release(ticket T) error
}
