package lock

import "errors"

var (
	// ErrLockNotHeld indicates a release for a ticket that is not currently held.
	// Only returned when strict release is enabled.
	ErrLockNotHeld = errors.New("lock not held")
	// ErrInterrupted indicates the caller stopped waiting for a ticket because its context was done.
	ErrInterrupted = errors.New("lock wait interrupted")
	// ErrNilTicket indicates a nil ticket was passed while nil tickets are disallowed.
	ErrNilTicket = errors.New("nil ticket")
	// ErrUnhashableTicket indicates the dynamic type of an interface ticket cannot be compared.
	ErrUnhashableTicket = errors.New("ticket type is not comparable")
)
