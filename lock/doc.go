// Package lock provides a lock keyed by value equality rather than by a fixed
// mutex or by pointer identity. Locking "frank" blocks every other caller that
// locks a value equal to "frank", and nothing else:
//
//	l := lock.New[string]()
//	if err := l.Lock(ctx, "frank"); err != nil {
//		return err
//	}
//	defer l.Release("frank")
//
// Locks are not reentrant and waiters are not served in any particular order.
// Everything is in-process; tickets are never shared between processes.
package lock
