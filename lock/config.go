package lock

// Config represents EquivalenceLock configuration
type Config struct {
	// Name identifies the lock in observer events (default: "eqlock-<uuid>")
	Name string

	// StrictRelease makes Release report ErrLockNotHeld for tickets that are not held (default: false)
	StrictRelease bool

	// AllowNil accepts nil tickets for pointer, channel and interface ticket types (default: false)
	AllowNil bool

	// Observer receives lock events; nil disables observation
	Observer Observer
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		Name:          "",
		StrictRelease: false,
		AllowNil:      false,
		Observer:      nil,
	}
}

// WithName sets the lock name
func (c Config) WithName(name string) Config {
	c.Name = name
	return c
}

// WithStrictRelease enables or disables strict release checking
func (c Config) WithStrictRelease(strict bool) Config {
	c.StrictRelease = strict
	return c
}

// WithAllowNil enables or disables nil tickets
func (c Config) WithAllowNil(allow bool) Config {
	c.AllowNil = allow
	return c
}

// WithObserver sets the event observer.
// Passing several observers fans events out to each of them in order.
func (c Config) WithObserver(observers ...Observer) Config {
	switch len(observers) {
	case 0:
		c.Observer = nil
	case 1:
		c.Observer = observers[0]
	default:
		c.Observer = Observers(observers)
	}
	return c
}
