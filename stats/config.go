package stats

import "time"

const (
	// DefaultKeyPrefix is the default prefix for stats keys
	DefaultKeyPrefix = "eqlock:stats:"

	// DefaultOperationTimeout is the default timeout for Redis operations (5 seconds)
	DefaultOperationTimeout = 5 * time.Second
)

// Config represents stats recorder configuration
type Config struct {
	// KeyPrefix is prepended to the lock name to form the Redis hash key (default: "eqlock:stats:")
	KeyPrefix string

	// OperationTimeout bounds every Redis call made by the recorder (default: 5s)
	OperationTimeout time.Duration
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		KeyPrefix:        DefaultKeyPrefix,
		OperationTimeout: DefaultOperationTimeout,
	}
}

// WithKeyPrefix sets the Redis key prefix
func (c Config) WithKeyPrefix(prefix string) Config {
	c.KeyPrefix = prefix
	return c
}

// WithOperationTimeout sets the Redis operation timeout
func (c Config) WithOperationTimeout(timeout time.Duration) Config {
	c.OperationTimeout = timeout
	return c
}
