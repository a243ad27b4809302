package constants

import "time"

// Centralized default values for timeouts, limits and related settings.
// Config may override the timeouts where supported.

const (
	// Database
	DBReadTimeoutDefault  = 8 * time.Second
	DBWriteTimeoutDefault = 6 * time.Second

	// Health
	HealthTimeoutDefault  = 5 * time.Second
	HealthCheckTTLDefault = 2 * time.Second

	// Redis session store breaker
	RedisOperationTimeout = 2 * time.Second
	RedisBreakerOpenFor   = 10 * time.Second
	RedisBreakerFailures  = 5

	// App shutdown
	GracefulShutdownTimeoutDefault = 10 * time.Second

	// HTTP server
	ServerReadHeaderTimeout = 5 * time.Second
	ServerWriteTimeout      = 30 * time.Second
	ServerIdleTimeout       = 60 * time.Second
)

// Account and todo input rules.
const (
	UsernameMinLength = 3
	UsernameMaxLength = 31
	PasswordMinLength = 6
	PasswordMaxLength = 31
	TodoTextMinLength = 4
)
