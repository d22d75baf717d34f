package resilience

import "time"

const (
	defaultRetryMaxAttempts    = 3
	defaultRetryInitialBackoff = 100 * time.Millisecond
	defaultRetryMaxBackoff     = 400 * time.Millisecond
	defaultRetryMultiplier     = 2.0

	defaultBreakerMinRequests      = 10
	defaultBreakerFailureRatio     = 0.5
	defaultBreakerOpenTimeout      = 30 * time.Second
	defaultBreakerHalfOpenMaxCalls = 2
)

type Config struct {
	// AttemptTimeout bounds each call of the operation; zero leaves only the caller's deadline.
	AttemptTimeout time.Duration

	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	// RetryMaxBackoff also caps waits requested by the server through RetryHinter.
	RetryMaxBackoff time.Duration
	RetryMultiplier float64

	BreakerEnabled          bool
	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32
}

func DefaultConfig() Config {
	return Config{
		RetryMaxAttempts:    defaultRetryMaxAttempts,
		RetryInitialBackoff: defaultRetryInitialBackoff,
		RetryMaxBackoff:     defaultRetryMaxBackoff,
		RetryMultiplier:     defaultRetryMultiplier,

		BreakerEnabled:          true,
		BreakerMinRequests:      defaultBreakerMinRequests,
		BreakerFailureRatio:     defaultBreakerFailureRatio,
		BreakerOpenTimeout:      defaultBreakerOpenTimeout,
		BreakerHalfOpenMaxCalls: defaultBreakerHalfOpenMaxCalls,
	}
}

func (c Config) normalize() Config {
	out := c
	out.AttemptTimeout = max(out.AttemptTimeout, 0)
	out.RetryMaxAttempts = positiveOr(out.RetryMaxAttempts, defaultRetryMaxAttempts)
	out.RetryInitialBackoff = positiveOr(out.RetryInitialBackoff, defaultRetryInitialBackoff)
	out.RetryMaxBackoff = max(positiveOr(out.RetryMaxBackoff, defaultRetryMaxBackoff), out.RetryInitialBackoff)
	if out.RetryMultiplier < 1 {
		out.RetryMultiplier = defaultRetryMultiplier
	}

	out.BreakerMinRequests = positiveOr(out.BreakerMinRequests, defaultBreakerMinRequests)
	if out.BreakerFailureRatio <= 0 || out.BreakerFailureRatio > 1 {
		out.BreakerFailureRatio = defaultBreakerFailureRatio
	}
	out.BreakerOpenTimeout = positiveOr(out.BreakerOpenTimeout, defaultBreakerOpenTimeout)
	out.BreakerHalfOpenMaxCalls = positiveOr(out.BreakerHalfOpenMaxCalls, defaultBreakerHalfOpenMaxCalls)
	return out
}

// backoffAfter returns the exponential wait that follows retry n (1-based), capped.
func (c Config) backoffAfter(n int) time.Duration {
	wait := float64(c.RetryInitialBackoff)
	for i := 1; i < n; i++ {
		wait *= c.RetryMultiplier
		if wait >= float64(c.RetryMaxBackoff) {
			return c.RetryMaxBackoff
		}
	}
	return min(time.Duration(wait), c.RetryMaxBackoff)
}

func positiveOr[T int | uint32 | time.Duration](v, fallback T) T {
	if v <= 0 {
		return fallback
	}
	return v
}
