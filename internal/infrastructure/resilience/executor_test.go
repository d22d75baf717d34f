package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
)

var errTransient = errors.New("model overloaded")

func fastConfig(attempts int) Config {
	return Config{
		RetryMaxAttempts:    attempts,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	}
}

func retryTransient(err error) ErrorClassification {
	return ErrorClassification{Retryable: errors.Is(err, errTransient), RecordFailure: true}
}

type observerFake struct {
	mu      sync.Mutex
	retries map[string]int
	states  []string
}

func (o *observerFake) ObserveRetry(operation string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.retries == nil {
		o.retries = map[string]int{}
	}
	o.retries[operation]++
}

func (o *observerFake) ObserveBreakerState(operation string, state string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states = append(o.states, operation+":"+state)
}

type hintedError struct {
	wait time.Duration
}

func (e hintedError) Error() string             { return "rate limited" }
func (e hintedError) RetryAfter() time.Duration { return e.wait }
func (e hintedError) Unwrap() error             { return errTransient }

func TestExecuteRetriesUntilSuccessAndReportsRetries(t *testing.T) {
	observer := &observerFake{}
	exec := NewExecutor(fastConfig(3), WithObserver(observer))

	attempts := 0
	err := exec.Execute(context.Background(), "gemini_generate", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errTransient
		}
		return nil
	}, retryTransient)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
	if observer.retries["gemini_generate"] != 2 {
		t.Fatalf("expected 2 observed retries, got %v", observer.retries)
	}
}

func TestExecuteStopsOnPermanentFailureAndLastAttempt(t *testing.T) {
	errSchema := errors.New("schema violation")
	cases := []struct {
		name     string
		err      error
		attempts int
		want     int
	}{
		{name: "permanent", err: errSchema, attempts: 3, want: 1},
		{name: "exhausted", err: errTransient, attempts: 2, want: 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			exec := NewExecutor(fastConfig(tc.attempts))
			calls := 0
			err := exec.Execute(context.Background(), "op", func(context.Context) error {
				calls++
				return tc.err
			}, retryTransient)
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected %v, got %v", tc.err, err)
			}
			if calls != tc.want {
				t.Fatalf("expected %d calls, got %d", tc.want, calls)
			}
		})
	}
}

func TestExecuteOpensCircuitAndNotifiesObserver(t *testing.T) {
	observer := &observerFake{}
	exec := NewExecutor(Config{
		RetryMaxAttempts:        1,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	}, WithObserver(observer))

	for i := 0; i < 2; i++ {
		_ = exec.Execute(context.Background(), "history_insert", func(context.Context) error {
			return errTransient
		}, nil)
	}

	err := exec.Execute(context.Background(), "history_insert", func(context.Context) error {
		t.Fatalf("circuit should be open and must not call operation")
		return nil
	}, nil)
	if !errors.Is(err, gobreaker.ErrOpenState) || !IsCircuitOpen(err) {
		t.Fatalf("expected open state error, got %v", err)
	}
	if len(observer.states) != 1 || observer.states[0] != "history_insert:open" {
		t.Fatalf("unexpected breaker transitions %v", observer.states)
	}
}

func TestExecuteBreakerIgnoresUnrecordedFailures(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:   1,
		BreakerEnabled:     true,
		BreakerMinRequests: 1,
	})
	errBadRequest := errors.New("400 bad request")
	ignore := func(error) ErrorClassification { return ErrorClassification{} }

	for i := 0; i < 3; i++ {
		err := exec.Execute(context.Background(), "op", func(context.Context) error {
			return errBadRequest
		}, ignore)
		if !errors.Is(err, errBadRequest) {
			t.Fatalf("iteration %d: expected operation error, got %v", i, err)
		}
	}
}

func TestExecuteRetriesAttemptTimeout(t *testing.T) {
	cfg := fastConfig(2)
	cfg.AttemptTimeout = 5 * time.Millisecond
	exec := NewExecutor(cfg)

	attempts := 0
	err := exec.Execute(context.Background(), "op", func(ctx context.Context) error {
		attempts++
		if attempts == 1 {
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	}, func(err error) ErrorClassification {
		return ErrorClassification{Retryable: errors.Is(err, ErrAttemptTimeout), RecordFailure: true}
	})
	if err != nil {
		t.Fatalf("expected success after timed out attempt, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestExecuteAttemptTimeoutIsNotContextDeadline(t *testing.T) {
	exec := NewExecutor(Config{AttemptTimeout: 5 * time.Millisecond, RetryMaxAttempts: 1})

	err := exec.Execute(context.Background(), "op", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, nil)
	if !errors.Is(err, ErrAttemptTimeout) {
		t.Fatalf("expected ErrAttemptTimeout, got %v", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("attempt timeout must not look like a caller deadline: %v", err)
	}
}

func TestExecuteCanceledContextStopsRetrying(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    5,
		RetryInitialBackoff: time.Hour,
		RetryMaxBackoff:     time.Hour,
	})
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := exec.Execute(ctx, "op", func(context.Context) error {
		calls++
		cancel()
		return errTransient
	}, retryTransient)
	if !errors.Is(err, errTransient) {
		t.Fatalf("expected last operation error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestWaitBeforeHonoursRetryHintWithinCap(t *testing.T) {
	exec := NewExecutor(Config{
		RetryInitialBackoff: 10 * time.Millisecond,
		RetryMaxBackoff:     time.Second,
		RetryMultiplier:     2,
	})

	cases := []struct {
		name string
		err  error
		want time.Duration
	}{
		{name: "no hint", err: errTransient, want: 10 * time.Millisecond},
		{name: "longer hint", err: hintedError{wait: 300 * time.Millisecond}, want: 300 * time.Millisecond},
		{name: "shorter hint", err: hintedError{wait: time.Millisecond}, want: 10 * time.Millisecond},
		{name: "capped hint", err: hintedError{wait: time.Minute}, want: time.Second},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := exec.waitBefore(1, tc.err); got != tc.want {
				t.Fatalf("waitBefore() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestBackoffAfterGrowsToCap(t *testing.T) {
	cfg := Config{
		RetryInitialBackoff: 100 * time.Millisecond,
		RetryMaxBackoff:     350 * time.Millisecond,
		RetryMultiplier:     2,
	}.normalize()

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 350 * time.Millisecond, 350 * time.Millisecond}
	for i, w := range want {
		if got := cfg.backoffAfter(i + 1); got != w {
			t.Fatalf("backoffAfter(%d) = %s, want %s", i+1, got, w)
		}
	}
}

func TestNormalizeFillsDefaults(t *testing.T) {
	cfg := Config{RetryInitialBackoff: time.Second, RetryMaxBackoff: time.Millisecond, BreakerFailureRatio: 3}.normalize()
	if cfg.RetryMaxAttempts != defaultRetryMaxAttempts {
		t.Fatalf("expected default attempts, got %d", cfg.RetryMaxAttempts)
	}
	if cfg.RetryMaxBackoff != time.Second {
		t.Fatalf("max backoff must not be below the initial backoff, got %s", cfg.RetryMaxBackoff)
	}
	if cfg.BreakerFailureRatio != defaultBreakerFailureRatio {
		t.Fatalf("expected default failure ratio, got %v", cfg.BreakerFailureRatio)
	}
}
