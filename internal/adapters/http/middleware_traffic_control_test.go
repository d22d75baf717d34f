package httpadapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kirillkom/documind-auditor/internal/config"
)

func TestRateLimitAppliesToAPIButNotHealthz(t *testing.T) {
	handler := newTestHandler(config.Config{
		APIRateLimitRPS:   1,
		APIRateLimitBurst: 1,
	})

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/v1/session", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first request expected 200, got %d", first.Code)
	}

	limited := httptest.NewRecorder()
	handler.ServeHTTP(limited, httptest.NewRequest(http.MethodGet, "/v1/audits/progress", nil))
	if limited.Code != http.StatusTooManyRequests {
		t.Fatalf("second request expected 429, got %d", limited.Code)
	}
	if got := limited.Header().Get("Retry-After"); got != "1" {
		t.Fatalf("expected Retry-After 1, got %q", got)
	}
	var body errorResponse
	if err := json.Unmarshal(limited.Body.Bytes(), &body); err != nil || body.Kind != "rate_limited" {
		t.Fatalf("unexpected 429 body %q (%v)", limited.Body.String(), err)
	}

	health := httptest.NewRecorder()
	handler.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if health.Code != http.StatusOK {
		t.Fatalf("healthz must bypass the limiter, got %d", health.Code)
	}
}

func TestWriteTooManyRequestsRoundsRetryAfterUp(t *testing.T) {
	cases := map[time.Duration]string{
		10 * time.Millisecond:   "1",
		1500 * time.Millisecond: "2",
		3 * time.Second:         "3",
	}
	for delay, want := range cases {
		rec := httptest.NewRecorder()
		writeTooManyRequests(rec, delay)
		if got := rec.Header().Get("Retry-After"); got != want {
			t.Fatalf("delay %s: Retry-After = %q, want %q", delay, got, want)
		}
	}
}

func TestBackpressureRejectsWhileAuditHoldsTheSlot(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan int, 1)

	upload := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started <- struct{}{}
		<-release
		w.WriteHeader(http.StatusCreated)
	})
	handler := backpressureMiddleware(upload, 1, 20*time.Millisecond)

	go func() {
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/v1/audits", nil))
		done <- res.Code
	}()
	<-started

	rejected := httptest.NewRecorder()
	handler.ServeHTTP(rejected, httptest.NewRequest(http.MethodGet, "/v1/history", nil))
	if rejected.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 while saturated, got %d", rejected.Code)
	}
	var body errorResponse
	if err := json.Unmarshal(rejected.Body.Bytes(), &body); err != nil || body.Kind != "overloaded" || body.Error == "" {
		t.Fatalf("unexpected 503 body %q (%v)", rejected.Body.String(), err)
	}

	// A client that gives up while queued gets no response written.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gone := httptest.NewRecorder()
	slowGate := backpressureMiddleware(upload, 1, time.Hour)
	go func() {
		slowGate.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/audits", nil))
	}()
	<-started
	slowGate.ServeHTTP(gone, httptest.NewRequest(http.MethodGet, "/v1/history", nil).WithContext(ctx))
	if gone.Body.Len() != 0 {
		t.Fatalf("expected empty response for canceled client, got %q", gone.Body.String())
	}

	close(release)
	select {
	case code := <-done:
		if code != http.StatusCreated {
			t.Fatalf("held request expected 201, got %d", code)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for the held request")
	}
}
