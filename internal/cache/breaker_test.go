package cache

import (
	"errors"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(threshold, probes int) (*Breaker, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	cb := NewBreaker(&BreakerConfig{
		Threshold: threshold,
		Cooldown:  time.Second,
		Probes:    probes,
	})
	cb.now = clock.now
	return cb, clock
}

var errBoom = errors.New("boom")

func fail() error    { return errBoom }
func succeed() error { return nil }

func TestBreakerStartsClosed(t *testing.T) {
	cb, _ := newTestBreaker(3, 2)

	if cb.State() != StateClosed {
		t.Errorf("Expected initial state to be closed, got %v", cb.State())
	}
	if err := cb.Do(succeed); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker(2, 2)

	if err := cb.Do(fail); !errors.Is(err, errBoom) {
		t.Errorf("Expected errBoom, got %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("Expected closed after one failure, got %v", cb.State())
	}

	_ = cb.Do(fail)
	if cb.State() != StateOpen {
		t.Errorf("Expected open after reaching the threshold, got %v", cb.State())
	}

	called := false
	err := cb.Do(func() error { called = true; return nil })
	if !errors.Is(err, ErrBreakerOpen) {
		t.Errorf("Expected ErrBreakerOpen, got %v", err)
	}
	if called {
		t.Error("Expected fn not to run while open")
	}
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	cb, _ := newTestBreaker(2, 1)

	_ = cb.Do(fail)
	_ = cb.Do(succeed)
	_ = cb.Do(fail)

	if cb.State() != StateClosed {
		t.Errorf("Expected closed since failures were not consecutive, got %v", cb.State())
	}
}

func TestBreakerCacheMissIsNotFailure(t *testing.T) {
	cb, _ := newTestBreaker(1, 1)

	err := cb.Do(func() error { return ErrCacheMiss })
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss to pass through, got %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("Expected closed after a miss, got %v", cb.State())
	}
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	cb, clock := newTestBreaker(1, 2)

	_ = cb.Do(fail)
	clock.advance(2 * time.Second)

	if err := cb.Do(succeed); err != nil {
		t.Fatalf("Expected probe call to run, got %v", err)
	}
	if cb.State() != StateHalfOpen {
		t.Errorf("Expected half-open after first probe, got %v", cb.State())
	}

	_ = cb.Do(succeed)
	if cb.State() != StateClosed {
		t.Errorf("Expected closed after enough probes succeed, got %v", cb.State())
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	cb, clock := newTestBreaker(1, 2)

	_ = cb.Do(fail)
	clock.advance(2 * time.Second)
	_ = cb.Do(fail)

	if cb.State() != StateOpen {
		t.Errorf("Expected open after a failed probe, got %v", cb.State())
	}
	if err := cb.Do(succeed); !errors.Is(err, ErrBreakerOpen) {
		t.Errorf("Expected ErrBreakerOpen during cool-down, got %v", err)
	}
}

func TestBreakerHalfOpenLimitsProbes(t *testing.T) {
	cb, clock := newTestBreaker(1, 1)

	_ = cb.Do(fail)
	clock.advance(2 * time.Second)

	// Claim the only probe slot without finishing it.
	if !cb.acquire() {
		t.Fatal("Expected first probe to be allowed")
	}
	if cb.acquire() {
		t.Error("Expected second concurrent probe to be rejected")
	}
}

func TestBreakerStats(t *testing.T) {
	cb, _ := newTestBreaker(1, 1)
	_ = cb.Do(fail)

	stats := cb.Stats()
	if stats["state"] != "open" {
		t.Errorf("Expected state open, got %v", stats["state"])
	}
	if stats["failures"] != 1 {
		t.Errorf("Expected failures 1, got %v", stats["failures"])
	}
}

func TestDefaultBreakerConfig(t *testing.T) {
	config := DefaultBreakerConfig()

	if config.Threshold != 5 {
		t.Errorf("Expected Threshold 5, got %d", config.Threshold)
	}
	if config.Cooldown != 30*time.Second {
		t.Errorf("Expected Cooldown 30s, got %v", config.Cooldown)
	}
	if config.Probes != 3 {
		t.Errorf("Expected Probes 3, got %d", config.Probes)
	}
}
