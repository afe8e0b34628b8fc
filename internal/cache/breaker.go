package cache

import (
	"errors"
	"sync"
	"time"
)

var ErrBreakerOpen = errors.New("cache: breaker open")

type BreakerState int

const (
	StateClosed BreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// BreakerConfig sets when the breaker trips and how it recovers. After
// Threshold consecutive failures calls are refused for Cooldown, then up to
// Probes calls are let through; that many successes close it again.
type BreakerConfig struct {
	Threshold int           `json:"threshold"`
	Cooldown  time.Duration `json:"cooldown"`
	Probes    int           `json:"probes"`
}

func DefaultBreakerConfig() *BreakerConfig {
	return &BreakerConfig{
		Threshold: 5,
		Cooldown:  30 * time.Second,
		Probes:    3,
	}
}

// Breaker guards redis so a dead server costs one fast error per lookup
// instead of a dial timeout.
type Breaker struct {
	mu       sync.Mutex
	config   BreakerConfig
	state    BreakerState
	failures int
	inFlight int
	passed   int
	openedAt time.Time
	now      func() time.Time
}

func NewBreaker(config *BreakerConfig) *Breaker {
	if config == nil {
		config = DefaultBreakerConfig()
	}
	return &Breaker{config: *config, now: time.Now}
}

// Do runs fn unless the breaker is open. A cache miss means redis answered,
// so it is not counted against it.
func (b *Breaker) Do(fn func() error) error {
	if !b.acquire() {
		return ErrBreakerOpen
	}
	err := fn()
	b.done(err == nil || errors.Is(err, ErrCacheMiss))
	return err
}

func (b *Breaker) acquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		if b.now().Sub(b.openedAt) < b.config.Cooldown {
			return false
		}
		b.state = StateHalfOpen
		b.inFlight, b.passed = 0, 0
	}
	if b.state == StateHalfOpen {
		if b.inFlight >= b.config.Probes {
			return false
		}
		b.inFlight++
	}
	return true
}

func (b *Breaker) done(ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !ok {
		b.failures++
		if b.state == StateHalfOpen || b.failures >= b.config.Threshold {
			b.trip()
		}
		return
	}

	switch b.state {
	case StateClosed:
		b.failures = 0
	case StateHalfOpen:
		if b.passed++; b.passed >= b.config.Probes {
			b.state = StateClosed
			b.failures, b.inFlight, b.passed = 0, 0, 0
		}
	}
}

// trip must be called with mu held.
func (b *Breaker) trip() {
	b.state = StateOpen
	b.openedAt = b.now()
}

func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) Stats() map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	return map[string]interface{}{
		"state":            b.state.String(),
		"failures":         b.failures,
		"threshold":        b.config.Threshold,
		"cooldown_seconds": b.config.Cooldown.Seconds(),
		"opened_at":        b.openedAt.Unix(),
	}
}
