package safety

import (
	"fmt"
	"sync"
	"time"
)

// BreakerState represents the state of a circuit breaker
type BreakerState int

const (
	StateClosed BreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// BreakerConfig holds configuration for a circuit breaker
type BreakerConfig struct {
	FailureThreshold uint32        // consecutive failures before opening
	SuccessThreshold uint32        // successes needed to close from half-open
	Cooldown         time.Duration // how long the breaker stays open
}

// DefaultBreakerConfig suits an outbound alert channel: give up after three
// failed sends and try again a minute later.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 1,
		Cooldown:         time.Minute,
	}
}

// ErrOpen is returned by Call while the breaker refuses calls
type ErrOpen struct {
	Name  string
	Until time.Time
}

func (e *ErrOpen) Error() string {
	return fmt.Sprintf("circuit breaker %s is open until %s", e.Name, e.Until.Format(time.RFC3339))
}

// CircuitBreaker stops calling a failing dependency for a cooldown period
type CircuitBreaker struct {
	mu          sync.Mutex
	name        string
	config      BreakerConfig
	state       BreakerState
	failures    uint32
	successes   uint32
	nextAttempt time.Time
	now         func() time.Time

	onStateChange func(from, to BreakerState)
}

// NewCircuitBreaker creates a closed breaker, filling zero config values with defaults
func NewCircuitBreaker(name string, config BreakerConfig) *CircuitBreaker {
	defaults := DefaultBreakerConfig()
	if config.FailureThreshold == 0 {
		config.FailureThreshold = defaults.FailureThreshold
	}
	if config.SuccessThreshold == 0 {
		config.SuccessThreshold = defaults.SuccessThreshold
	}
	if config.Cooldown <= 0 {
		config.Cooldown = defaults.Cooldown
	}
	return &CircuitBreaker{
		name:   name,
		config: config,
		state:  StateClosed,
		now:    time.Now,
	}
}

// WithClock replaces the breaker's time source
func (cb *CircuitBreaker) WithClock(now func() time.Time) *CircuitBreaker {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.now = now
	return cb
}

// OnStateChange registers a callback run synchronously on every transition.
// It must not call back into the breaker.
func (cb *CircuitBreaker) OnStateChange(fn func(from, to BreakerState)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.onStateChange = fn
}

// Call runs fn unless the breaker is open
func (cb *CircuitBreaker) Call(fn func() error) error {
	if err := cb.before(); err != nil {
		return err
	}

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.recordFailure()
		return err
	}
	cb.recordSuccess()
	return nil
}

func (cb *CircuitBreaker) before() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != StateOpen {
		return nil
	}
	if cb.now().Before(cb.nextAttempt) {
		return &ErrOpen{Name: cb.name, Until: cb.nextAttempt}
	}
	cb.changeState(StateHalfOpen)
	cb.successes = 0
	return nil
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.failures = 0
	if cb.state != StateHalfOpen {
		return
	}
	cb.successes++
	if cb.successes >= cb.config.SuccessThreshold {
		cb.changeState(StateClosed)
		cb.successes = 0
	}
}

func (cb *CircuitBreaker) recordFailure() {
	cb.failures++
	// a half-open trial call gets a single chance
	if cb.state == StateHalfOpen || cb.failures >= cb.config.FailureThreshold {
		cb.changeState(StateOpen)
		cb.nextAttempt = cb.now().Add(cb.config.Cooldown)
		cb.successes = 0
	}
}

func (cb *CircuitBreaker) changeState(to BreakerState) {
	from := cb.state
	cb.state = to
	if cb.onStateChange != nil && from != to {
		cb.onStateChange(from, to)
	}
}

// State returns the current state
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset closes the breaker and clears its counters
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.changeState(StateClosed)
	cb.failures = 0
	cb.successes = 0
}
