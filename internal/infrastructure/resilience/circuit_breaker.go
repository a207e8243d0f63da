package resilience

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrInvalidConfig indicates an invalid resilience configuration
	ErrInvalidConfig = errors.New("resilience: invalid configuration")
	// ErrCircuitOpen is returned when a breaker rejects a call without
	// invoking the wrapped dependency
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")
)

// BreakerState represents the state of a circuit breaker
type BreakerState string

const (
	// BreakerClosed passes calls through while counting failures
	BreakerClosed BreakerState = "CLOSED"
	// BreakerOpen rejects calls immediately
	BreakerOpen BreakerState = "OPEN"
	// BreakerHalfOpen allows a limited number of trial calls
	BreakerHalfOpen BreakerState = "HALF_OPEN"
)

// BreakerConfig holds circuit breaker tuning parameters
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens
	// the breaker
	FailureThreshold int
	// ResetTimeout is how long the breaker stays open before allowing
	// trial calls
	ResetTimeout time.Duration
	// HalfOpenMaxCalls is the number of concurrent trial calls allowed
	// in the half-open state
	HalfOpenMaxCalls int
}

// DefaultBreakerConfig returns the documented defaults: open after
// 5 consecutive failures, 30s reset timeout, 2 half-open trial calls.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
		HalfOpenMaxCalls: 2,
	}
}

// Validate validates the configuration
func (c BreakerConfig) Validate() error {
	if c.FailureThreshold <= 0 {
		return ErrInvalidConfig
	}
	if c.ResetTimeout <= 0 {
		return ErrInvalidConfig
	}
	if c.HalfOpenMaxCalls <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// CircuitBreaker is a per-key fault isolation state machine. Closed calls
// pass through while consecutive failures are counted; once the threshold
// is reached the breaker opens and rejects calls without invoking the
// dependency. After the reset timeout a limited number of trial calls are
// allowed; a trial success closes the breaker, a trial failure reopens it.
//
// Safe for concurrent use: entities syncing against the same platform
// share one breaker.
type CircuitBreaker struct {
	key    string
	config BreakerConfig
	logger *zap.Logger

	mu                  sync.Mutex
	state               BreakerState
	consecutiveFailures int
	openedAt            time.Time
	halfOpenInFlight    int
}

// NewCircuitBreaker creates a closed breaker for the given key
func NewCircuitBreaker(key string, config BreakerConfig, logger *zap.Logger) *CircuitBreaker {
	return &CircuitBreaker{
		key:    key,
		config: config,
		logger: logger,
		state:  BreakerClosed,
	}
}

// Key returns the breaker's registry key
func (b *CircuitBreaker) Key() string {
	return b.key
}

// State returns the current state, accounting for an elapsed reset timeout
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == BreakerOpen && time.Since(b.openedAt) >= b.config.ResetTimeout {
		return BreakerHalfOpen
	}
	return b.state
}

// Allow reports whether a call may proceed. Returns ErrCircuitOpen when
// the call must be rejected without invoking the dependency. A granted
// call must be concluded with RecordSuccess or RecordFailure.
func (b *CircuitBreaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		return nil
	case BreakerOpen:
		if time.Since(b.openedAt) < b.config.ResetTimeout {
			return ErrCircuitOpen
		}
		b.transitionLocked(BreakerHalfOpen)
		b.halfOpenInFlight = 1
		return nil
	case BreakerHalfOpen:
		if b.halfOpenInFlight >= b.config.HalfOpenMaxCalls {
			return ErrCircuitOpen
		}
		b.halfOpenInFlight++
		return nil
	default:
		return nil
	}
}

// RecordSuccess concludes a granted call as successful
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerHalfOpen:
		b.transitionLocked(BreakerClosed)
		b.consecutiveFailures = 0
		b.halfOpenInFlight = 0
	case BreakerClosed:
		b.consecutiveFailures = 0
	}
}

// RecordFailure concludes a granted call as failed
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerHalfOpen:
		b.transitionLocked(BreakerOpen)
		b.openedAt = time.Now()
		b.halfOpenInFlight = 0
	case BreakerClosed:
		b.consecutiveFailures++
		if b.consecutiveFailures >= b.config.FailureThreshold {
			b.transitionLocked(BreakerOpen)
			b.openedAt = time.Now()
		}
	}
}

// Execute runs fn under the breaker, recording its outcome
func (b *CircuitBreaker) Execute(fn func() error) error {
	if err := b.Allow(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		b.RecordFailure()
		return err
	}
	b.RecordSuccess()
	return nil
}

// reset returns the breaker to its initial closed state
func (b *CircuitBreaker) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = BreakerClosed
	b.consecutiveFailures = 0
	b.halfOpenInFlight = 0
	b.openedAt = time.Time{}
}

func (b *CircuitBreaker) transitionLocked(to BreakerState) {
	if b.state == to {
		return
	}
	if b.logger != nil {
		b.logger.Info("Circuit breaker state change",
			zap.String("key", b.key),
			zap.String("from", string(b.state)),
			zap.String("to", string(to)),
		)
	}
	b.state = to
}

// ---------------------------------------------------------------------------
// BreakerRegistry
// ---------------------------------------------------------------------------

// BreakerRegistry is an explicit, injectable registry of circuit breakers
// keyed by platform identifier. It is constructed, not a module-level
// singleton, so tests and multi-tenant deployments can isolate instances.
type BreakerRegistry struct {
	config BreakerConfig
	logger *zap.Logger

	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

// NewBreakerRegistry creates a registry that hands out breakers with the
// given configuration
func NewBreakerRegistry(config BreakerConfig, logger *zap.Logger) (*BreakerRegistry, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &BreakerRegistry{
		config:   config,
		logger:   logger,
		breakers: make(map[string]*CircuitBreaker),
	}, nil
}

// Get returns the breaker for the given key, creating it on first use
func (r *BreakerRegistry) Get(key string) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.breakers[key]; ok {
		return b
	}
	b := NewCircuitBreaker(key, r.config, r.logger)
	r.breakers[key] = b
	return b
}

// Reset returns the keyed breaker to its initial closed state
func (r *BreakerRegistry) Reset(key string) {
	r.mu.Lock()
	b, ok := r.breakers[key]
	r.mu.Unlock()
	if ok {
		b.reset()
	}
}

// ResetAll resets every breaker in the registry, for controlled teardown
// between test runs or administrative resets
func (r *BreakerRegistry) ResetAll() {
	r.mu.Lock()
	breakers := make([]*CircuitBreaker, 0, len(r.breakers))
	for _, b := range r.breakers {
		breakers = append(breakers, b)
	}
	r.mu.Unlock()

	for _, b := range breakers {
		b.reset()
	}
}
