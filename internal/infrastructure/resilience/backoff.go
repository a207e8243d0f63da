package resilience

import (
	"math/rand"
	"time"
)

// BackoffConfig holds the parameters for retry delay calculation
type BackoffConfig struct {
	// BaseDelay is the delay for the first retry
	BaseDelay time.Duration
	// MaxDelay caps the exponential growth
	MaxDelay time.Duration
	// Multiplier is the exponential growth factor per attempt
	Multiplier float64
	// JitterFactor randomizes the delay by ±factor so concurrently
	// failing entities do not retry in lock-step
	JitterFactor float64
}

// DefaultBackoffConfig returns the documented retry schedule:
// 1s base, doubling per attempt, capped at 60s, with ±20% jitter.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		BaseDelay:    1 * time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2,
		JitterFactor: 0.2,
	}
}

// Validate validates the configuration
func (c BackoffConfig) Validate() error {
	if c.BaseDelay <= 0 {
		return ErrInvalidConfig
	}
	if c.MaxDelay < c.BaseDelay {
		return ErrInvalidConfig
	}
	if c.Multiplier < 1 {
		return ErrInvalidConfig
	}
	if c.JitterFactor < 0 || c.JitterFactor >= 1 {
		return ErrInvalidConfig
	}
	return nil
}

// CalculateBackoffDelay computes the jittered delay before the given retry
// attempt (1-based). Growth is exponential from BaseDelay, capped at
// MaxDelay before jitter is applied.
func CalculateBackoffDelay(attempt int, cfg BackoffConfig) time.Duration {
	return calculateBackoffDelay(attempt, cfg, rand.Float64)
}

// CalculateBackoffDelaySeeded computes the same delay from an explicit
// random source, making the result deterministic for tests.
func CalculateBackoffDelaySeeded(attempt int, cfg BackoffConfig, rng *rand.Rand) time.Duration {
	return calculateBackoffDelay(attempt, cfg, rng.Float64)
}

func calculateBackoffDelay(attempt int, cfg BackoffConfig, randFloat func() float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := float64(cfg.BaseDelay)
	for i := 1; i < attempt; i++ {
		delay *= cfg.Multiplier
		if delay >= float64(cfg.MaxDelay) {
			delay = float64(cfg.MaxDelay)
			break
		}
	}

	if cfg.JitterFactor > 0 {
		// Uniform jitter in [-JitterFactor, +JitterFactor]
		jitter := (randFloat()*2 - 1) * cfg.JitterFactor
		delay *= 1 + jitter
	}

	if delay < 0 {
		delay = 0
	}
	if delay > float64(cfg.MaxDelay)*(1+cfg.JitterFactor) {
		delay = float64(cfg.MaxDelay) * (1 + cfg.JitterFactor)
	}

	return time.Duration(delay)
}
