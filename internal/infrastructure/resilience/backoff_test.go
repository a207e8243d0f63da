package resilience

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultBackoffConfig().Validate())

	bad := DefaultBackoffConfig()
	bad.BaseDelay = 0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidConfig)

	bad = DefaultBackoffConfig()
	bad.MaxDelay = 500 * time.Millisecond
	assert.ErrorIs(t, bad.Validate(), ErrInvalidConfig)

	bad = DefaultBackoffConfig()
	bad.Multiplier = 0.5
	assert.ErrorIs(t, bad.Validate(), ErrInvalidConfig)

	bad = DefaultBackoffConfig()
	bad.JitterFactor = 1.0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidConfig)
}

func TestCalculateBackoffDelay_GrowsExponentially(t *testing.T) {
	cfg := DefaultBackoffConfig()
	cfg.JitterFactor = 0 // exact values without jitter

	assert.Equal(t, 1*time.Second, CalculateBackoffDelay(1, cfg))
	assert.Equal(t, 2*time.Second, CalculateBackoffDelay(2, cfg))
	assert.Equal(t, 4*time.Second, CalculateBackoffDelay(3, cfg))
	assert.Equal(t, 32*time.Second, CalculateBackoffDelay(6, cfg))
}

func TestCalculateBackoffDelay_CappedAtMax(t *testing.T) {
	cfg := DefaultBackoffConfig()
	cfg.JitterFactor = 0

	assert.Equal(t, cfg.MaxDelay, CalculateBackoffDelay(7, cfg))
	assert.Equal(t, cfg.MaxDelay, CalculateBackoffDelay(50, cfg))
}

func TestCalculateBackoffDelay_AttemptFloor(t *testing.T) {
	cfg := DefaultBackoffConfig()
	cfg.JitterFactor = 0

	assert.Equal(t, cfg.BaseDelay, CalculateBackoffDelay(0, cfg))
	assert.Equal(t, cfg.BaseDelay, CalculateBackoffDelay(-3, cfg))
}

func TestCalculateBackoffDelay_JitterStaysInBounds(t *testing.T) {
	cfg := DefaultBackoffConfig()
	rng := rand.New(rand.NewSource(42))

	for attempt := 1; attempt <= 10; attempt++ {
		base := time.Duration(float64(cfg.BaseDelay))
		for i := 1; i < attempt; i++ {
			base = time.Duration(float64(base) * cfg.Multiplier)
			if base > cfg.MaxDelay {
				base = cfg.MaxDelay
				break
			}
		}
		for i := 0; i < 100; i++ {
			delay := CalculateBackoffDelaySeeded(attempt, cfg, rng)
			lo := time.Duration(float64(base) * (1 - cfg.JitterFactor))
			hi := time.Duration(float64(base) * (1 + cfg.JitterFactor))
			assert.GreaterOrEqual(t, delay, lo)
			assert.LessOrEqual(t, delay, hi)
		}
	}
}

func TestCalculateBackoffDelay_JitterPresent(t *testing.T) {
	cfg := DefaultBackoffConfig()
	rng := rand.New(rand.NewSource(7))

	seen := make(map[time.Duration]struct{})
	for i := 0; i < 50; i++ {
		seen[CalculateBackoffDelaySeeded(3, cfg, rng)] = struct{}{}
	}
	// Repeated calls at the same attempt count must not produce a single
	// fixed value, otherwise concurrently failing entities retry in
	// lock-step.
	assert.Greater(t, len(seen), 1)
}

func TestCalculateBackoffDelay_DeterministicWithSeed(t *testing.T) {
	cfg := DefaultBackoffConfig()

	a := rand.New(rand.NewSource(99))
	b := rand.New(rand.NewSource(99))
	for attempt := 1; attempt <= 8; attempt++ {
		require.Equal(t,
			CalculateBackoffDelaySeeded(attempt, cfg, a),
			CalculateBackoffDelaySeeded(attempt, cfg, b),
		)
	}
}

func TestCalculateBackoffDelay_NonDecreasingInExpectation(t *testing.T) {
	cfg := DefaultBackoffConfig()
	rng := rand.New(rand.NewSource(1))

	mean := func(attempt int) time.Duration {
		var total time.Duration
		const n = 200
		for i := 0; i < n; i++ {
			total += CalculateBackoffDelaySeeded(attempt, cfg, rng)
		}
		return total / n
	}

	prev := mean(1)
	for attempt := 2; attempt <= 6; attempt++ {
		cur := mean(attempt)
		assert.Greater(t, cur, prev, "attempt %d", attempt)
		prev = cur
	}
}
