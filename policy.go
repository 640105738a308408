package rill

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance.
var validate = validator.New()

// RetryPolicy configures the executor's retry behavior. Configure it once
// per executor; it is never mutated afterwards.
type RetryPolicy struct {
	// MaxAttempts is the total number of submissions, including the first.
	MaxAttempts int `validate:"min=1"`

	// BaseDelay is the delay before the first retry. The delay for attempt n
	// (0-indexed) is BaseDelay * 2^n, stretched by jitter.
	BaseDelay time.Duration `validate:"gt=0"`

	// JitterFraction stretches each delay by a uniform random factor in
	// [0, JitterFraction]. Zero disables jitter.
	JitterFraction float64 `validate:"gte=0,lte=1"`
}

// Validate checks the policy invariants using struct tags.
func (p RetryPolicy) Validate() error {
	return validate.Struct(p)
}

// delay computes the backoff before retry attempt n (0-indexed). The random
// factor is drawn independently per attempt from rand, which must return a
// value in [0, 1).
func (p RetryPolicy) delay(n int, rand func() float64) time.Duration {
	base := float64(p.BaseDelay) * math.Pow(2, float64(n))
	jitter := 1.0
	if p.JitterFraction > 0 {
		jitter += rand() * p.JitterFraction
	}
	d := base * jitter
	if d > float64(math.MaxInt64) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

// DefaultReconnectBase is the initial delay before a reconnect attempt.
const DefaultReconnectBase = 1 * time.Second

// DefaultReconnectCeiling caps the reconnect backoff.
const DefaultReconnectCeiling = 30 * time.Second

// ReconnectPolicy configures the coordinator's auto-reconnect backoff.
// The delay starts at BaseDelay, doubles after every consecutive failure,
// never exceeds MaxDelay, and resets to BaseDelay after a successful connect.
type ReconnectPolicy struct {
	BaseDelay time.Duration `validate:"gt=0"`
	MaxDelay  time.Duration `validate:"gtefield=BaseDelay"`
}

// DefaultReconnectPolicy returns the stock 1s..30s doubling schedule.
func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{BaseDelay: DefaultReconnectBase, MaxDelay: DefaultReconnectCeiling}
}

// Validate checks the policy invariants using struct tags.
func (p ReconnectPolicy) Validate() error {
	return validate.Struct(p)
}

// next returns the delay following the given one, doubling up to MaxDelay.
// Pass zero to obtain the initial delay.
func (p ReconnectPolicy) next(current time.Duration) time.Duration {
	if current <= 0 {
		return p.BaseDelay
	}
	doubled := current * 2
	if doubled > p.MaxDelay || doubled < current {
		return p.MaxDelay
	}
	return doubled
}
