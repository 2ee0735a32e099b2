package watch

import (
	"context"
	"time"
)

// BackoffConfig is used to configure exponential backoff between reload
// attempts
type BackoffConfig struct {
	Min   time.Duration
	Max   time.Duration
	Scale float64
}

// DefaultBackoff is a suggested configuration
var DefaultBackoff = BackoffConfig{
	Min:   10 * time.Millisecond,
	Max:   5 * time.Second,
	Scale: 2.0,
}

// backoff contains the current state of the backoff logic
type backoff struct {
	config  BackoffConfig
	current time.Duration
}

// newBackoff fills the unset fields of the config from DefaultBackoff. Min
// must be positive and Scale above 1 for the delays to grow; Max is raised to
// Min if below it.
func newBackoff(config BackoffConfig) *backoff {
	if config.Min <= 0 {
		config.Min = DefaultBackoff.Min
	}
	if config.Max <= 0 {
		config.Max = DefaultBackoff.Max
	}
	if config.Max < config.Min {
		config.Max = config.Min
	}
	if config.Scale <= 1 {
		config.Scale = DefaultBackoff.Scale
	}
	return &backoff{
		config:  config,
		current: config.Min,
	}
}

// next returns the duration to wait and updates the inner state
func (b *backoff) next() time.Duration {
	beforeScale := b.current
	b.current = time.Duration(float64(b.current) * b.config.Scale)
	if b.current > b.config.Max {
		b.current = b.config.Max
	}
	return beforeScale
}

// sleep waits for the sooner event between two:
// -- closing the context, the error associated with the context returned
// -- the duration to elapse, nil returned
func sleep(ctx context.Context, duration time.Duration) error {
	if duration <= 0 {
		return nil
	}
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
