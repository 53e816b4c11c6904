// Package backoff produces the reconnect delay sequence the connection
// engine sleeps on between failed connect attempts.
package backoff

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultMin and DefaultMax are the reconnect bounds used when Policy is
// constructed with New(0, 0).
const (
	DefaultMin = 500 * time.Millisecond
	DefaultMax = 60 * time.Second
)

// Policy produces a monotone, bounded reconnect delay sequence with reset,
// backed by cenkalti/backoff's exponential curve clamped to [min, max].
type Policy struct {
	min, max time.Duration

	mu sync.Mutex
	eb *backoff.ExponentialBackOff
}

// New returns a Policy bounded to [min, max]. A non-positive bound falls
// back to the corresponding default.
func New(min, max time.Duration) *Policy {
	if min <= 0 {
		min = DefaultMin
	}
	if max <= 0 {
		max = DefaultMax
	}
	if max < min {
		max = min
	}

	p := &Policy{min: min, max: max}
	p.eb = p.newExponential()

	return p
}

func (p *Policy) newExponential() *backoff.ExponentialBackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.min
	eb.MaxInterval = p.max
	eb.MaxElapsedTime = 0 // never give up; the engine decides when to stop reconnecting
	eb.Multiplier = 1.6
	eb.RandomizationFactor = 0 // no jitter, so the sequence stays monotone
	eb.Reset()

	return eb
}

// NextDelay returns the next delay in [min, max]; repeated calls without a
// Reset grow the delay monotonically until it saturates at max.
func (p *Policy) NextDelay() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	d := p.eb.NextBackOff()
	if d == backoff.Stop || d > p.max {
		d = p.max
	}
	if d < p.min {
		d = p.min
	}

	return d
}

// Reset brings the next delay back to min and zeroes the failure counter.
// Called after a successful READY.
func (p *Policy) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.eb.Reset()
}
