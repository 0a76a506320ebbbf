package pipeline

import "time"

// Reconnect backoff bounds.
const (
	DefaultBackoffInitial = 1 * time.Second
	DefaultBackoffMax     = 60 * time.Second
)

// Backoff produces reconnect delays that double on each failure up to
// a cap. Not safe for concurrent use; the listener owns it.
type Backoff struct {
	initial time.Duration
	max     time.Duration
	current time.Duration
}

// NewBackoff creates a Backoff. Zero arguments select the defaults.
func NewBackoff(initial, max time.Duration) *Backoff {
	if initial <= 0 {
		initial = DefaultBackoffInitial
	}
	if max <= 0 {
		max = DefaultBackoffMax
	}
	return &Backoff{initial: initial, max: max, current: initial}
}

// Next returns the delay to wait before the next attempt and advances
// the schedule.
func (b *Backoff) Next() time.Duration {
	d := b.current
	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}
	return d
}

// Reset returns the schedule to the initial delay. Called after a
// successful connect and subscribe.
func (b *Backoff) Reset() {
	b.current = b.initial
}

// ForceMax jumps the schedule to the cap. Used when the node signals
// rate limiting: retrying sooner only digs the hole deeper.
func (b *Backoff) ForceMax() {
	b.current = b.max
}
