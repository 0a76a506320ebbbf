package filter

import (
	"sync"
	"time"
)

// Signal is one observed on-chain event for a token.
type Signal struct {
	Type string
	At   time.Time
}

// SignalWindow tracks recent signals per token and counts distinct
// signal types inside a rolling window. Safe for concurrent use.
type SignalWindow struct {
	mu     sync.Mutex
	window time.Duration
	byMint map[string][]Signal
	now    func() time.Time
}

// NewSignalWindow creates a SignalWindow with the given retention.
func NewSignalWindow(window time.Duration) *SignalWindow {
	return &SignalWindow{
		window: window,
		byMint: make(map[string][]Signal),
		now:    time.Now,
	}
}

// Observe records a signal for the token and returns the number of
// distinct signal types seen within the window, including this one.
// Expired signals are pruned before the new one is added.
func (w *SignalWindow) Observe(tokenMint, signalType string) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	cutoff := now.Add(-w.window)

	kept := w.byMint[tokenMint][:0]
	for _, s := range w.byMint[tokenMint] {
		// Only signals strictly older than the window expire; one
		// exactly at the boundary still counts.
		if !s.At.Before(cutoff) {
			kept = append(kept, s)
		}
	}
	kept = append(kept, Signal{Type: signalType, At: now})
	w.byMint[tokenMint] = kept

	types := make(map[string]bool, len(kept))
	for _, s := range kept {
		types[s.Type] = true
	}
	return len(types)
}
