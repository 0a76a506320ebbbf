package filter

import (
	"testing"
	"time"
)

func TestSignalWindow_DistinctTypes(t *testing.T) {
	w := NewSignalWindow(30 * time.Minute)

	if n := w.Observe("mint1", "lp_add"); n != 1 {
		t.Errorf("expected 1 distinct type, got %d", n)
	}
	if n := w.Observe("mint1", "lp_add"); n != 1 {
		t.Errorf("repeat of same type: expected 1, got %d", n)
	}
	if n := w.Observe("mint1", "pool_activity"); n != 2 {
		t.Errorf("expected 2 distinct types, got %d", n)
	}
}

func TestSignalWindow_PerToken(t *testing.T) {
	w := NewSignalWindow(30 * time.Minute)

	w.Observe("mint1", "lp_add")
	if n := w.Observe("mint2", "pool_activity"); n != 1 {
		t.Errorf("signals must not leak across tokens, got %d", n)
	}
}

func TestSignalWindow_Expiry(t *testing.T) {
	w := NewSignalWindow(30 * time.Minute)

	current := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return current }

	w.Observe("mint1", "lp_add")

	// Still inside the window.
	current = current.Add(29 * time.Minute)
	if n := w.Observe("mint1", "pool_activity"); n != 2 {
		t.Errorf("expected 2 types inside window, got %d", n)
	}

	// First signal falls out of the window.
	current = current.Add(2 * time.Minute)
	if n := w.Observe("mint1", "pool_activity"); n != 1 {
		t.Errorf("expected expired signal to be pruned, got %d", n)
	}
}

func TestSignalWindow_BoundarySignalKept(t *testing.T) {
	w := NewSignalWindow(30 * time.Minute)

	current := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return current }

	w.Observe("mint1", "lp_add")

	// Exactly window old: not strictly older, still counts.
	current = current.Add(30 * time.Minute)
	if n := w.Observe("mint1", "pool_activity"); n != 2 {
		t.Errorf("expected signal exactly at the window boundary to count, got %d", n)
	}
}
