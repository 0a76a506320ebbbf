package pipeline

import (
	"fmt"
	"testing"
)

func TestSignatureCache_Seen(t *testing.T) {
	c := NewSignatureCache(10, 2)

	if c.Seen("sig1") {
		t.Error("first observation must not be seen")
	}
	if !c.Seen("sig1") {
		t.Error("second observation must be seen")
	}
	if c.Seen("sig2") {
		t.Error("distinct signature must not be seen")
	}
}

func TestSignatureCache_Eviction(t *testing.T) {
	c := NewSignatureCache(10, 3)

	for i := 0; i < 10; i++ {
		c.Seen(fmt.Sprintf("sig%d", i))
	}
	if c.Len() != 10 {
		t.Fatalf("expected 10 cached, got %d", c.Len())
	}

	// Next insert evicts the 3 oldest.
	c.Seen("sig10")
	if c.Len() != 8 {
		t.Errorf("expected 8 cached after eviction, got %d", c.Len())
	}

	// Oldest entries forgotten, recent ones kept.
	if c.Seen("sig0") {
		t.Error("evicted signature must read as unseen")
	}
	if !c.Seen("sig9") {
		t.Error("recent signature must remain seen")
	}
}

func TestSignatureCache_Defaults(t *testing.T) {
	c := NewSignatureCache(0, 0)

	for i := 0; i < DefaultDedupCapacity; i++ {
		c.Seen(fmt.Sprintf("sig%d", i))
	}
	c.Seen("overflow")

	if c.Len() != DefaultDedupCapacity-DefaultDedupEvict+1 {
		t.Errorf("unexpected size after default eviction: %d", c.Len())
	}
}
