package pipeline

// Dedup cache sizing.
const (
	DefaultDedupCapacity = 1000
	DefaultDedupEvict    = 100
)

// SignatureCache remembers recently seen transaction signatures so
// duplicate notifications are processed once. When the cache fills, the
// oldest entries are evicted in a batch. Not safe for concurrent use.
type SignatureCache struct {
	capacity int
	evict    int
	seen     map[string]bool
	order    []string
}

// NewSignatureCache creates a SignatureCache. Zero arguments select
// the defaults.
func NewSignatureCache(capacity, evict int) *SignatureCache {
	if capacity <= 0 {
		capacity = DefaultDedupCapacity
	}
	if evict <= 0 || evict > capacity {
		evict = DefaultDedupEvict
	}
	return &SignatureCache{
		capacity: capacity,
		evict:    evict,
		seen:     make(map[string]bool, capacity),
	}
}

// Seen records the signature and reports whether it was already
// present.
func (c *SignatureCache) Seen(signature string) bool {
	if c.seen[signature] {
		return true
	}

	if len(c.order) >= c.capacity {
		for _, old := range c.order[:c.evict] {
			delete(c.seen, old)
		}
		c.order = c.order[c.evict:]
	}

	c.seen[signature] = true
	c.order = append(c.order, signature)
	return false
}

// Len returns the number of cached signatures.
func (c *SignatureCache) Len() int {
	return len(c.seen)
}
