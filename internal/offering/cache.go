package offering

import (
	"sort"
	"sync"
	"time"

	"github.com/mobiclear/mobiclear/internal/model"
)

// VerificationCache tracks digests of every valid offer this party has
// originated, bucketed by expiry truncated to the second. Buckets strictly
// before the current truncated time are purged in increasing key order
// before every use, so the cache bounds its own memory: it can never hold
// more than the offers still valid.
type VerificationCache struct {
	mu      sync.Mutex
	now     func() time.Time
	keys    []int64 // sorted ascending, unix seconds
	buckets map[int64]map[model.Digest]struct{}
}

// NewVerificationCache creates an empty cache using wall-clock time.
func NewVerificationCache() *VerificationCache {
	return &VerificationCache{
		now:     time.Now,
		buckets: make(map[int64]map[model.Digest]struct{}),
	}
}

// Record inserts each offer's digest into the bucket keyed by its truncated
// expiry and returns its argument unchanged, so call sites can record a
// freshly composed batch in passing.
func (c *VerificationCache) Record(offers []model.Offer) []model.Offer {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Purging here is not required for correctness, but keeps the cache as
	// small as possible when clients query often and sign rarely.
	c.purgeLocked()
	for _, offer := range offers {
		key := offer.ValidBefore.Truncate(time.Second).Unix()
		bucket, ok := c.buckets[key]
		if !ok {
			bucket = make(map[model.Digest]struct{})
			c.buckets[key] = bucket
			at := sort.Search(len(c.keys), func(i int) bool { return c.keys[i] >= key })
			c.keys = append(c.keys, 0)
			copy(c.keys[at+1:], c.keys[at:])
			c.keys[at] = key
		}
		bucket[offer.Digest()] = struct{}{}
	}
	return offers
}

// Verify reports whether the offer was originated by this party and has not
// expired. False is a hard refusal to countersign, not an error.
func (c *VerificationCache) Verify(offer model.Offer) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.purgeLocked()
	bucket, ok := c.buckets[offer.ValidBefore.Truncate(time.Second).Unix()]
	if !ok {
		return false
	}
	_, ok = bucket[offer.Digest()]
	return ok
}

// purgeLocked drops every bucket keyed strictly before the current
// truncated time. Keys are sorted, so eviction walks from the oldest and
// stops at the first non-expired key.
func (c *VerificationCache) purgeLocked() {
	// Keys were truncated on insert; truncate now too, giving the customer
	// one last chance within the expiry second.
	now := c.now().Truncate(time.Second).Unix()
	cut := 0
	for cut < len(c.keys) && c.keys[cut] < now {
		delete(c.buckets, c.keys[cut])
		cut++
	}
	c.keys = c.keys[cut:]
}
