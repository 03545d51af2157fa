package tablefs

import (
	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheKey is the fixed-width key the lookup cache is addressed by:
// parent inode plus a 32-bit name hash (spec.md §4.4).
type cacheKey = [12]byte

// lookupCache is the striped LRU of directory Stats spec.md §4.4
// describes. Only interior (directory) components visited by the
// resolver are ever cached — the last path component is never cached,
// since it may not even be a directory.
//
// Each stripe is an independent hashicorp/golang-lru instance, which
// is already internally mutex-protected, so lookupCache itself holds
// no additional lock beyond picking the stripe.
type lookupCache struct {
	stripes []*lru.Cache[cacheKey, Stat]
	mask    uint64
}

// newLookupCache builds a cache with the given number of stripes and
// total capacity, split evenly across the stripes (at least one entry
// per stripe). capacity 0 disables caching entirely: Get always
// misses and Put/Erase are no-ops, matching size_lookup_cache=0 in
// spec.md §6.
func newLookupCache(stripes, capacity int) *lookupCache {
	if capacity <= 0 {
		return &lookupCache{}
	}
	if !isPowerOfTwo(stripes) {
		panic("tablefs: cache stripe count must be a power of two")
	}

	perStripe := capacity / stripes
	if perStripe < 1 {
		perStripe = 1
	}

	c := &lookupCache{
		stripes: make([]*lru.Cache[cacheKey, Stat], stripes),
		mask:    uint64(stripes - 1),
	}
	for i := range c.stripes {
		cache, err := lru.New[cacheKey, Stat](perStripe)
		if err != nil {
			// lru.New only errors on size <= 0, which perStripe can't be.
			panic(err)
		}
		c.stripes[i] = cache
	}
	return c
}

func (c *lookupCache) enabled() bool {
	return c.stripes != nil
}

func (c *lookupCache) stripeFor(key cacheKey) *lru.Cache[cacheKey, Stat] {
	i := xxhash.Sum64(key[:]) & c.mask
	return c.stripes[i]
}

// get returns the cached Stat for (parent, name), if present and coherent.
func (c *lookupCache) get(parent Ino, name string) (Stat, bool) {
	if !c.enabled() {
		return Stat{}, false
	}
	key := EncodeCacheKey(parent, name)
	return c.stripeFor(key).Get(key)
}

// put installs stat as the cached entry for (parent, name). Callers
// only ever cache directory Stats, per the coherence discipline in
// spec.md §4.4.
func (c *lookupCache) put(parent Ino, name string, stat Stat) {
	if !c.enabled() {
		return
	}
	key := EncodeCacheKey(parent, name)
	c.stripeFor(key).Add(key, stat)
}

// erase removes any cached entry for (parent, name). Callers must call
// this within the same stripe-locked region as the corresponding KV
// delete, per spec.md §4.4's coherence discipline.
func (c *lookupCache) erase(parent Ino, name string) {
	if !c.enabled() {
		return
	}
	key := EncodeCacheKey(parent, name)
	c.stripeFor(key).Remove(key)
}
