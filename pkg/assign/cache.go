package assign

// relationCache is a bounded memoization table over settled assignability
// verdicts, keyed by (source, target) pointer identity. Modeled on
// original_source/src/type_relations.rs's TypeRelationCache (an LRU over
// type-address pairs, tracking hit/miss counts), but hand-rolled rather
// than backed by a third-party LRU package: neither the teacher's go.mod
// nor any other example repo in the retrieval pack imports an LRU library,
// so there is nothing in the corpus to reach for here. Eviction is FIFO
// rather than true LRU (simpler, and adequate for a checker whose relation
// pairs are dominated by structural recursion rather than a long tail of
// one-off comparisons), which is the one deliberate simplification from
// the Rust prototype.
type relationCache struct {
	capacity int
	entries  map[pairKey]Result
	order    []pairKey
	hits     uint64
	misses   uint64
}

func newRelationCache(capacity int) *relationCache {
	return &relationCache{capacity: capacity, entries: make(map[pairKey]Result, capacity)}
}

func (rc *relationCache) get(key pairKey) (Result, bool) {
	v, ok := rc.entries[key]
	if ok {
		rc.hits++
	} else {
		rc.misses++
	}
	return v, ok
}

func (rc *relationCache) put(key pairKey, result Result) {
	if _, exists := rc.entries[key]; exists {
		rc.entries[key] = result
		return
	}
	if len(rc.order) >= rc.capacity {
		oldest := rc.order[0]
		rc.order = rc.order[1:]
		delete(rc.entries, oldest)
	}
	rc.entries[key] = result
	rc.order = append(rc.order, key)
}

// HitRate reports the cache's cumulative hit ratio, surfaced through the
// checker session's Metrics snapshot.
func (rc *relationCache) HitRate() float64 {
	total := rc.hits + rc.misses
	if total == 0 {
		return 0
	}
	return float64(rc.hits) / float64(total)
}

// Stats exposes the cache's hit/miss counters for the session Metrics
// object (see pkg/checker's phase orchestrator).
func (c *Checker) Stats() (hits, misses uint64, hitRate float64) {
	return c.cache.hits, c.cache.misses, c.cache.HitRate()
}
