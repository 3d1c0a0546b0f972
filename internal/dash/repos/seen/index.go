package seen

import (
	"sync"

	bitsbloom "github.com/bits-and-blooms/bloom/v3"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultFPRate is the Bloom prefilter target when none is given.
const DefaultFPRate = 0.01

// newLRU is swapped in tests to simulate construction failures.
var newLRU = func(size int, onEvict func(string, struct{})) (*lru.Cache[string, struct{}], error) {
	return lru.NewWithEvict(size, onEvict)
}

// Stats is a snapshot of index counters.
type Stats struct {
	Capacity   int    // configured capacity (0 for a disabled index)
	Size       int    // keys currently remembered
	Duplicates uint64 // Mark calls that found the key already present
	Fresh      uint64 // Mark calls that recorded a new key
	Skipped    uint64 // lookups answered by the prefilter alone
	Evictions  uint64 // keys dropped to stay within capacity
	Rebuilds   uint64 // prefilter rebuilds after eviction churn
}

// Index remembers the most recent event keys so that an event delivered by
// both the paginated fetch and the live stream is merged once.
//
// Lookups run bloom -> lru: a negative prefilter answer skips the exact
// index. Evicted keys stay set in the filter until enough churn accumulates
// to rebuild it from the live keys.
type Index struct {
	mu       sync.Mutex
	capacity int
	fpRate   float64
	bloom    *bitsbloom.BloomFilter
	keys     *lru.Cache[string, struct{}]
	churn    int
	stats    Stats
}

// New creates an Index remembering up to capacity keys. A capacity <= 0
// yields a disabled index that never reports duplicates.
func New(capacity int, fpRate float64) (*Index, error) {
	idx := &Index{capacity: capacity, fpRate: fpRate}
	if capacity <= 0 {
		return idx, nil
	}
	cache, err := newLRU(capacity, func(string, struct{}) {
		idx.stats.Evictions++
		idx.churn++
	})
	if err != nil {
		return nil, err
	}
	idx.keys = cache
	idx.bloom = idx.newFilter()
	return idx, nil
}

func (i *Index) newFilter() *bitsbloom.BloomFilter {
	m, k := size(uint64(i.capacity), i.fpRate)
	return bitsbloom.New(uint(m), uint(k))
}

// Mark records key and reports whether it had already been seen.
func (i *Index) Mark(key string) bool {
	if i.keys == nil {
		return false
	}
	i.mu.Lock()
	defer i.mu.Unlock()

	b := []byte(key)
	if !i.bloom.Test(b) {
		i.stats.Skipped++
	} else if _, ok := i.keys.Get(key); ok {
		i.stats.Duplicates++
		return true
	}

	i.stats.Fresh++
	i.bloom.Add(b)
	i.keys.Add(key, struct{}{})
	if i.churn >= i.capacity {
		i.rebuild()
	}
	return false
}

// Contains reports whether key is remembered without recording it.
func (i *Index) Contains(key string) bool {
	if i.keys == nil {
		return false
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.bloom.Test([]byte(key)) {
		i.stats.Skipped++
		return false
	}
	return i.keys.Contains(key)
}

// Len returns the number of remembered keys.
func (i *Index) Len() int {
	if i.keys == nil {
		return 0
	}
	return i.keys.Len()
}

// Reset forgets every key. Counters are kept.
func (i *Index) Reset() {
	if i.keys == nil {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.keys.Purge()
	i.bloom = i.newFilter()
	i.churn = 0
}

// Stats returns a snapshot of the counters.
func (i *Index) Stats() Stats {
	if i.keys == nil {
		return Stats{}
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	s := i.stats
	s.Capacity = i.capacity
	s.Size = i.keys.Len()
	return s
}

// rebuild replaces the prefilter with one holding only the live keys.
// Caller holds mu.
func (i *Index) rebuild() {
	bf := i.newFilter()
	for _, k := range i.keys.Keys() {
		bf.Add([]byte(k))
	}
	i.bloom = bf
	i.churn = 0
	i.stats.Rebuilds++
}
