// Package memo is a bounded, sharded LRU memo for font metric lookups.
//
// Shaping a rune pair is far more expensive than a map lookup, and the set
// of (pair, size) keys grows without limit in long-running programs. Memo
// keeps the most recently used results and spreads keys over shards so
// concurrent layouts rarely contend on the same lock.
package memo

import (
	"hash/maphash"
	"sync"
	"sync/atomic"

	"github.com/gogpu/glyphcache/internal/lru"
)

const (
	// ShardCount is the number of shards. Must be a power of 2.
	ShardCount = 16

	// DefaultCapacity is the default maximum entries per shard.
	DefaultCapacity = 256

	shardMask = ShardCount - 1
)

// Stats reports memo activity.
type Stats struct {
	Len       int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Memo maps keys to computed values, evicting the least recently used
// entry of a shard when it is full. It is safe for concurrent use.
type Memo[K comparable, V any] struct {
	seed     maphash.Seed
	shards   [ShardCount]*shard[K, V]
	capacity int // per shard

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type shard[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[K, V]
	order   *lru.List[K]
}

type entry[K comparable, V any] struct {
	value V
	node  *lru.Node[K]
}

// New creates a memo holding up to capacity entries per shard.
// If capacity <= 0, DefaultCapacity is used.
func New[K comparable, V any](capacity int) *Memo[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	m := &Memo[K, V]{
		seed:     maphash.MakeSeed(),
		capacity: capacity,
	}
	for i := range m.shards {
		m.shards[i] = &shard[K, V]{
			entries: make(map[K]*entry[K, V]),
			order:   lru.New[K](),
		}
	}
	return m
}

func (m *Memo[K, V]) shardFor(key K) *shard[K, V] {
	return m.shards[maphash.Comparable(m.seed, key)&shardMask]
}

// GetOrCompute returns the value for key, calling compute on a miss.
// compute runs with the shard locked, so concurrent callers asking for the
// same key compute it once. It must not use the memo.
func (m *Memo[K, V]) GetOrCompute(key K, compute func() V) V {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		s.order.MoveToFront(e.node)
		m.hits.Add(1)
		return e.value
	}
	m.misses.Add(1)

	v := compute()
	m.insert(s, key, v)
	return v
}

// insert must be called with s.mu held.
func (m *Memo[K, V]) insert(s *shard[K, V], key K, value V) {
	for s.order.Len() >= m.capacity {
		oldest, ok := s.order.RemoveOldest()
		if !ok {
			break
		}
		delete(s.entries, oldest)
		m.evictions.Add(1)
	}
	s.entries[key] = &entry[K, V]{value: value, node: s.order.PushFront(key)}
}

// Len returns the number of entries across all shards.
func (m *Memo[K, V]) Len() int {
	total := 0
	for _, s := range m.shards {
		s.mu.Lock()
		total += len(s.entries)
		s.mu.Unlock()
	}
	return total
}

// Stats returns the current counters.
func (m *Memo[K, V]) Stats() Stats {
	return Stats{
		Len:       m.Len(),
		Hits:      m.hits.Load(),
		Misses:    m.misses.Load(),
		Evictions: m.evictions.Load(),
	}
}
