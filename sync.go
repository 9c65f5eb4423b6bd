package approx

import (
	"runtime"
	"sync"
)

// SyncSet is a thread-safe Set guarded by a read-write mutex. Insert holds
// the write lock for the whole test-and-add, so its return value is exact
// even when goroutines race to insert the same value.
type SyncSet[T any] struct {
	mu  sync.RWMutex
	set *Set[T]
}

// NewSync creates an empty thread-safe set with the default hasher for T.
func NewSync[T comparable]() *SyncSet[T] {
	return NewSyncWithHasher(DefaultHasher[T]())
}

// NewSyncWithHasher creates an empty thread-safe set that hashes values with h.
func NewSyncWithHasher[T any](h Hasher[T]) *SyncSet[T] {
	return &SyncSet[T]{set: NewWithHasher(h)}
}

// Insert adds v to the set. See Set.Insert.
func (s *SyncSet[T]) Insert(v T) bool {
	// Hashing needs no lock: seed and hasher never change.
	code := s.set.hashOf(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.insertCode(code)
}

// PossiblyContains reports whether v might be in the set. It may run
// concurrently with Insert and other lookups.
func (s *SyncSet[T]) PossiblyContains(v T) bool {
	code := s.set.hashOf(v)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set.containsCode(code)
}

// cacheLineSize is the size of a CPU cache line in bytes.
const cacheLineSize = 64

// shard is one independently locked slice of a ShardedSet's codes.
type shard[T any] struct {
	mu  sync.RWMutex
	set *Set[T]
	_   [cacheLineSize]byte // keep neighbouring shard locks off one cache line
}

// ShardedSet is a thread-safe approximate set that distributes codes across
// multiple independently locked shards to reduce contention under parallel
// writes. All shards share one seed, so a value's code is computed once and
// routed consistently to the same shard.
type ShardedSet[T any] struct {
	shards    []shard[T]
	numShards uint64
	mask      uint64 // numShards - 1, for fast modulo
	seed      Seed
	hash      Hasher[T]
}

// NewSharded creates a sharded set with the default hasher for T.
// numShards is rounded up to a power of 2.
func NewSharded[T comparable](numShards uint64) *ShardedSet[T] {
	return NewShardedWithHasher(DefaultHasher[T](), numShards)
}

// NewShardedDefault creates a sharded set with a shard count tuned to the
// current GOMAXPROCS value (minimum 4).
func NewShardedDefault[T comparable]() *ShardedSet[T] {
	numShards := max(uint64(runtime.GOMAXPROCS(0)), 4)
	return NewSharded[T](numShards)
}

// NewShardedWithHasher creates a sharded set that hashes values with h.
// numShards is rounded up to a power of 2. It panics if h is nil.
func NewShardedWithHasher[T any](h Hasher[T], numShards uint64) *ShardedSet[T] {
	if h == nil {
		panic("approx: nil hasher")
	}

	// nextPowerOf2 always returns >= 1
	numShards = nextPowerOf2(numShards)

	// Every shard shares the seed so a code routes to one place.
	seed := NewSeed()
	shards := make([]shard[T], numShards)
	for i := range shards {
		shards[i].set = newSet(seed, h)
	}

	return &ShardedSet[T]{
		shards:    shards,
		numShards: numShards,
		mask:      numShards - 1,
		seed:      seed,
		hash:      h,
	}
}

// Insert adds v to the set. See Set.Insert.
func (s *ShardedSet[T]) Insert(v T) bool {
	code := s.hash(s.seed, v)
	sh := &s.shards[s.shardIndex(code)]

	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.set.insertCode(code)
}

// PossiblyContains reports whether v might be in the set.
func (s *ShardedSet[T]) PossiblyContains(v T) bool {
	code := s.hash(s.seed, v)
	sh := &s.shards[s.shardIndex(code)]

	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return sh.set.containsCode(code)
}

// shardIndex extracts the shard index from a code using bits 32 and up.
func (s *ShardedSet[T]) shardIndex(code uint64) uint64 {
	return (code >> 32) & s.mask
}

// NumShards returns the number of shards.
func (s *ShardedSet[T]) NumShards() uint64 {
	return s.numShards
}

// nextPowerOf2 returns the smallest power of 2 >= n.
func nextPowerOf2(n uint64) uint64 {
	if n == 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
