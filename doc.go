// Package approx provides approximate set membership backed by a set of
// 64-bit hash codes.
//
// An approximate set answers "definitely absent" or "possibly present" for
// any hashable value. False positive matches are possible, but false
// negatives are not – if the set says a value is not present, it definitely
// was never inserted.
//
// # How It Works
//
// A set never stores the values inserted into it. Each value is hashed to a
// 64-bit code under a seed that is randomized when the set is created, and
// only the code is retained. Two different values that hash to the same code
// become indistinguishable; that collision is the only source of false
// positives.
//
// Unlike a classic bloom filter there is no bit array and no k hash
// functions. The false positive rate is not a parameter: it follows from the
// 64-bit birthday bound and is tiny for any realistic number of values.
// Memory grows linearly with the number of distinct codes and is never
// reclaimed. Values cannot be removed.
//
// # Implementations
//
// [Set] is the fastest option for single-threaded workloads. It has no
// synchronization.
//
// [SyncSet] guards a Set with a read-write mutex. Lookups run in parallel,
// inserts are serialized.
//
// [ShardedSet] routes codes to independently locked shards to reduce
// contention under heavy parallel writes. The shard count is auto-tuned to
// GOMAXPROCS by [NewShardedDefault].
//
// All three implement [Filter]. Package
// github.com/jcalabro/approx/redisset keeps the codes in a Redis set instead
// of process memory.
//
// # Hashing
//
// [New] picks a hasher for T with [DefaultHasher]: seeded xxh3 for strings
// and integer types, [hash/maphash.Comparable] for any other comparable
// type. Use [NewWithHasher] for types that are not comparable, such as
// []byte with [Bytes]:
//
//	s := approx.NewWithHasher(approx.Bytes)
//	s.Insert([]byte("hello"))
//
// A custom [Hasher] must be deterministic and must give equal codes to
// values the caller considers equal.
//
// Every set gets its own random [Seed], so two sets collide on different
// values and collisions cannot be predicted across runs.
//
// # Insert Semantics
//
// Insert returns true when the value's code was not present before, which
// means the value was definitely new. It returns false when the value was
// possibly present already. This makes Insert usable as a one-step
// "seen before?" check for deduplication.
//
// # False Positive Rate
//
// Use [EstimateFalsePositiveRate] to compute the probability that a value
// never inserted is reported as present after n distinct codes have been
// retained. For n = 1e9 it is about 5.4e-11.
//
// # Thread Safety
//
// [Set] is NOT thread-safe. Use external synchronization or choose
// [SyncSet] or [ShardedSet] for concurrent access.
package approx
