package approx

// Filter is the approximate membership contract shared by Set, SyncSet and
// ShardedSet.
type Filter[T any] interface {
	// Insert records v. It returns true if v was definitely not in the set
	// before the call and false if it possibly was.
	Insert(v T) bool
	// PossiblyContains returns false only if v was never inserted.
	PossiblyContains(v T) bool
}

var (
	_ Filter[string] = (*Set[string])(nil)
	_ Filter[string] = (*SyncSet[string])(nil)
	_ Filter[string] = (*ShardedSet[string])(nil)
)

// Set is a non-thread-safe approximate set that retains only the 64-bit hash
// code of each inserted value.
//
// Two distinct values whose codes collide are indistinguishable, which is the
// only source of false positives. Codes are never removed, so memory grows
// with the number of distinct codes inserted.
type Set[T any] struct {
	codes map[uint64]struct{}
	seed  Seed
	hash  Hasher[T]
}

// New creates an empty set with a freshly randomized seed and the default
// hasher for T.
func New[T comparable]() *Set[T] {
	return NewWithHasher(DefaultHasher[T]())
}

// NewWithHasher creates an empty set with a freshly randomized seed that
// hashes values with h. It panics if h is nil.
func NewWithHasher[T any](h Hasher[T]) *Set[T] {
	return newSet(NewSeed(), h)
}

func newSet[T any](seed Seed, h Hasher[T]) *Set[T] {
	if h == nil {
		panic("approx: nil hasher")
	}
	return &Set[T]{
		codes: make(map[uint64]struct{}),
		seed:  seed,
		hash:  h,
	}
}

// Insert adds the code of v to the set. It returns true if that code was not
// present before, meaning v was definitely not in the set. It returns false if
// v was possibly already in the set, either because it was inserted before or
// because a different value shares its code.
func (s *Set[T]) Insert(v T) bool {
	return s.insertCode(s.hashOf(v))
}

// insertCode adds code and reports whether it was newly added.
func (s *Set[T]) insertCode(code uint64) bool {
	if _, ok := s.codes[code]; ok {
		return false
	}
	s.codes[code] = struct{}{}
	return true
}

// PossiblyContains returns true if the set might contain v, and false if it
// definitely does not. False positives are possible, false negatives are not.
func (s *Set[T]) PossiblyContains(v T) bool {
	return s.containsCode(s.hashOf(v))
}

func (s *Set[T]) containsCode(code uint64) bool {
	_, ok := s.codes[code]
	return ok
}

// hashOf returns the code of v under the set's seed.
func (s *Set[T]) hashOf(v T) uint64 {
	return s.hash(s.seed, v)
}
