package approx

import (
	"encoding/binary"
	"hash/maphash"
	"math/rand/v2"

	"github.com/zeebo/xxh3"
	"golang.org/x/exp/constraints"
)

// Seed is the randomized hashing configuration of a single set. It is fixed
// for the lifetime of the set that owns it.
type Seed struct {
	key uint64       // xxh3 seed for strings, bytes and integers
	mh  maphash.Seed // maphash seed for other comparable types
}

// NewSeed returns a freshly randomized seed. Every call produces an
// independent seed, so collision patterns differ between sets.
func NewSeed() Seed {
	return Seed{
		key: rand.Uint64(),
		mh:  maphash.MakeSeed(),
	}
}

// Hasher derives the 64-bit code of a value under a seed. Implementations
// must be deterministic: the same seed and the same logical value always
// produce the same code.
type Hasher[T any] func(seed Seed, v T) uint64

// String hashes a string with seeded xxh3 without allocating.
func String(seed Seed, s string) uint64 {
	return xxh3.HashStringSeed(s, seed.key)
}

// Bytes hashes a byte slice with seeded xxh3.
func Bytes(seed Seed, b []byte) uint64 {
	return xxh3.HashSeed(b, seed.key)
}

// Integer hashes any integer type by its 8-byte little-endian representation.
// Signed values are sign-extended, so int8(-1) and int64(-1) share a code.
func Integer[T constraints.Integer](seed Seed, v T) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	return xxh3.HashSeed(buf[:], seed.key)
}

// Comparable hashes any comparable value with hash/maphash. Values that are
// == produce the same code.
func Comparable[T comparable](seed Seed, v T) uint64 {
	return maphash.Comparable(seed.mh, v)
}

// DefaultHasher picks the hasher New uses for T: xxh3 for strings and the
// predeclared integer types, maphash for everything else. Named types (for
// example type ID string) fall through to maphash.
func DefaultHasher[T comparable]() Hasher[T] {
	var zero T
	var h any
	switch any(zero).(type) {
	case string:
		h = Hasher[string](String)
	case int:
		h = Hasher[int](Integer[int])
	case int8:
		h = Hasher[int8](Integer[int8])
	case int16:
		h = Hasher[int16](Integer[int16])
	case int32:
		h = Hasher[int32](Integer[int32])
	case int64:
		h = Hasher[int64](Integer[int64])
	case uint:
		h = Hasher[uint](Integer[uint])
	case uint8:
		h = Hasher[uint8](Integer[uint8])
	case uint16:
		h = Hasher[uint16](Integer[uint16])
	case uint32:
		h = Hasher[uint32](Integer[uint32])
	case uint64:
		h = Hasher[uint64](Integer[uint64])
	case uintptr:
		h = Hasher[uintptr](Integer[uintptr])
	default:
		return Comparable[T]
	}
	return h.(Hasher[T])
}
