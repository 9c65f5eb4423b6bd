package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jcalabro/approx"
)

var (
	// errUnknownVariant is returned for a --variant that names no set type.
	errUnknownVariant = errors.New("analysis: unknown variant")

	// errBadBits is returned when --bits is outside 1..64.
	errBadBits = errors.New("analysis: bits must be between 1 and 64")

	// errBadRuns is returned when --runs is below 1.
	errBadRuns = errors.New("analysis: runs must be at least 1")

	// errFalseNegative means an inserted key was reported absent. It can only
	// come from a broken set implementation or backend.
	errFalseNegative = errors.New("analysis: false negative")
)

// membership is the surface an experiment drives. In-memory sets are adapted
// to it with local; redisset.Set satisfies it directly.
type membership interface {
	Insert(ctx context.Context, key string) (bool, error)
	PossiblyContains(ctx context.Context, key string) (bool, error)
}

// local adapts an in-memory approx.Filter to membership.
type local struct {
	f approx.Filter[string]
}

func (l local) Insert(_ context.Context, key string) (bool, error) {
	return l.f.Insert(key), nil
}

func (l local) PossiblyContains(_ context.Context, key string) (bool, error) {
	return l.f.PossiblyContains(key), nil
}

// truncated returns a string hasher that keeps only the low bits of each
// code, so collisions become frequent enough to observe.
func truncated(bits uint) (approx.Hasher[string], error) {
	if bits == 0 || bits > approx.CodeBits {
		return nil, fmt.Errorf("%w: got %d", errBadBits, bits)
	}
	if bits == approx.CodeBits {
		return approx.String, nil
	}
	mask := uint64(1)<<bits - 1
	return func(seed approx.Seed, s string) uint64 {
		return approx.String(seed, s) & mask
	}, nil
}

// newFilter builds the in-memory set named by variant.
func newFilter(variant string, h approx.Hasher[string]) (approx.Filter[string], error) {
	switch variant {
	case "set":
		return approx.NewWithHasher(h), nil
	case "sync":
		return approx.NewSyncWithHasher(h), nil
	case "sharded":
		return approx.NewShardedWithHasher(h, 0), nil
	default:
		return nil, fmt.Errorf("%w: %q (want set, sync or sharded)", errUnknownVariant, variant)
	}
}

type experimentConfig struct {
	Items  uint64
	Probes uint64
	Bits   uint
}

type result struct {
	Run            int
	Items          uint64 // keys inserted
	New            uint64 // inserts that reported a new code
	Probes         uint64 // keys probed that were never inserted
	FalsePositives uint64
	Bits           uint
}

// ObservedRate is the fraction of probes reported as possibly present.
func (r result) ObservedRate() float64 {
	if r.Probes == 0 {
		return 0
	}
	return float64(r.FalsePositives) / float64(r.Probes)
}

// EstimatedRate is the expected false positive rate for the number of
// distinct codes actually retained.
func (r result) EstimatedRate() float64 {
	return approx.EstimateFalsePositiveRateBits(r.New, r.Bits)
}

func insertKey(i uint64) string {
	return "item-" + strconv.FormatUint(i, 10)
}

func probeKey(i uint64) string {
	return "probe-" + strconv.FormatUint(i, 10)
}

// runExperiment inserts cfg.Items keys, confirms none of them reads back as
// absent, then probes cfg.Probes keys that were never inserted. Every probe
// reported present is a false positive.
func runExperiment(ctx context.Context, m membership, cfg experimentConfig) (result, error) {
	res := result{Items: cfg.Items, Probes: cfg.Probes, Bits: cfg.Bits}

	for i := range cfg.Items {
		added, err := m.Insert(ctx, insertKey(i))
		if err != nil {
			return res, err
		}
		if added {
			res.New++
		}
	}

	for i := range cfg.Items {
		key := insertKey(i)
		ok, err := m.PossiblyContains(ctx, key)
		if err != nil {
			return res, err
		}
		if !ok {
			return res, fmt.Errorf("%w: %s", errFalseNegative, key)
		}
	}

	for i := range cfg.Probes {
		ok, err := m.PossiblyContains(ctx, probeKey(i))
		if err != nil {
			return res, err
		}
		if ok {
			res.FalsePositives++
		}
	}

	return res, nil
}
