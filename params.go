package approx

import "math"

// CodeBits is the width of the hash codes a set retains.
const CodeBits = 64

// EstimateFalsePositiveRate estimates the probability that a value never
// inserted is reported as possibly present, once itemsAdded distinct codes
// are retained.
// Formula: 1 - (1 - 2^-64)^n
func EstimateFalsePositiveRate(itemsAdded uint64) float64 {
	return EstimateFalsePositiveRateBits(itemsAdded, CodeBits)
}

// EstimateFalsePositiveRateBits is EstimateFalsePositiveRate for codes that
// are only bits wide. bits above 64 are treated as 64.
func EstimateFalsePositiveRateBits(itemsAdded uint64, bits uint) float64 {
	if itemsAdded == 0 {
		return 0
	}
	if bits == 0 {
		return 1
	}
	bits = min(bits, CodeBits)

	// Expm1/Log1p keep precision when 2^-bits is far below float64 epsilon.
	p := math.Ldexp(1, -int(bits))
	return -math.Expm1(float64(itemsAdded) * math.Log1p(-p))
}

// EstimateCollisionProbability estimates the birthday-bound probability that
// at least two of itemsAdded distinct values share a bits-wide code.
// Formula: 1 - e^(-n(n-1) / 2^(bits+1))
func EstimateCollisionProbability(itemsAdded uint64, bits uint) float64 {
	if itemsAdded < 2 {
		return 0
	}
	if bits == 0 {
		return 1
	}
	bits = min(bits, CodeBits)

	n := float64(itemsAdded)
	return -math.Expm1(-n * (n - 1) / math.Ldexp(1, int(bits)+1))
}
