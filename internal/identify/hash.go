package identify

import (
	"fmt"
	"strings"
)

// Hash is a binary fingerprint of a descriptor: one bit per leading
// component, packed MSB-first into 64-bit words. Bits beyond Len are
// always zero.
type Hash struct {
	Bits []uint64
	Len  int
}

// Encode derives a binary fingerprint from the first min(hashBits, len(d))
// components of a descriptor. Each component contributes one bit: 1 if it
// is greater than or equal to the arithmetic mean of the considered
// components, 0 otherwise, preserving component order.
//
// Descriptors that are close in their leading coordinates tend to produce
// hashes with small Hamming distance. This is an approximation used for
// prefiltering, not a collision-resistant hash.
func Encode(d Descriptor, hashBits int) Hash {
	n := min(hashBits, len(d))
	if n <= 0 {
		return Hash{}
	}

	var sum float64
	for i := range n {
		sum += float64(d[i])
	}
	mean := sum / float64(n)

	words := make([]uint64, (n+63)/64)
	for i := range n {
		// All-equal input degenerates to all ones, per the >= rule.
		if float64(d[i]) >= mean {
			words[i/64] |= 1 << (63 - i%64)
		}
	}

	return Hash{Bits: words, Len: n}
}

// Bit reports whether bit i is set. Out-of-range positions read as zero.
func (h Hash) Bit(i int) bool {
	if i < 0 || i >= h.Len {
		return false
	}
	return h.Bits[i/64]&(1<<(63-i%64)) != 0
}

// String renders the hash as hex, one 16-digit group per word.
func (h Hash) String() string {
	if h.Len == 0 {
		return ""
	}
	var sb strings.Builder
	for _, w := range h.Bits {
		fmt.Fprintf(&sb, "%016x", w)
	}
	return sb.String()
}

// HammingDistance counts differing bit positions over the first
// min(a.Len, b.Len) positions. Comparing hashes produced by different
// encoder configurations is a caller error that is not detected here.
func HammingDistance(a, b Hash) int {
	n := min(a.Len, b.Len)
	distance := 0
	for i := 0; i*64 < n; i++ {
		xor := a.Bits[i] ^ b.Bits[i]
		if rem := n - i*64; rem < 64 {
			xor &= ^uint64(0) << (64 - rem)
		}
		for xor != 0 {
			distance++
			xor &= xor - 1 // clear lowest set bit
		}
	}
	return distance
}

// WithinDistance reports whether two hashes are within the given Hamming
// distance threshold.
func WithinDistance(a, b Hash, threshold int) bool {
	return HammingDistance(a, b) <= threshold
}
