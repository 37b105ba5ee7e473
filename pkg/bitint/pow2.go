/*
Package bitint holds the small power-of-two helpers used to size and validate
transform windows. All functions are branch-light, allocation-free and safe to
call from the audio callback.

Usage:

	// Reject an FFT size the real transform cannot plan
	if !bitint.IsPowerOfTwo(cfg.FFTSize) { ... }

	// Suggest the nearest usable size in an error message
	hint := bitint.NextPowerOfTwo(2000) // 2048

NextPowerOfTwo works on size-1 so that an exact power of two maps to itself:
for 8, bits.Len(7) is 3 and 1<<3 is 8. Without the subtraction bits.Len(8) is
4 and the result would double to 16.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of two >= size. Values <= 0 map to 1.
//
//	Input  Output
//	4      4
//	5      8
//	0      1
//	-1     1
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// PrevPowerOfTwo returns the largest power of two <= size. Values <= 0 map to 1.
func PrevPowerOfTwo(size int) int {
	if size <= 1 {
		return 1
	}
	return 1 << (bits.Len(uint(size)) - 1)
}

// IsPowerOfTwo reports whether n is a positive power of two. A power of two
// has exactly one bit set, so clearing its lowest set bit (n & (n-1)) leaves 0.
//
//	Input  Output  Binary
//	8      true    1000 & 0111 = 0000
//	7      false   0111 & 0110 = 0110
//	0      false   not positive
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// Log2 returns the base-2 logarithm of a power of two n, or -1 when n is
// not a power of two.
func Log2(n int) int {
	if !IsPowerOfTwo(n) {
		return -1
	}
	return bits.TrailingZeros(uint(n))
}
