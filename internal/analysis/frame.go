// SPDX-License-Identifier: MIT
package analysis

// BandCount is the number of spectral bands carried by every Frame.
const BandCount = 64

// Frame is one analysis result: an overall loudness value and the normalized
// energy of BandCount bands ordered from low to high frequency. Every value is
// in [0, 1]. Frame is a plain value, assigning it copies a full snapshot.
type Frame struct {
	Seq       uint64 // Publication sequence, 0 until the first publish.
	Amplitude float64
	Bands     [BandCount]float64
}

// IsZero reports whether the frame carries no signal.
func (f *Frame) IsZero() bool {
	if f.Amplitude != 0 {
		return false
	}
	for _, b := range f.Bands {
		if b != 0 {
			return false
		}
	}
	return true
}

// Peak returns the index and value of the loudest band.
func (f *Frame) Peak() (int, float64) {
	idx, peak := 0, f.Bands[0]
	for i := 1; i < BandCount; i++ {
		if f.Bands[i] > peak {
			idx, peak = i, f.Bands[i]
		}
	}
	return idx, peak
}
