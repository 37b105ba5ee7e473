package utils

import "math"

// GenerateComplexWave returns a mono float32 buffer holding a 440Hz fundamental
// plus two harmonics, peaking at 0.9 of full scale.
func GenerateComplexWave(size int, sampleRate float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2
		buffer[i] = float32(signal * 0.9)
	}
	return buffer
}

// GenerateSineWave returns a mono float32 sine at frequency with the given
// peak amplitude (1.0 = full scale).
func GenerateSineWave(size int, sampleRate, frequency, amplitude float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = float32(math.Sin(2*math.Pi*frequency*t) * amplitude)
	}
	return buffer
}

// GenerateBinSine returns a full-scale sine whose frequency sits exactly on
// FFT bin `bin` for an fftSize-point transform.
func GenerateBinSine(fftSize, bin int) []float32 {
	buffer := make([]float32, fftSize)
	for i := range buffer {
		buffer[i] = float32(math.Sin(2 * math.Pi * float64(bin) * float64(i) / float64(fftSize)))
	}
	return buffer
}

// GenerateConstant returns a buffer filled with value.
func GenerateConstant(size int, value float32) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		buffer[i] = value
	}
	return buffer
}

// Interleave duplicates a mono buffer into channels interleaved channels.
func Interleave(mono []float32, channels int) []float32 {
	out := make([]float32, len(mono)*channels)
	for i, s := range mono {
		for ch := range channels {
			out[i*channels+ch] = s
		}
	}
	return out
}

// FindPeakBand returns the index of the largest value in values[startBin:endBin+1],
// clamping the range to the slice.
func FindPeakBand(values []float64, startBin, endBin int) int {
	if len(values) == 0 {
		return 0
	}

	if startBin < 0 {
		startBin = 0
	}

	if endBin >= len(values) {
		endBin = len(values) - 1
	}

	peakBin := startBin
	peakValue := values[startBin]

	for bin := startBin + 1; bin <= endBin; bin++ {
		if values[bin] > peakValue {
			peakValue = values[bin]
			peakBin = bin
		}
	}

	return peakBin
}
