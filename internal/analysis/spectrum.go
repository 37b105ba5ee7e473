// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"
	"math"
	"strings"

	applog "audioviz/internal/log"
	"audioviz/pkg/bitint"

	vecmath "github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// WindowFunc defines the type for selecting an FFT window function.
type WindowFunc int

// Enum for available window functions.
const (
	BartlettHann WindowFunc = iota
	Blackman
	BlackmanNuttall
	Hann
	Hamming
	Lanczos
	Nuttall
)

var windowNames = [...]string{
	BartlettHann:    "BartlettHann",
	Blackman:        "Blackman",
	BlackmanNuttall: "BlackmanNuttall",
	Hann:            "Hann",
	Hamming:         "Hamming",
	Lanczos:         "Lanczos",
	Nuttall:         "Nuttall",
}

func (w WindowFunc) String() string {
	if w < 0 || int(w) >= len(windowNames) {
		return fmt.Sprintf("WindowFunc(%d)", int(w))
	}
	return windowNames[w]
}

const (
	DefaultFFTSize = 2048
	DefaultFloorDB = -80.0
	MaxFFTSize     = 16384
)

// ErrFFTSize is returned by NewEngine when the transform length is unusable.
var ErrFFTSize = errors.New("invalid fft size")

// TransformConfig is fixed for the lifetime of an Engine.
type TransformConfig struct {
	FFTSize int        // Transform length, a power of two.
	Window  WindowFunc // Applied to every input block.
	FloorDB float64    // Level mapped to 0; 0 dB maps to 1.

	// FullScale references levels to a full-scale sine centred on a bin
	// instead of unit power, so such a sine reads 0 dB.
	FullScale bool
}

// DefaultTransformConfig returns a 2048 point Hann transform with a -80 dB floor.
func DefaultTransformConfig() TransformConfig {
	return TransformConfig{
		FFTSize: DefaultFFTSize,
		Window:  Hann,
		FloorDB: DefaultFloorDB,
	}
}

// Validate reports whether the configuration can build an Engine.
func (c TransformConfig) Validate() error {
	if !bitint.IsPowerOfTwo(c.FFTSize) {
		return fmt.Errorf("%w: %d is not a power of two", ErrFFTSize, c.FFTSize)
	}
	if c.FFTSize < 2*BandCount || c.FFTSize > MaxFFTSize {
		return fmt.Errorf("%w: %d outside [%d, %d]", ErrFFTSize, c.FFTSize, 2*BandCount, MaxFFTSize)
	}
	if c.FloorDB >= 0 || math.IsNaN(c.FloorDB) {
		return fmt.Errorf("floor must be a negative dB value, got %g", c.FloorDB)
	}
	return nil
}

// Engine turns a block of mono samples into BandCount normalized band levels.
// All buffers are allocated by NewEngine; Transform does not allocate. An
// Engine carries no state between calls but its scratch space is shared, so
// it must not be used from more than one goroutine at a time.
type Engine struct {
	cfg           TransformConfig
	half          int // Bins kept from the transform, FFTSize/2.
	bandsPerGroup int
	refDB         float64 // Subtracted from every bin level.

	fft    *fourier.FFT
	window []float64    // Precomputed window coefficients.
	input  []float64    // Windowed, zero padded input.
	coeffs []complex128 // Transform output, FFTSize/2+1 values.
	re     []float64
	im     []float64
	power  []float64
}

// NewEngine precomputes the window and allocates the transform workspace.
func NewEngine(cfg TransformConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	half := cfg.FFTSize / 2
	coeffs := make([]float64, cfg.FFTSize)
	applyWindow(coeffs, cfg.Window)

	var refDB float64
	if cfg.FullScale {
		// A unit sine centred on a bin has magnitude sum(window)/2.
		var sum float64
		for _, w := range coeffs {
			sum += w
		}
		refDB = 20 * math.Log10(sum/2)
	}

	applog.Debugf("analysis: engine ready (size %d, window %s, floor %.1f dB, reference %.1f dB)", cfg.FFTSize, cfg.Window, cfg.FloorDB, refDB)

	return &Engine{
		cfg:           cfg,
		half:          half,
		bandsPerGroup: half / BandCount,
		refDB:         refDB,
		fft:           fourier.NewFFT(cfg.FFTSize),
		window:        coeffs,
		input:         make([]float64, cfg.FFTSize),
		coeffs:        make([]complex128, half+1),
		re:            make([]float64, half),
		im:            make([]float64, half),
		power:         make([]float64, half),
	}, nil
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() TransformConfig { return e.cfg }

// Transform writes the band levels of samples into dst. Only the first
// frameCount samples are used, capped at the transform length; the remainder
// of the block is zero padded. Silence yields all zeros.
func (e *Engine) Transform(dst *[BandCount]float64, samples []float32, frameCount int) {
	n := min(frameCount, len(samples), e.cfg.FFTSize)
	n = max(n, 0)

	for i := range n {
		e.input[i] = float64(samples[i])
	}
	clear(e.input[n:])
	vecmath.MulBlockInPlace(e.input, e.window)

	e.fft.Coefficients(e.coeffs, e.input)

	for i := range e.half {
		e.re[i] = real(e.coeffs[i])
		e.im[i] = imag(e.coeffs[i])
	}
	vecmath.Power(e.power, e.re, e.im)

	floor := e.cfg.FloorDB
	for i, p := range e.power {
		level := 10*math.Log10(p) - e.refDB
		// Catches -Inf from empty bins as well as NaN.
		if !(level > floor) {
			level = floor
		}
		e.power[i] = level
	}

	for b := range BandCount {
		lo, hi := e.BandRange(b)
		var sum float64
		for _, level := range e.power[lo:hi] {
			sum += level
		}
		mean := sum / float64(hi-lo)
		dst[b] = clamp01((mean - floor) / -floor)
	}
}

// BandRange returns the half-open range of transform bins averaged into band b.
// The last band absorbs any bins left over by the integer division.
func (e *Engine) BandRange(b int) (lo, hi int) {
	if b < 0 || b >= BandCount {
		return 0, 0
	}
	lo = b * e.bandsPerGroup
	hi = lo + e.bandsPerGroup
	if b == BandCount-1 {
		hi = e.half
	}
	return lo, hi
}

// BinFrequency returns the centre frequency in Hz of a transform bin.
func (e *Engine) BinFrequency(bin int, sampleRate float64) float64 {
	if bin < 0 || bin > e.half {
		return 0
	}
	return float64(bin) * sampleRate / float64(e.cfg.FFTSize)
}

// BandFrequency returns the lower edge in Hz of band b.
func (e *Engine) BandFrequency(b int, sampleRate float64) float64 {
	lo, _ := e.BandRange(b)
	return e.BinFrequency(lo, sampleRate)
}

// ParseWindowFunc converts a string name (case-insensitive) to a WindowFunc
// enum, returns a known default (Hann) and an error if the name is unknown.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bartletthann":
		return BartlettHann, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "hann", "hanning", "":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	default:
		return Hann, fmt.Errorf("unknown FFT window function name: '%s'", name)
	}
}

// applyWindow fills coeffs with the selected window. Unknown types fall back
// to Hann.
func applyWindow(coeffs []float64, windowType WindowFunc) {
	// The gonum window functions scale in place.
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch windowType {
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case Hann:
		window.Hann(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	default:
		applog.Warnf("analysis: unknown window function type %d, defaulting to Hann", windowType)
		window.Hann(coeffs)
	}
}
