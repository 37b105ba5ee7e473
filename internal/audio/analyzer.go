// SPDX-License-Identifier: MIT
/*
Package audio connects audio streams to the analysis pipeline:
- Analyzer turns each hardware buffer into a published frame
- Playback renders a decoded track and analyzes what it plays
- Input analyzes a live capture device
- PortAudio implements the stream Backend

Thread Safety:
- Callbacks run on the audio thread and only touch preallocated buffers
- Positions and completion flags are atomics
- Nothing in a callback blocks, allocates or logs
*/
package audio

import (
	"fmt"

	"audioviz/internal/analysis"
)

// Analyzer runs the amplitude meter and the spectral transform over each
// buffer and publishes the result. One Analyzer serves one stream at a time.
type Analyzer struct {
	engine *analysis.Engine
	gain   float64
	pub    analysis.FramePublisher
	frame  analysis.Frame // Scratch, copied by the publisher.
}

var _ analysis.Processor = (*Analyzer)(nil)

// NewAnalyzer builds the transform engine for cfg. gain scales the RMS value
// before it is clamped to [0, 1].
func NewAnalyzer(cfg analysis.TransformConfig, gain float64, pub analysis.FramePublisher) (*Analyzer, error) {
	if pub == nil {
		return nil, fmt.Errorf("analyzer requires a publisher")
	}
	if gain <= 0 {
		return nil, fmt.Errorf("amplitude gain must be positive, got %g", gain)
	}

	engine, err := analysis.NewEngine(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create transform engine: %w", err)
	}

	return &Analyzer{
		engine: engine,
		gain:   gain,
		pub:    pub,
	}, nil
}

// Process analyzes one mono buffer and publishes a frame. Empty buffers are
// ignored so the previous frame stays visible.
// Performance Critical (Hot Path):
// - No allocations
// - No locks
// - No I/O
func (a *Analyzer) Process(samples []float32) {
	if len(samples) == 0 {
		return
	}

	a.frame.Amplitude = analysis.Amplitude(samples, a.gain)
	a.engine.Transform(&a.frame.Bands, samples, len(samples))
	a.pub.Publish(&a.frame)
}

// Engine exposes the transform engine for frequency lookups.
func (a *Analyzer) Engine() *analysis.Engine {
	return a.engine
}

// downmix averages interleaved frames into dst and returns the frame count
// written, bounded by len(dst).
func downmix(dst, src []float32, channels int) int {
	if channels <= 1 {
		return copy(dst, src)
	}

	frames := min(len(src)/channels, len(dst))
	scale := 1 / float32(channels)
	for i := range frames {
		var sum float32
		base := i * channels
		for ch := range channels {
			sum += src[base+ch]
		}
		dst[i] = sum * scale
	}
	return frames
}
