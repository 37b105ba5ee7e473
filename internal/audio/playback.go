// SPDX-License-Identifier: MIT
package audio

import (
	"sync/atomic"

	"audioviz/internal/analysis"
)

// Playback renders an interleaved sample buffer to an output stream and feeds
// the mono mix of every rendered buffer to a Processor.
type Playback struct {
	samples  []float32 // Interleaved, normalized to [-1, 1].
	channels int
	frames   int64

	pos  atomic.Int64 // Next frame to render.
	mono []float32    // Downmix scratch.
	proc analysis.Processor

	finished atomic.Bool
	done     chan struct{}
}

// NewPlayback prepares playback of samples. framesPerBuffer sizes the downmix
// scratch and must match the stream's buffer size.
func NewPlayback(samples []float32, channels, framesPerBuffer int, proc analysis.Processor) *Playback {
	channels = max(channels, 1)
	return &Playback{
		samples:  samples,
		channels: channels,
		frames:   int64(len(samples) / channels),
		mono:     make([]float32, framesPerBuffer),
		proc:     proc,
		done:     make(chan struct{}),
	}
}

// Callback is the output stream callback.
// Performance Critical (Hot Path):
// - Uses pre-allocated buffers only
// - Position is published atomically
func (p *Playback) Callback(out []float32) {
	start := p.pos.Load()
	want := int64(len(out) / p.channels)
	count := max(min(want, p.frames-start), 0)

	lo, hi := start*int64(p.channels), (start+count)*int64(p.channels)
	n := copy(out, p.samples[lo:hi])
	clear(out[n:])

	if count > 0 {
		p.pos.Store(start + count)
		if p.proc != nil {
			m := downmix(p.mono, out[:n], p.channels)
			p.proc.Process(p.mono[:m])
		}
	}

	if start+count >= p.frames && p.finished.CompareAndSwap(false, true) {
		close(p.done)
	}
}

// Done is closed once the final frame has been rendered.
func (p *Playback) Done() <-chan struct{} {
	return p.done
}

// Position returns the next frame to be rendered.
func (p *Playback) Position() int64 {
	return p.pos.Load()
}

// Frames returns the total number of frames.
func (p *Playback) Frames() int64 {
	return p.frames
}
