// SPDX-License-Identifier: MIT
package audio

import "audioviz/internal/analysis"

// Input feeds the mono mix of captured buffers to a Processor.
type Input struct {
	channels int
	mono     []float32
	proc     analysis.Processor
}

// NewInput prepares a capture callback for channels interleaved channels.
func NewInput(channels, framesPerBuffer int, proc analysis.Processor) *Input {
	return &Input{
		channels: max(channels, 1),
		mono:     make([]float32, framesPerBuffer),
		proc:     proc,
	}
}

// Callback is the input stream callback.
// Performance Critical (Hot Path):
// - Uses pre-allocated buffers only
func (in *Input) Callback(buf []float32) {
	n := downmix(in.mono, buf, in.channels)
	in.proc.Process(in.mono[:n])
}
