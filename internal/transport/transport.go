// SPDX-License-Identifier: MIT
package transport

import (
	"errors"

	"audioviz/internal/analysis"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("transport closed")

// Transport delivers frames to something outside the process.
// Implementations should be thread-safe and must not block for long; the
// relay calls Send on every tick.
type Transport interface {
	Send(f *analysis.Frame) error
	Close() error
}

// FrameMessage is the JSON form of a frame.
type FrameMessage struct {
	Seq       uint64    `json:"seq"`
	Amplitude float64   `json:"amplitude"`
	Bands     []float64 `json:"bands"`
}

// NewFrameMessage copies f into a message.
func NewFrameMessage(f *analysis.Frame) FrameMessage {
	bands := make([]float64, len(f.Bands))
	copy(bands, f.Bands[:])
	return FrameMessage{
		Seq:       f.Seq,
		Amplitude: f.Amplitude,
		Bands:     bands,
	}
}
