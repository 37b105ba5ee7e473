// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"time"

	applog "audioviz/internal/log"

	"github.com/gordonklaus/portaudio"
)

// Stream is a running or stoppable audio stream. *portaudio.Stream satisfies it.
type Stream interface {
	Start() error
	Stop() error
	Close() error
}

// Finisher is implemented by streams that reach a natural end, such as file
// playback. Done is closed once the last sample has been rendered.
type Finisher interface {
	Done() <-chan struct{}
}

// StreamParams describes a stream to open.
type StreamParams struct {
	DeviceID        int // DefaultDevice for the host default.
	SampleRate      float64
	Channels        int
	FramesPerBuffer int
	LowLatency      bool
}

// Backend opens callback driven audio streams. Callbacks run on the audio
// thread and receive interleaved float32 buffers of FramesPerBuffer frames.
type Backend interface {
	OpenOutput(p StreamParams, callback func(out []float32)) (Stream, error)
	OpenInput(p StreamParams, callback func(in []float32)) (Stream, error)
}

// PortAudio is the Backend used outside tests. Initialize must have been
// called first.
type PortAudio struct{}

var _ Backend = PortAudio{}

// OpenOutput opens a playback stream on the configured output device.
func (PortAudio) OpenOutput(p StreamParams, callback func(out []float32)) (Stream, error) {
	device, err := OutputDevice(p.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("output device: %w", err)
	}

	latency := device.DefaultHighOutputLatency
	if p.LowLatency {
		latency = device.DefaultLowOutputLatency
	}

	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Channels: p.Channels,
			Device:   device,
			Latency:  latency,
		},
		FramesPerBuffer: p.FramesPerBuffer,
		SampleRate:      p.SampleRate,
	}
	logStream("output", device.Name, p, latency)

	stream, err := portaudio.OpenStream(params, callback)
	if err != nil {
		return nil, fmt.Errorf("failed to open output stream: %w", err)
	}
	return stream, nil
}

// OpenInput opens a capture stream on the configured input device.
func (PortAudio) OpenInput(p StreamParams, callback func(in []float32)) (Stream, error) {
	device, err := InputDevice(p.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("input device: %w", err)
	}

	latency := device.DefaultHighInputLatency
	if p.LowLatency {
		latency = device.DefaultLowInputLatency
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: p.Channels,
			Device:   device,
			Latency:  latency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		FramesPerBuffer: p.FramesPerBuffer,
		SampleRate:      p.SampleRate,
	}
	logStream("input", device.Name, p, latency)

	stream, err := portaudio.OpenStream(params, callback)
	if err != nil {
		return nil, fmt.Errorf("failed to open input stream: %w", err)
	}
	return stream, nil
}

func logStream(kind, device string, p StreamParams, latency time.Duration) {
	applog.Infof("audio: opening %s stream on %q (%.0f Hz, %d ch, %d frames, latency %.2fms)",
		kind, device, p.SampleRate, p.Channels, p.FramesPerBuffer, latency.Seconds()*1000)
}
