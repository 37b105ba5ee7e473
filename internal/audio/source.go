// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"

	"audioviz/internal/analysis"
	"audioviz/internal/track"
)

// Source is something the session can play: a decoded file or a live device.
// Each Open returns a fresh stream positioned at the start.
type Source interface {
	Name() string
	Open(b Backend, proc analysis.Processor) (Stream, error)
}

// OutputParams configures the device a TrackSource plays through.
type OutputParams struct {
	DeviceID        int
	FramesPerBuffer int
	LowLatency      bool
}

// TrackSource plays a decoded track and analyzes what it plays.
type TrackSource struct {
	Track  *track.Track
	Output OutputParams
}

// NewTrackSource wraps t for playback through out.
func NewTrackSource(t *track.Track, out OutputParams) *TrackSource {
	return &TrackSource{Track: t, Output: out}
}

func (s *TrackSource) Name() string {
	return s.Track.Name
}

// SampleRate is the track's rate in Hz.
func (s *TrackSource) SampleRate() float64 {
	return float64(s.Track.SampleRate)
}

// Open opens an output stream at the track's own sample rate.
func (s *TrackSource) Open(b Backend, proc analysis.Processor) (Stream, error) {
	pb := NewPlayback(s.Track.Samples, s.Track.Channels, s.Output.FramesPerBuffer, proc)

	stream, err := b.OpenOutput(StreamParams{
		DeviceID:        s.Output.DeviceID,
		SampleRate:      float64(s.Track.SampleRate),
		Channels:        s.Track.Channels,
		FramesPerBuffer: s.Output.FramesPerBuffer,
		LowLatency:      s.Output.LowLatency,
	}, pb.Callback)
	if err != nil {
		return nil, err
	}

	return &PlaybackStream{Stream: stream, Playback: pb}, nil
}

// PlaybackStream is the stream returned by TrackSource.Open.
type PlaybackStream struct {
	Stream
	*Playback
}

var _ Finisher = (*PlaybackStream)(nil)

// DeviceSource analyzes a live capture device. It never finishes on its own.
type DeviceSource struct {
	Label  string
	Params StreamParams
}

// NewDeviceSource captures from p.DeviceID. label is shown as the track name.
func NewDeviceSource(label string, p StreamParams) *DeviceSource {
	if label == "" {
		label = fmt.Sprintf("Input device %d", p.DeviceID)
		if p.DeviceID == DefaultDevice {
			label = "Default input"
		}
	}
	return &DeviceSource{Label: label, Params: p}
}

func (s *DeviceSource) Name() string {
	return s.Label
}

// SampleRate is the capture rate in Hz.
func (s *DeviceSource) SampleRate() float64 {
	return s.Params.SampleRate
}

// Open opens the capture stream.
func (s *DeviceSource) Open(b Backend, proc analysis.Processor) (Stream, error) {
	in := NewInput(s.Params.Channels, s.Params.FramesPerBuffer, proc)
	return b.OpenInput(s.Params, in.Callback)
}
