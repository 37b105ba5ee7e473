// SPDX-License-Identifier: MIT
package session

import (
	"time"

	"audioviz/internal/analysis"
)

// Status is the transport state of a Session.
type Status int

const (
	Idle    Status = iota // Nothing loaded.
	Loaded                // Source selected, not playing.
	Playing
	Paused // Stream halted, last frame stays visible.
	Stopped
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Loaded:
		return "Loaded"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	case Stopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// SyntheticName is reported as the track name while synthetic mode is active.
const SyntheticName = "Synthetic"

// State is a consistent snapshot of the session for consumers.
type State struct {
	Status    Status
	IsPlaying bool
	TrackName string
	Synthetic bool
	Frame     analysis.Frame

	// Zero when unknown, e.g. in synthetic mode.
	SampleRate float64
	PeakHz     float64       // Lower edge of the loudest band.
	Elapsed    time.Duration // File playback only.
	Duration   time.Duration
}
