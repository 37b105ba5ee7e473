// SPDX-License-Identifier: MIT
/*
Package session owns the transport state machine that drives analysis:

	Idle -> Loaded -> Playing <-> Paused -> Stopped

Commands arrive from consumers (terminal UI, CLI) and are serialized by a
mutex. The audio thread never touches that mutex; it only sees the analyzer
and the publisher. Teardown always stops audio before the analyzer is
released.
*/
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"audioviz/internal/analysis"
	"audioviz/internal/audio"
	applog "audioviz/internal/log"
	"audioviz/internal/publish"
	"audioviz/internal/synth"
	"audioviz/internal/track"
)

// Options configures a Session. Zero values select the defaults.
type Options struct {
	Backend           audio.Backend
	Transform         analysis.TransformConfig
	AmplitudeGain     float64
	Output            audio.OutputParams
	SyntheticInterval time.Duration
	SyntheticSeed     uint64

	// Loader decodes files for Load. Defaults to track.Load.
	Loader func(path string) (*track.Track, error)
}

// Session ties a source, an audio stream, the analyzer and the publisher
// together behind the transport commands.
type Session struct {
	mu sync.Mutex

	backend  audio.Backend
	output   audio.OutputParams
	loader   func(path string) (*track.Track, error)
	pub      *publish.Publisher
	analyzer *audio.Analyzer
	gen      *synth.Generator

	status    Status
	source    audio.Source
	stream    audio.Stream
	running   bool // stream has been started and not stopped since.
	synthetic bool
	closed    bool

	// Closed when the current stream is torn down, releasing its end watcher.
	streamDone chan struct{}
	epoch      uint64
}

// New builds a session in the Idle state.
func New(opts Options) (*Session, error) {
	if opts.Backend == nil {
		return nil, errors.New("session: audio backend is required")
	}
	if opts.Transform.FFTSize == 0 {
		opts.Transform = analysis.DefaultTransformConfig()
	}
	if opts.AmplitudeGain == 0 {
		opts.AmplitudeGain = analysis.DefaultAmplitudeGain
	}
	if opts.Output.FramesPerBuffer == 0 {
		opts.Output.FramesPerBuffer = opts.Transform.FFTSize
	}
	if opts.Loader == nil {
		opts.Loader = track.Load
	}

	pub := publish.New()
	analyzer, err := audio.NewAnalyzer(opts.Transform, opts.AmplitudeGain, pub)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	gen, err := synth.New(pub, opts.SyntheticInterval, opts.SyntheticSeed)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	return &Session{
		backend:  opts.Backend,
		output:   opts.Output,
		loader:   opts.Loader,
		pub:      pub,
		analyzer: analyzer,
		gen:      gen,
		status:   Idle,
	}, nil
}

// Load decodes the file at path and selects it. Allowed from Idle, Loaded and
// Stopped; a failed load leaves the session untouched.
func (s *Session) Load(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkLoadable(); err != nil {
		return err
	}

	t, err := s.loader(path)
	if err != nil {
		return &LoadError{Path: path, Err: err}
	}

	s.selectSource(audio.NewTrackSource(t, s.output))
	applog.Infof("session: loaded %q (%d Hz, %d ch, %s)", t.Name, t.SampleRate, t.Channels, t.Duration().Round(time.Second))
	return nil
}

// LoadSource selects a prepared source such as a live input device, with the
// same transition rules as Load.
func (s *Session) LoadSource(src audio.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkLoadable(); err != nil {
		return err
	}
	if src == nil {
		return &LoadError{Path: "", Err: errors.New("nil source")}
	}

	s.selectSource(src)
	applog.Infof("session: loaded %q", src.Name())
	return nil
}

func (s *Session) checkLoadable() error {
	if s.closed {
		return ErrClosed
	}
	if s.status == Playing || s.status == Paused {
		return fmt.Errorf("load while %s: %w", s.status, ErrInvalidTransition)
	}
	return nil
}

// selectSource replaces the source. Loading leaves synthetic mode.
func (s *Session) selectSource(src audio.Source) {
	s.closeStream()
	s.synthetic = false
	s.source = src
	s.status = Loaded
}

// Play starts or resumes the current source. It is a no-op while Playing.
// From Stopped the source plays again from the start.
func (s *Session) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.play()
}

func (s *Session) play() error {
	if s.closed {
		return ErrClosed
	}

	switch s.status {
	case Playing:
		return nil
	case Idle:
		return ErrNoSource
	}

	if s.synthetic {
		if err := s.gen.Start(); err != nil {
			return &EngineStartError{Source: SyntheticName, Err: err}
		}
		s.status = Playing
		return nil
	}

	if s.status == Paused && s.stream != nil {
		if err := s.stream.Start(); err != nil {
			return &EngineStartError{Source: s.source.Name(), Err: err}
		}
		s.running = true
		s.status = Playing
		applog.Debugf("session: resumed %q", s.source.Name())
		return nil
	}

	// Loaded or Stopped: open a fresh stream at the start of the source.
	s.closeStream()
	stream, err := s.source.Open(s.backend, s.analyzer)
	if err != nil {
		return &EngineStartError{Source: s.source.Name(), Err: err}
	}
	if err := stream.Start(); err != nil {
		if cerr := stream.Close(); cerr != nil {
			applog.Warnf("session: closing failed stream: %v", cerr)
		}
		return &EngineStartError{Source: s.source.Name(), Err: err}
	}

	s.stream = stream
	s.running = true
	s.epoch++
	s.streamDone = make(chan struct{})
	if fin, ok := stream.(audio.Finisher); ok {
		go s.watchEnd(fin.Done(), s.streamDone, s.epoch)
	}

	s.status = Playing
	applog.Infof("session: playing %q", s.source.Name())
	return nil
}

// Pause halts the stream and keeps the last frame visible. It is a no-op
// unless Playing.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pause()
}

func (s *Session) pause() error {
	if s.closed {
		return ErrClosed
	}
	if s.status != Playing {
		return nil
	}

	if s.synthetic {
		if err := s.gen.Stop(); err != nil {
			return fmt.Errorf("pause synthetic mode: %w", err)
		}
	} else if s.stream != nil {
		if err := s.stream.Stop(); err != nil {
			return fmt.Errorf("pause %q: %w", s.source.Name(), err)
		}
		s.running = false
	}

	s.status = Paused
	applog.Debugf("session: paused")
	return nil
}

// Stop halts playback and publishes an all-zero frame. The reset happens in
// every state; the transition to Stopped only from Playing or Paused.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	var err error
	if s.status == Playing || s.status == Paused {
		if s.synthetic {
			err = s.gen.Stop()
		} else {
			err = s.closeStream()
		}
		s.status = Stopped
		applog.Debugf("session: stopped")
	}

	// Audio has been halted above, so this is the last frame consumers see.
	s.pub.Reset()
	return err
}

// TogglePlayPause pauses while Playing and plays otherwise.
func (s *Session) TogglePlayPause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == Playing {
		return s.pause()
	}
	return s.play()
}

// StartSyntheticMode replaces real analysis with generated frames. Any real
// stream is stopped first; the loaded source is kept for later. If the stream
// cannot be stopped the session is left as it was.
func (s *Session) StartSyntheticMode() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.synthetic {
		return nil
	}

	// The publisher takes a single writer: the analyzer must be silent
	// before the generator starts.
	if s.stream != nil && s.running {
		if err := s.stream.Stop(); err != nil {
			return fmt.Errorf("start synthetic mode: stop %q: %w", s.source.Name(), err)
		}
		s.running = false
	}
	if err := s.closeStream(); err != nil {
		applog.Warnf("session: closing stream for synthetic mode: %v", err)
	}
	if err := s.gen.Start(); err != nil {
		return &EngineStartError{Source: SyntheticName, Err: err}
	}

	s.synthetic = true
	s.status = Playing
	applog.Infof("session: synthetic mode on")
	return nil
}

// StopSyntheticMode ends synthetic mode, clears the frame and returns to the
// previously loaded source (Loaded) or to Idle.
func (s *Session) StopSyntheticMode() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if !s.synthetic {
		return nil
	}

	err := s.gen.Stop()
	s.pub.Reset()
	s.synthetic = false
	if s.source != nil {
		s.status = Loaded
	} else {
		s.status = Idle
	}
	applog.Infof("session: synthetic mode off")
	return err
}

// ToggleSyntheticMode flips synthetic mode.
func (s *Session) ToggleSyntheticMode() error {
	s.mu.Lock()
	synthetic := s.synthetic
	s.mu.Unlock()

	if synthetic {
		return s.StopSyntheticMode()
	}
	return s.StartSyntheticMode()
}

// Snapshot returns the transport state together with the latest frame.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	st := State{
		Status:    s.status,
		IsPlaying: s.status == Playing,
		Synthetic: s.synthetic,
	}
	switch {
	case s.synthetic:
		st.TrackName = SyntheticName
	case s.source != nil:
		st.TrackName = s.source.Name()
		if r, ok := s.source.(sampleRater); ok {
			st.SampleRate = r.SampleRate()
		}
	}
	if pb, ok := s.stream.(*audio.PlaybackStream); ok && st.SampleRate > 0 {
		st.Elapsed = framesToDuration(pb.Position(), st.SampleRate)
		st.Duration = framesToDuration(pb.Frames(), st.SampleRate)
	}
	analyzer := s.analyzer
	s.mu.Unlock()

	st.Frame = s.pub.Latest()
	if analyzer != nil && st.SampleRate > 0 && !st.Frame.IsZero() {
		band, _ := st.Frame.Peak()
		st.PeakHz = analyzer.Engine().BandFrequency(band, st.SampleRate)
	}
	return st
}

type sampleRater interface {
	SampleRate() float64
}

func framesToDuration(frames int64, sampleRate float64) time.Duration {
	return time.Duration(float64(frames) / sampleRate * float64(time.Second))
}

// Latest returns the most recent frame without taking the session lock.
func (s *Session) Latest() analysis.Frame {
	return s.pub.Latest()
}

// Subscribe forwards to the publisher's change notification.
func (s *Session) Subscribe() (<-chan struct{}, func()) {
	return s.pub.Subscribe()
}

// Analyzer returns the analyzer fed by the session's streams.
func (s *Session) Analyzer() *audio.Analyzer {
	return s.analyzer
}

var _ analysis.FrameSource = (*Session)(nil)

// Close stops all audio, then releases the analyzer. Further commands fail
// with ErrClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	errs := []error{s.gen.Close(), s.closeStream()}
	s.pub.Reset()
	s.closed = true
	s.synthetic = false
	s.status = Idle
	s.source = nil
	s.analyzer = nil
	return errors.Join(errs...)
}

// closeStream stops and closes the current stream and releases its watcher.
func (s *Session) closeStream() error {
	if s.stream == nil {
		return nil
	}

	close(s.streamDone)
	s.streamDone = nil

	stream, running := s.stream, s.running
	s.stream = nil
	s.running = false
	if running {
		return errors.Join(stream.Stop(), stream.Close())
	}
	return stream.Close()
}

// watchEnd moves the session to Stopped when playback reaches the end of the
// source that was current at epoch.
func (s *Session) watchEnd(done <-chan struct{}, released <-chan struct{}, epoch uint64) {
	select {
	case <-done:
	case <-released:
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch || s.synthetic || (s.status != Playing && s.status != Paused) {
		return
	}
	if err := s.closeStream(); err != nil {
		applog.Warnf("session: closing finished stream: %v", err)
	}
	s.status = Stopped
	s.pub.Reset()
	applog.Infof("session: reached end of %q", s.source.Name())
}
