// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"audioviz/internal/analysis"
)

type fakeSource struct {
	seq atomic.Uint64
}

func (s *fakeSource) Latest() analysis.Frame {
	seq := s.seq.Load()
	f := analysis.Frame{Seq: seq, Amplitude: float64(seq) / 100}
	return f
}

type recordingTransport struct {
	mu     sync.Mutex
	seqs   []uint64
	err    error
	closed bool
}

func (r *recordingTransport) Send(f *analysis.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.seqs = append(r.seqs, f.Seq)
	return nil
}

func (r *recordingTransport) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *recordingTransport) sent() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint64(nil), r.seqs...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for condition")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestNewRelay(t *testing.T) {
	src := &fakeSource{}
	sink := &recordingTransport{}

	if _, err := NewRelay("test", time.Millisecond, nil, sink); err == nil {
		t.Error("expected error for nil source")
	}
	if _, err := NewRelay("test", time.Millisecond, src, nil); err == nil {
		t.Error("expected error for nil transport")
	}

	r, err := NewRelay("test", 0, src, sink)
	if err != nil {
		t.Fatalf("NewRelay() error: %v", err)
	}
	if r.interval != 33*time.Millisecond {
		t.Errorf("interval = %s, want default 33ms", r.interval)
	}
}

func TestRelay_SkipsUnchangedFrames(t *testing.T) {
	src := &fakeSource{}
	sink := &recordingTransport{}
	r, err := NewRelay("test", time.Millisecond, src, sink)
	if err != nil {
		t.Fatalf("NewRelay() error: %v", err)
	}

	src.seq.Store(1)
	r.Start()
	defer r.Stop()

	waitFor(t, func() bool { return len(sink.sent()) == 1 })

	// Many ticks pass with the same frame.
	time.Sleep(20 * time.Millisecond)
	if got := sink.sent(); len(got) != 1 {
		t.Fatalf("sent %v, want a single frame while seq is unchanged", got)
	}

	src.seq.Store(2)
	waitFor(t, func() bool { return len(sink.sent()) == 2 })

	if got := sink.sent(); got[0] != 1 || got[1] != 2 {
		t.Errorf("sent %v, want [1 2]", got)
	}
}

func TestRelay_SendErrorsDoNotStop(t *testing.T) {
	src := &fakeSource{}
	sink := &recordingTransport{err: errors.New("unreachable")}
	r, err := NewRelay("test", time.Millisecond, src, sink)
	if err != nil {
		t.Fatalf("NewRelay() error: %v", err)
	}

	src.seq.Store(1)
	r.Start()
	defer r.Stop()
	time.Sleep(5 * time.Millisecond)

	sink.mu.Lock()
	sink.err = nil
	sink.mu.Unlock()

	src.seq.Store(2)
	waitFor(t, func() bool { return len(sink.sent()) == 1 })
}

func TestRelay_StartStopIdempotent(t *testing.T) {
	src := &fakeSource{}
	sink := &recordingTransport{}
	r, err := NewRelay("test", time.Millisecond, src, sink)
	if err != nil {
		t.Fatalf("NewRelay() error: %v", err)
	}

	if err := r.Stop(); err != nil {
		t.Errorf("Stop() before Start error: %v", err)
	}

	r.Start()
	r.Start()
	if err := r.Stop(); err != nil {
		t.Errorf("Stop() error: %v", err)
	}
	if err := r.Stop(); err != nil {
		t.Errorf("second Stop() error: %v", err)
	}

	// Restart after a stop.
	src.seq.Store(7)
	r.Start()
	waitFor(t, func() bool { return len(sink.sent()) == 1 })

	if err := r.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
	if !sink.closed {
		t.Error("Close() did not close the transport")
	}
}

func TestLoggingTransport(t *testing.T) {
	lt := NewLoggingTransport()
	f := analysis.Frame{Seq: 3, Amplitude: 0.5}
	f.Bands[10] = 0.9

	if err := lt.Send(&f); err != nil {
		t.Errorf("Send() error: %v", err)
	}
	if err := lt.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

func TestNewFrameMessage(t *testing.T) {
	f := analysis.Frame{Seq: 9, Amplitude: 0.25}
	f.Bands[0] = 1
	f.Bands[analysis.BandCount-1] = 0.5

	msg := NewFrameMessage(&f)
	if msg.Seq != 9 || msg.Amplitude != 0.25 {
		t.Errorf("message header = %d/%g, want 9/0.25", msg.Seq, msg.Amplitude)
	}
	if len(msg.Bands) != analysis.BandCount {
		t.Fatalf("len(Bands) = %d, want %d", len(msg.Bands), analysis.BandCount)
	}

	// The message must not alias the frame.
	f.Bands[0] = 0
	if msg.Bands[0] != 1 || msg.Bands[analysis.BandCount-1] != 0.5 {
		t.Errorf("bands = %v", msg.Bands)
	}
}
