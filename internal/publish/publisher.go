// Package publish hands analysis frames from the audio thread to any number of
// readers without locks.
//
// A Publisher owns a small arena of slots. The single writer fills the next
// slot under a per-slot sequence counter (odd while the slot is being written)
// and then advertises the slot index. Readers copy the advertised slot and
// retry if its sequence moved during the copy. Every field is accessed
// atomically, so readers never observe a half written frame and the writer
// never waits for them. Intermediate frames may be skipped; only the latest
// one matters.
package publish

import (
	"math"
	"sync"
	"sync/atomic"

	"audioviz/internal/analysis"
)

// slotCount must exceed the number of publishes a reader can sleep through
// mid-copy; retries cover the rest.
const slotCount = 4

type slot struct {
	seq       atomic.Uint64 // Odd while the writer owns the slot.
	frameSeq  atomic.Uint64
	amplitude atomic.Uint64
	bands     [analysis.BandCount]atomic.Uint64
}

// Publisher implements analysis.FramePublisher and analysis.FrameSource.
type Publisher struct {
	slots  [slotCount]slot
	gen    atomic.Uint64 // Publishes so far.
	latest atomic.Uint32 // Index of the newest complete slot.

	subs   atomic.Pointer[[]chan struct{}]
	subsMu sync.Mutex // Serializes Subscribe and unsubscribe, never taken by Publish.
}

var (
	_ analysis.FramePublisher = (*Publisher)(nil)
	_ analysis.FrameSource    = (*Publisher)(nil)
)

// New returns a Publisher whose Latest is the zero frame.
func New() *Publisher {
	p := &Publisher{}
	empty := make([]chan struct{}, 0)
	p.subs.Store(&empty)
	return p
}

// Publish stores a copy of f and assigns it the next sequence number. It must
// only be called from one goroutine at a time. It never blocks or allocates.
func (p *Publisher) Publish(f *analysis.Frame) {
	gen := p.gen.Add(1)
	idx := uint32(gen % slotCount)
	s := &p.slots[idx]

	s.seq.Store(2*gen - 1)
	s.frameSeq.Store(gen)
	s.amplitude.Store(math.Float64bits(f.Amplitude))
	for i := range f.Bands {
		s.bands[i].Store(math.Float64bits(f.Bands[i]))
	}
	s.seq.Store(2 * gen)

	p.latest.Store(idx)
	p.notify()
}

// Reset publishes an all-zero frame.
func (p *Publisher) Reset() {
	var zero analysis.Frame
	p.Publish(&zero)
}

// Latest returns a consistent copy of the newest frame, or the zero frame if
// nothing has been published yet.
func (p *Publisher) Latest() analysis.Frame {
	var f analysis.Frame
	if p.gen.Load() == 0 {
		return f
	}

	for {
		s := &p.slots[p.latest.Load()]
		before := s.seq.Load()
		if before&1 == 1 {
			continue
		}

		f.Seq = s.frameSeq.Load()
		f.Amplitude = math.Float64frombits(s.amplitude.Load())
		for i := range f.Bands {
			f.Bands[i] = math.Float64frombits(s.bands[i].Load())
		}

		if s.seq.Load() == before {
			return f
		}
	}
}

// Seq returns the sequence number of the newest frame without copying it.
func (p *Publisher) Seq() uint64 {
	return p.gen.Load()
}

// Subscribe returns a channel that receives a value after each publish. The
// channel holds at most one pending notification; a slow reader sees a single
// wakeup and should call Latest. The returned function unsubscribes.
func (p *Publisher) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	p.subsMu.Lock()
	old := *p.subs.Load()
	next := make([]chan struct{}, len(old), len(old)+1)
	copy(next, old)
	next = append(next, ch)
	p.subs.Store(&next)
	p.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() { p.unsubscribe(ch) })
	}
}

func (p *Publisher) unsubscribe(ch chan struct{}) {
	p.subsMu.Lock()
	defer p.subsMu.Unlock()

	old := *p.subs.Load()
	next := make([]chan struct{}, 0, len(old))
	for _, c := range old {
		if c != ch {
			next = append(next, c)
		}
	}
	p.subs.Store(&next)
}

func (p *Publisher) notify() {
	for _, ch := range *p.subs.Load() {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
