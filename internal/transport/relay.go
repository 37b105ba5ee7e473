// SPDX-License-Identifier: MIT
package transport

import (
	"fmt"
	"sync"
	"time"

	"audioviz/internal/analysis"
	applog "audioviz/internal/log"
)

// Relay periodically reads the latest frame from a source and forwards it to
// a Transport. Frames whose sequence number has not changed since the last
// send are skipped, so a paused session produces no traffic.
// It runs in a separate goroutine managed by Start and Stop methods.
type Relay struct {
	name     string
	source   analysis.FrameSource
	sink     Transport
	interval time.Duration

	ticker   *time.Ticker   // Ticker that triggers a poll.
	doneChan chan struct{}  // Signals the relay goroutine to stop.
	stopOnce sync.Once      // Ensures the stop logic runs only once per Start/Stop cycle.
	wg       sync.WaitGroup // Waits for the relay goroutine to finish during Stop.
	mu       sync.Mutex     // Protects ticker and doneChan during Start/Stop.

	lastSeq uint64 // Owned by the relay goroutine.
	sent    uint64
}

// NewRelay creates a relay. If the provided interval is invalid (<= 0), it
// defaults to 33ms (~30Hz).
func NewRelay(name string, interval time.Duration, source analysis.FrameSource, sink Transport) (*Relay, error) {
	if source == nil {
		return nil, fmt.Errorf("relay %s: frame source cannot be nil", name)
	}
	if sink == nil {
		return nil, fmt.Errorf("relay %s: transport cannot be nil", name)
	}
	if interval <= 0 {
		interval = 33 * time.Millisecond
		applog.Warnf("relay %s: invalid interval provided, defaulting to %s", name, interval)
	}

	return &Relay{
		name:     name,
		source:   source,
		sink:     sink,
		interval: interval,
	}, nil
}

// Start begins polling. It is safe to call Start multiple times; subsequent
// calls are no-ops if already started.
func (r *Relay) Start() {
	r.mu.Lock()
	if r.ticker != nil {
		r.mu.Unlock()
		applog.Warnf("relay %s: Start called but already running", r.name)
		return
	}

	r.ticker = time.NewTicker(r.interval)
	r.doneChan = make(chan struct{})
	r.stopOnce = sync.Once{}

	// Capture local variables for the goroutine to avoid data races on r.ticker/r.doneChan
	ticker := r.ticker
	doneChan := r.doneChan
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		applog.Infof("relay %s: started (interval %s)", r.name, r.interval)
		for {
			select {
			case <-ticker.C:
				r.poll()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the relay goroutine to terminate and waits for it to exit.
// It is safe to call Stop multiple times.
func (r *Relay) Stop() error {
	r.mu.Lock()
	if r.ticker == nil {
		r.mu.Unlock()
		return nil
	}

	r.stopOnce.Do(func() {
		close(r.doneChan)
		r.ticker.Stop()
		r.ticker = nil
	})
	r.mu.Unlock()

	r.wg.Wait()
	applog.Infof("relay %s: stopped after %d frames", r.name, r.sent)
	return nil
}

// Close stops the relay and closes its transport.
func (r *Relay) Close() error {
	if err := r.Stop(); err != nil {
		return err
	}
	return r.sink.Close()
}

// poll forwards the latest frame if it is new.
func (r *Relay) poll() {
	f := r.source.Latest()
	if f.Seq == r.lastSeq {
		return
	}
	r.lastSeq = f.Seq

	if err := r.sink.Send(&f); err != nil {
		applog.Debugf("relay %s: send failed for frame %d: %v", r.name, f.Seq, err)
		return
	}
	r.sent++
}
