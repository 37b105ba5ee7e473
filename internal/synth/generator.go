// SPDX-License-Identifier: MIT
package synth

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"audioviz/internal/analysis"
	applog "audioviz/internal/log"

	"github.com/charmbracelet/harmonica"
)

const (
	DefaultInterval = 50 * time.Millisecond

	springFrequency = 6.0
	springDamping   = 0.6
	jitter          = 0.15
)

// Generator publishes plausible looking frames on a timer without any audio.
// It runs in its own goroutine managed by Start and Stop, and satisfies the
// audio Stream interface so the session can treat it like a real stream.
type Generator struct {
	pub      analysis.FramePublisher
	interval time.Duration

	ticker   *time.Ticker   // Ticker that triggers frame generation.
	doneChan chan struct{}  // Signals the generator goroutine to stop.
	stopOnce sync.Once      // Ensures the stop logic runs only once per Start/Stop cycle.
	wg       sync.WaitGroup // Waits for the generator goroutine during Stop.
	mu       sync.Mutex     // Protects ticker and doneChan during Start/Stop.

	// Owned by the generator goroutine.
	rng    *rand.Rand
	spring harmonica.Spring
	rates  [analysis.BandCount]float64 // Oscillation rate per band, Hz.
	phases [analysis.BandCount]float64
	pos    [analysis.BandCount]float64
	vel    [analysis.BandCount]float64
	ampPos float64
	ampVel float64
	ticks  uint64
	frame  analysis.Frame
}

// New creates a generator publishing to pub every interval. The same seed
// produces the same sequence of frames.
func New(pub analysis.FramePublisher, interval time.Duration, seed uint64) (*Generator, error) {
	if pub == nil {
		return nil, fmt.Errorf("synth: publisher cannot be nil")
	}
	if interval <= 0 {
		interval = DefaultInterval
		applog.Warnf("synth: invalid interval provided, defaulting to %s", interval)
	}

	fps := max(int(time.Second/interval), 1)
	g := &Generator{
		pub:      pub,
		interval: interval,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		spring:   harmonica.NewSpring(harmonica.FPS(fps), springFrequency, springDamping),
	}
	for b := range analysis.BandCount {
		g.rates[b] = 0.1 + g.rng.Float64()*0.5
		g.phases[b] = g.rng.Float64() * 2 * math.Pi
	}
	return g, nil
}

// Start launches the generator goroutine. Calling Start while running is a no-op.
func (g *Generator) Start() error {
	g.mu.Lock()
	if g.ticker != nil {
		g.mu.Unlock()
		return nil
	}

	g.ticker = time.NewTicker(g.interval)
	g.doneChan = make(chan struct{})
	g.stopOnce = sync.Once{}

	ticker := g.ticker
	doneChan := g.doneChan
	g.mu.Unlock()

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		applog.Debugf("synth: generator started (interval %s)", g.interval)
		for {
			select {
			case <-ticker.C:
				g.step()
			case <-doneChan:
				applog.Debugf("synth: generator received stop signal")
				return
			}
		}
	}()
	return nil
}

// Stop signals the generator goroutine and waits for it to exit. No frame is
// published after Stop returns.
func (g *Generator) Stop() error {
	g.mu.Lock()
	if g.ticker == nil {
		g.mu.Unlock()
		return nil
	}

	g.stopOnce.Do(func() {
		close(g.doneChan)
		g.ticker.Stop()
		g.ticker = nil
	})
	g.mu.Unlock()

	g.wg.Wait()
	return nil
}

// Close stops the generator.
func (g *Generator) Close() error {
	return g.Stop()
}

// Running reports whether the generator goroutine is active.
func (g *Generator) Running() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ticker != nil
}

// step advances the simulation by one tick and publishes the result.
func (g *Generator) step() {
	g.ticks++
	t := float64(g.ticks) * g.interval.Seconds()

	var energy float64
	for b := range analysis.BandCount {
		// Louder lows, quieter highs, each band breathing at its own rate.
		tilt := 0.75 - 0.5*float64(b)/float64(analysis.BandCount)
		wave := 0.2 * math.Sin(2*math.Pi*g.rates[b]*t+g.phases[b])
		noise := (g.rng.Float64() - 0.5) * jitter
		target := clamp01(tilt + wave + noise)

		g.pos[b], g.vel[b] = g.spring.Update(g.pos[b], g.vel[b], target)
		g.frame.Bands[b] = clamp01(g.pos[b])
		energy += g.frame.Bands[b]
	}

	g.ampPos, g.ampVel = g.spring.Update(g.ampPos, g.ampVel, energy/analysis.BandCount)
	g.frame.Amplitude = clamp01(g.ampPos)

	g.pub.Publish(&g.frame)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
