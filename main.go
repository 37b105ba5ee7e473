package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"audioviz/cmd"
	"audioviz/internal/analysis"
	"audioviz/internal/audio"
	"audioviz/internal/config"
	applog "audioviz/internal/log"
	"audioviz/internal/session"
	"audioviz/internal/transport"
	"audioviz/internal/transport/udp"
	"audioviz/internal/tui"
	"audioviz/pkg/build"
)

// main is the entry point for the analyzer.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Parse command line arguments and configuration
//   - Initialize PortAudio unless running the synthetic demo
//   - Execute one-off commands if requested
//
// 2. Concurrent Phase (Hot Path):
//   - Load the source and start the session
//   - Start the network relays
//   - Run the terminal UI, or wait for a signal when headless
//
// 3. Shutdown Phase (Cold Path):
//   - Stop relays
//   - Stop audio and release the analyzer
//   - Terminate PortAudio
func main() {
	if err := run(); err != nil {
		applog.Fatalf("%v", err)
	}
}

func run() error {
	// ==================== STARTUP PHASE (Cold Path) ====================

	// Development builds have no linker flags; the defaults are fine.
	if err := build.Initialize(); err != nil {
		applog.Debugf("build info incomplete: %v", err)
	}

	opts, err := cmd.ParseArgs(os.Args[1:])
	if err != nil {
		return err
	}
	if opts.Command == "" {
		return nil
	}
	cfg := opts.Config
	applog.SetLevel(cfg.ResolvedLogLevel())
	applog.Debugf("%s", build.GetBuildFlags())

	if opts.Command != cmd.CommandDemo {
		if err := audio.Initialize(); err != nil {
			return err
		}
		defer func() {
			if err := audio.Terminate(); err != nil {
				applog.Errorf("Error terminating PortAudio: %v", err)
			}
		}()
	}

	// Handle one-off commands that don't require a session
	if opts.Command == cmd.CommandDevices {
		return audio.ListDevices(os.Stdout)
	}

	// The terminal UI owns the screen; logs go to --log-file or nowhere.
	if !opts.Headless {
		closeLog, err := redirectLogs(cfg.LogFile)
		if err != nil {
			return err
		}
		defer closeLog()
	}

	sess, err := newSession(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			applog.Errorf("Error closing session: %v", err)
		}
	}()

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	if err := startSource(sess, opts, cfg); err != nil {
		return err
	}

	relays, err := startRelays(sess, cfg, opts.Headless)
	defer closeRelays(relays)
	if err != nil {
		return err
	}

	if !opts.Headless {
		return tui.Run(sess, cfg.UI.RefreshInterval, cfg.UI.View)
	}

	// Setup signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	waitHeadless(ctx, sess)

	// ==================== SHUTDOWN PHASE (Cold Path) ====================
	// Deferred: relays, then session (audio before analyzer), then PortAudio.
	return nil
}

func newSession(cfg *config.Config) (*session.Session, error) {
	window, err := analysis.ParseWindowFunc(cfg.Analysis.FFTWindow)
	if err != nil {
		return nil, err
	}

	return session.New(session.Options{
		Backend: audio.PortAudio{},
		Transform: analysis.TransformConfig{
			FFTSize:   cfg.Analysis.FFTSize,
			Window:    window,
			FloorDB:   cfg.Analysis.FloorDB,
			FullScale: cfg.Analysis.FullScale,
		},
		AmplitudeGain: cfg.Analysis.AmplitudeGain,
		Output: audio.OutputParams{
			DeviceID:        cfg.Audio.OutputDevice,
			FramesPerBuffer: cfg.Audio.FramesPerBuffer,
			LowLatency:      cfg.Audio.LowLatency,
		},
		SyntheticInterval: cfg.Synthetic.TickInterval,
		SyntheticSeed:     cfg.Synthetic.Seed,
	})
}

func startSource(sess *session.Session, opts *cmd.Options, cfg *config.Config) error {
	switch opts.Command {
	case cmd.CommandPlay:
		if err := sess.Load(opts.File); err != nil {
			return err
		}
	case cmd.CommandListen:
		src := audio.NewDeviceSource("", audio.StreamParams{
			DeviceID:        cfg.Audio.InputDevice,
			SampleRate:      cfg.Audio.SampleRate,
			Channels:        cfg.Audio.InputChannels,
			FramesPerBuffer: cfg.Audio.FramesPerBuffer,
			LowLatency:      cfg.Audio.LowLatency,
		})
		if err := sess.LoadSource(src); err != nil {
			return err
		}
	case cmd.CommandDemo:
		return sess.StartSyntheticMode()
	default:
		return fmt.Errorf("unknown command %q", opts.Command)
	}
	return sess.Play()
}

// startRelays returns every relay it started, even on error, so the caller
// can close them.
func startRelays(sess *session.Session, cfg *config.Config, headless bool) ([]*transport.Relay, error) {
	var relays []*transport.Relay
	add := func(name string, interval time.Duration, sink transport.Transport) error {
		r, err := transport.NewRelay(name, interval, sess, sink)
		if err != nil {
			return errors.Join(err, sink.Close())
		}
		r.Start()
		relays = append(relays, r)
		return nil
	}

	if cfg.Transport.UDPEnabled {
		sink, err := udp.NewTransport(cfg.Transport.UDPTargetAddress)
		if err != nil {
			return relays, err
		}
		if err := add("udp", cfg.Transport.UDPSendInterval, sink); err != nil {
			return relays, err
		}
	}

	if cfg.Transport.WSEnabled {
		sink := transport.NewWebSocketTransport()
		if err := sink.ListenAndServe(cfg.Transport.WSAddress); err != nil {
			return relays, errors.Join(err, sink.Close())
		}
		if err := add("websocket", cfg.Transport.WSSendInterval, sink); err != nil {
			return relays, err
		}
	}

	if headless {
		if err := add("log", time.Second, transport.NewLoggingTransport()); err != nil {
			return relays, err
		}
	}
	return relays, nil
}

func closeRelays(relays []*transport.Relay) {
	for _, r := range relays {
		if err := r.Close(); err != nil {
			applog.Errorf("Error closing relay: %v", err)
		}
	}
}

// waitHeadless blocks until ctx is cancelled or playback reaches its end.
func waitHeadless(ctx context.Context, sess *session.Session) {
	changed, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	// The end of a track resets the frame, which notifies subscribers.
	for {
		select {
		case <-ctx.Done():
			applog.Info("Shutting down")
			return
		case <-changed:
			if sess.Snapshot().Status == session.Stopped {
				applog.Info("Playback finished")
				return
			}
		}
	}
}

// redirectLogs points the logger at path, or discards logs when path is empty.
func redirectLogs(path string) (func(), error) {
	if path == "" {
		applog.SetOutput(io.Discard)
		return func() { applog.SetOutput(os.Stderr) }, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	applog.SetOutput(f)
	return func() {
		applog.SetOutput(os.Stderr)
		f.Close()
	}, nil
}
