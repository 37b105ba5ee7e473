// SPDX-License-Identifier: MIT
package config

import "time"

// Core configuration constants that define the boundaries and defaults
// for the analyzer.
const (
	// Audio defaults
	DefaultInputDevice     = MinDeviceID // System default device
	DefaultOutputDevice    = MinDeviceID
	DefaultSampleRate      = 44100 // CD-quality audio
	DefaultFramesPerBuffer = 2048  // One analysis window per hardware buffer
	DefaultInputChannels   = 1     // Mono capture
	DefaultLowLatency      = false

	// Analysis defaults
	DefaultFFTSize       = 2048
	DefaultFFTWindow     = "Hann"
	DefaultAmplitudeGain = 5.0   // RMS is far below 1.0 for typical material
	DefaultFloorDB       = -80.0 // Practical dynamic range: -80 dB (silence) .. 0 dB

	// Synthetic mode defaults
	DefaultSyntheticTick = 50 * time.Millisecond
	DefaultSyntheticSeed = 1

	// Transport defaults
	DefaultUDPTargetAddress = "127.0.0.1:9090"
	DefaultUDPSendInterval  = 33 * time.Millisecond // ~30Hz
	DefaultWSAddress        = ":8080"
	DefaultWSSendInterval   = 33 * time.Millisecond

	// UI defaults
	DefaultRefreshInterval = 33 * time.Millisecond // ~30 fps
	DefaultView            = "bars"

	DefaultLogLevel = "info"

	// Hardware and processing limits
	MinDeviceID     = -1     // -1 represents system default device
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MaxBufferFrames = 8192   // Maximum frames per buffer
	MaxFFTSize      = 16384
)

// Config represents the main application configuration, loaded from YAML and
// refined by environment variables and command line flags.
type Config struct {
	Debug     bool            `yaml:"debug"`     // Forces debug logging.
	LogLevel  string          `yaml:"log_level"` // debug, info, warn, error.
	LogFile   string          `yaml:"log_file"`  // Log destination while the terminal UI is active.
	Audio     AudioConfig     `yaml:"audio"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Synthetic SyntheticConfig `yaml:"synthetic"`
	Transport TransportConfig `yaml:"transport"`
	UI        UIConfig        `yaml:"ui"`
}

// AudioConfig holds settings related to the PortAudio streams.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index for live capture (-1 for default).
	OutputDevice    int     `yaml:"output_device"`     // PortAudio device index for file playback (-1 for default).
	SampleRate      float64 `yaml:"sample_rate"`       // Capture sample rate in Hz; playback uses the track's rate.
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Frames per hardware buffer, i.e. per analysis frame.
	LowLatency      bool    `yaml:"low_latency"`       // Request the device's low latency settings.
	InputChannels   int     `yaml:"input_channels"`    // Channels captured from the input device (downmixed to mono).
}

// AnalysisConfig configures the spectral transform and the amplitude meter.
type AnalysisConfig struct {
	FFTSize       int     `yaml:"fft_size"`       // Transform length, power of two.
	FFTWindow     string  `yaml:"fft_window"`     // Window function name (e.g., "Hann", "Hamming").
	AmplitudeGain float64 `yaml:"amplitude_gain"` // Multiplier applied to RMS before clamping.
	FloorDB       float64 `yaml:"floor_db"`       // Level mapped to 0.0; 0 dB maps to 1.0.
	FullScale     bool    `yaml:"full_scale"`     // 0 dB is a full-scale sine rather than unit power.
}

// SyntheticConfig configures the demo frame generator.
type SyntheticConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	Seed         uint64        `yaml:"seed"`
}

// TransportConfig holds settings related to relaying frames over the network.
type TransportConfig struct {
	UDPEnabled       bool          `yaml:"udp_enabled"`
	UDPTargetAddress string        `yaml:"udp_target_address"` // e.g., "127.0.0.1:9090".
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`
	WSEnabled        bool          `yaml:"ws_enabled"`
	WSAddress        string        `yaml:"ws_address"` // Listen address for the /frames endpoint.
	WSSendInterval   time.Duration `yaml:"ws_send_interval"`
}

// UIConfig configures the terminal consumer.
type UIConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	View            string        `yaml:"view"` // bars, mirror or meter.
}

// NewConfig returns a Config populated with the built-in defaults.
func NewConfig() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Audio: AudioConfig{
			InputDevice:     DefaultInputDevice,
			OutputDevice:    DefaultOutputDevice,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
			InputChannels:   DefaultInputChannels,
		},
		Analysis: AnalysisConfig{
			FFTSize:       DefaultFFTSize,
			FFTWindow:     DefaultFFTWindow,
			AmplitudeGain: DefaultAmplitudeGain,
			FloorDB:       DefaultFloorDB,
		},
		Synthetic: SyntheticConfig{
			TickInterval: DefaultSyntheticTick,
			Seed:         DefaultSyntheticSeed,
		},
		Transport: TransportConfig{
			UDPTargetAddress: DefaultUDPTargetAddress,
			UDPSendInterval:  DefaultUDPSendInterval,
			WSAddress:        DefaultWSAddress,
			WSSendInterval:   DefaultWSSendInterval,
		},
		UI: UIConfig{
			RefreshInterval: DefaultRefreshInterval,
			View:            DefaultView,
		},
	}
}
