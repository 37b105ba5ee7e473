// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"audioviz/internal/analysis"
	applog "audioviz/internal/log"
	"audioviz/pkg/bitint"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked up in the working directory when no path is given.
const DefaultConfigFile = "config.yaml"

// LoadConfig loads configuration from the YAML file at path. If path is empty
// it looks for DefaultConfigFile and falls back to the built-in defaults when
// that does not exist. Environment overrides are applied after the file, then
// the result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error

	if _, ok := applog.ParseLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel))
	}

	// Audio
	if c.Audio.InputDevice < MinDeviceID {
		errs = append(errs, fmt.Errorf("audio.input_device must be >= %d, got %d", MinDeviceID, c.Audio.InputDevice))
	}
	if c.Audio.OutputDevice < MinDeviceID {
		errs = append(errs, fmt.Errorf("audio.output_device must be >= %d, got %d", MinDeviceID, c.Audio.OutputDevice))
	}
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be within [%d, %d] Hz, got %.0f",
			MinSampleRate, MaxSampleRate, c.Audio.SampleRate))
	}
	if c.Audio.FramesPerBuffer <= 0 || c.Audio.FramesPerBuffer > MaxBufferFrames {
		errs = append(errs, fmt.Errorf("audio.frames_per_buffer must be within [1, %d], got %d",
			MaxBufferFrames, c.Audio.FramesPerBuffer))
	}
	if c.Audio.InputChannels < 1 || c.Audio.InputChannels > 2 {
		errs = append(errs, fmt.Errorf("audio.input_channels must be 1 or 2, got %d", c.Audio.InputChannels))
	}

	// Analysis
	if err := c.Analysis.validateFFTSize(); err != nil {
		errs = append(errs, err)
	}
	if _, err := analysis.ParseWindowFunc(c.Analysis.FFTWindow); err != nil {
		errs = append(errs, fmt.Errorf("analysis.fft_window: %w", err))
	}
	if c.Analysis.AmplitudeGain <= 0 {
		errs = append(errs, fmt.Errorf("analysis.amplitude_gain must be positive, got %g", c.Analysis.AmplitudeGain))
	}
	if c.Analysis.FloorDB >= 0 {
		errs = append(errs, fmt.Errorf("analysis.floor_db must be negative, got %g", c.Analysis.FloorDB))
	}

	// Synthetic
	if c.Synthetic.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("synthetic.tick_interval must be positive, got %s", c.Synthetic.TickInterval))
	}

	// Transport
	if c.Transport.UDPEnabled {
		if !strings.Contains(c.Transport.UDPTargetAddress, ":") {
			errs = append(errs, fmt.Errorf("transport.udp_target_address %q appears invalid (missing port?)",
				c.Transport.UDPTargetAddress))
		}
		if c.Transport.UDPSendInterval <= 0 {
			errs = append(errs, errors.New("transport.udp_send_interval must be positive when UDP is enabled"))
		}
	}
	if c.Transport.WSEnabled {
		if !strings.Contains(c.Transport.WSAddress, ":") {
			errs = append(errs, fmt.Errorf("transport.ws_address %q appears invalid (missing port?)",
				c.Transport.WSAddress))
		}
		if c.Transport.WSSendInterval <= 0 {
			errs = append(errs, errors.New("transport.ws_send_interval must be positive when websocket is enabled"))
		}
	}

	// UI
	if c.UI.RefreshInterval <= 0 {
		errs = append(errs, fmt.Errorf("ui.refresh_interval must be positive, got %s", c.UI.RefreshInterval))
	}
	switch strings.ToLower(c.UI.View) {
	case "bars", "mirror", "meter":
	default:
		errs = append(errs, fmt.Errorf("ui.view %q is not one of bars, mirror, meter", c.UI.View))
	}

	return errors.Join(errs...)
}

func (a AnalysisConfig) validateFFTSize() error {
	minSize := 2 * analysis.BandCount
	if !bitint.IsPowerOfTwo(a.FFTSize) {
		return fmt.Errorf("analysis.fft_size must be a power of two, got %d (try %d)",
			a.FFTSize, bitint.NextPowerOfTwo(a.FFTSize))
	}
	if a.FFTSize < minSize || a.FFTSize > MaxFFTSize {
		return fmt.Errorf("analysis.fft_size must be within [%d, %d], got %d", minSize, MaxFFTSize, a.FFTSize)
	}
	return nil
}

// ResolvedLogLevel returns the effective level, honouring the debug switch.
func (c *Config) ResolvedLogLevel() applog.LogLevel {
	if c.Debug {
		return applog.LevelDebug
	}
	level, _ := applog.ParseLevel(c.LogLevel)
	return level
}

// applyEnvOverrides applies ENV_* variables on top of the file values.
// Unparseable values are ignored with a warning.
func (c *Config) applyEnvOverrides() {
	// ENV_{...}
	// General overrides.

	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Debug = bVal
			applog.Infof("configuration: overriding debug from env: %v", bVal)
		} else {
			applog.Warnf("configuration: ignoring ENV_DEBUG=%q: %v", val, err)
		}
	}
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		c.LogLevel = val
		applog.Infof("configuration: overriding log_level from env: %s", val)
	}
	if val, ok := os.LookupEnv("ENV_FFT_SIZE"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			c.Analysis.FFTSize = n
			applog.Infof("configuration: overriding analysis.fft_size from env: %d", n)
		} else {
			applog.Warnf("configuration: ignoring ENV_FFT_SIZE=%q: %v", val, err)
		}
	}

	// ENV_UDP_{...}
	// Specific to the UDP relay.

	if val, ok := os.LookupEnv("ENV_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Transport.UDPEnabled = bVal
			applog.Infof("configuration: overriding transport.udp_enabled from env: %v", bVal)
		}
	}
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		c.Transport.UDPTargetAddress = val
		applog.Infof("configuration: overriding transport.udp_target_address from env: %s", val)
	}
	if val, ok := os.LookupEnv("ENV_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			c.Transport.UDPSendInterval = dur
			applog.Infof("configuration: overriding transport.udp_send_interval from env: %s", dur)
		}
	}

	// ENV_WS_{...}
	// Specific to the websocket relay.

	if val, ok := os.LookupEnv("ENV_WS_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Transport.WSEnabled = bVal
			applog.Infof("configuration: overriding transport.ws_enabled from env: %v", bVal)
		}
	}
	if val, ok := os.LookupEnv("ENV_WS_ADDRESS"); ok {
		c.Transport.WSAddress = val
		applog.Infof("configuration: overriding transport.ws_address from env: %s", val)
	}
}
