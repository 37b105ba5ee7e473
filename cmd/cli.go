package cmd

import (
	"fmt"

	"audioviz/internal/audio"
	"audioviz/internal/config"
	"audioviz/pkg/build"

	"github.com/spf13/cobra"
)

// Commands selected by ParseArgs.
const (
	CommandPlay    = "play"
	CommandListen  = "listen"
	CommandDemo    = "demo"
	CommandDevices = "devices"
)

// Options is the parsed command line: which command to run and the merged
// configuration (defaults, then file, then ENV_*, then flags).
type Options struct {
	Command  string
	File     string
	Headless bool
	Config   *config.Config
}

// flagValues holds raw flag values until the config file is loaded.
type flagValues struct {
	configPath      string
	device          int
	framesPerBuffer int
	fftSize         int
	lowLatency      bool
	logLevel        string
	logFile         string
	udpAddress      string
	wsAddress       string
}

// ParseArgs parses args (without the program name). For --help and --version
// the returned Options has an empty Command.
func ParseArgs(args []string) (*Options, error) {
	buildInfo := build.GetBuildFlags()
	options := &Options{}
	var flags flagValues

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name + " [file]",
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(flags.configPath)
			if err != nil {
				return err
			}
			if err := flags.apply(cmd, cfg); err != nil {
				return err
			}
			options.Config = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// A bare file argument plays it.
			if len(args) == 1 {
				options.Command = CommandPlay
				options.File = args[0]
				options.Config.Audio.OutputDevice = deviceFlag(cmd, flags.device, options.Config.Audio.OutputDevice)
				return nil
			}
			return cmd.Help()
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	playCmd := &cobra.Command{
		Use:   "play <file>",
		Short: "Play an audio file and analyze it (wav, mp3, flac, ogg)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Command = CommandPlay
			options.File = args[0]
			options.Config.Audio.OutputDevice = deviceFlag(cmd, flags.device, options.Config.Audio.OutputDevice)
			return nil
		},
	}

	listenCmd := &cobra.Command{
		Use:   "listen",
		Short: "Analyze a live input device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Command = CommandListen
			options.Config.Audio.InputDevice = deviceFlag(cmd, flags.device, options.Config.Audio.InputDevice)
			return nil
		},
	}

	demoCmd := &cobra.Command{
		Use:   "demo",
		Short: "Show synthetic frames without any audio device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Command = CommandDemo
			return nil
		},
	}

	// List command
	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "List available audio devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Command = CommandDevices
			return nil
		},
	}

	rootCmd.AddCommand(playCmd, listenCmd, demoCmd, devicesCmd)

	pf := rootCmd.PersistentFlags()

	// Configuration
	pf.StringVarP(&flags.configPath, "config", "c", "",
		"Path to a YAML config file (default: ./"+config.DefaultConfigFile+" when present)")

	// Audio Device Configuration
	pf.IntVarP(&flags.device, "device", "d", audio.DefaultDevice,
		"Device ID: output for play, input for listen. Use 'devices' to see available devices.")
	pf.IntVarP(&flags.framesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"The number of frames per buffer (one analysis frame each)")
	pf.BoolVarP(&flags.lowLatency, "low-latency", "l", config.DefaultLowLatency,
		"Use low latency mode for real-time processing")

	// Analysis Configuration
	pf.IntVarP(&flags.fftSize, "fft-size", "f", config.DefaultFFTSize,
		"Transform length, a power of two")

	// Output Configuration
	pf.BoolVar(&options.Headless, "headless", false,
		"Run without the terminal UI and log frame summaries")
	pf.StringVar(&flags.udpAddress, "udp", "",
		"Relay frames as UDP packets to host:port")
	pf.StringVar(&flags.wsAddress, "ws", "",
		"Serve frames over WebSocket on this listen address")

	// Debug Configuration
	pf.StringVar(&flags.logLevel, "log-level", config.DefaultLogLevel,
		"Log level: debug, info, warn, error")
	pf.StringVar(&flags.logFile, "log-file", "",
		"Write logs to this file while the terminal UI is active")

	// Execute the CLI
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	return options, nil
}

// apply copies explicitly set flags over cfg and revalidates it.
func (f *flagValues) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed

	if changed("frames-per-buffer") {
		cfg.Audio.FramesPerBuffer = f.framesPerBuffer
	}
	if changed("low-latency") {
		cfg.Audio.LowLatency = f.lowLatency
	}
	if changed("fft-size") {
		cfg.Analysis.FFTSize = f.fftSize
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
		cfg.Debug = false
	}
	if changed("log-file") {
		cfg.LogFile = f.logFile
	}
	if changed("udp") {
		cfg.Transport.UDPEnabled = true
		cfg.Transport.UDPTargetAddress = f.udpAddress
	}
	if changed("ws") {
		cfg.Transport.WSEnabled = true
		cfg.Transport.WSAddress = f.wsAddress
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

func deviceFlag(cmd *cobra.Command, flag, fallback int) int {
	if cmd.Flags().Changed("device") {
		return flag
	}
	return fallback
}
