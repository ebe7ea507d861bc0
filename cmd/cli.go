package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/olivier-w/spectra/internal/config"
	"github.com/olivier-w/spectra/internal/media"
)

const CommandDevices = "devices"

// Options is the resolved command line. Config is nil when cobra handled
// the invocation itself (help, version).
type Options struct {
	Config  *config.Config
	Path    string
	Command string
}

type flagValues struct {
	configPath string
	profile    string
	display    string
	input      string
	window     string
	logLevel   string
	logFile    string
	fps        int
	fftSize    int
	units      int
	device     int
	smoothing  bool
	repeat     bool
	volume     float64
}

// ParseArgs builds the configuration from the config file, environment
// and flags, in increasing precedence.
func ParseArgs(version string, args []string) (*Options, error) {
	var fv flagValues
	opts := &Options{}

	resolve := func(c *cobra.Command) error {
		cfg, err := config.LoadConfig(fv.configPath)
		if err != nil {
			return err
		}
		applyFlags(c, cfg, &fv)
		if err := cfg.Validate(); err != nil {
			return err
		}
		opts.Config = cfg
		return nil
	}

	rootCmd := &cobra.Command{
		Use:           "spectra [file]",
		Short:         "Audio spectrum visualizer",
		Long:          "Plays an audio file or listens to an input device and draws its spectrum as bars or cubes.\nSupported files: " + media.SupportedExtsList(),
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(c *cobra.Command, args []string) error {
			if err := resolve(c); err != nil {
				return err
			}
			if len(args) == 1 {
				opts.Path = args[0]
			}
			switch {
			case opts.Config.Audio.Input == config.InputFile && opts.Path == "":
				return fmt.Errorf("%w: a file is required unless --input=capture", config.ErrInvalid)
			case opts.Config.Audio.Input == config.InputFile:
				if _, err := media.Detect(opts.Path); err != nil {
					return err
				}
			}
			return nil
		},
	}
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	devicesCmd := &cobra.Command{
		Use:   CommandDevices,
		Short: "List available audio input devices",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			opts.Command = CommandDevices
			return resolve(c)
		},
	}
	rootCmd.AddCommand(devicesCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&fv.configPath, "config", "", "config file (default ./"+config.DefaultFileName+")")
	pf.StringVar(&fv.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&fv.logFile, "log-file", "", "write logs to this file")

	f := rootCmd.Flags()
	f.StringVarP(&fv.profile, "profile", "p", "", "visual profile: cubes or bars")
	f.StringVar(&fv.display, "display", "", "where to draw: tui or window")
	f.StringVarP(&fv.input, "input", "i", "", "audio input: file or capture")
	f.StringVar(&fv.window, "window", "", "FFT window function")
	f.IntVar(&fv.fps, "fps", 0, "frames per second")
	f.IntVar(&fv.fftSize, "fft-size", 0, "FFT size, twice the unit count")
	f.IntVarP(&fv.units, "units", "u", 0, "number of bars or cubes")
	f.IntVarP(&fv.device, "device", "d", config.DefaultDeviceID, "input device ID for capture; see 'devices'")
	f.BoolVar(&fv.smoothing, "smoothing", false, "ease unit intensities between frames")
	f.BoolVarP(&fv.repeat, "repeat", "r", false, "restart the track when it ends")
	f.Float64Var(&fv.volume, "volume", 0, "playback volume in [0, 1]")

	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	return opts, nil
}

// applyFlags copies only the flags the user set, so file and environment
// values survive.
func applyFlags(c *cobra.Command, cfg *config.Config, fv *flagValues) {
	changed := func(name string) bool {
		fl := c.Flags().Lookup(name)
		return fl != nil && fl.Changed
	}

	if changed("log-level") {
		cfg.Log.Level = fv.logLevel
	}
	if changed("log-file") {
		cfg.Log.File = fv.logFile
	}
	if changed("profile") {
		cfg.ApplyProfile(fv.profile)
	}
	if changed("display") {
		cfg.Display.Mode = strings.ToLower(fv.display)
	}
	if changed("input") {
		cfg.Audio.Input = strings.ToLower(fv.input)
	}
	if changed("window") {
		cfg.Audio.Window = fv.window
	}
	if changed("fps") {
		cfg.Display.FPS = fv.fps
	}
	if changed("units") {
		cfg.Visual.Units = fv.units
		if !changed("fft-size") {
			cfg.Audio.FFTSize = fv.units * 2
		}
	}
	if changed("fft-size") {
		cfg.Audio.FFTSize = fv.fftSize
	}
	if changed("device") {
		cfg.Capture.DeviceID = fv.device
	}
	if changed("smoothing") {
		cfg.Visual.Smoothing = fv.smoothing
	}
	if changed("repeat") {
		cfg.Audio.Repeat = fv.repeat
	}
	if changed("volume") {
		cfg.Audio.Volume = fv.volume
	}
}
