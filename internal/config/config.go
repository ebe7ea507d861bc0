// Package config loads spectra settings from YAML, the environment and
// built-in defaults, in that order of precedence (environment wins).
package config

import (
	"errors"
	"fmt"
	"math/bits"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/olivier-w/spectra/internal/analyzer"
	"github.com/olivier-w/spectra/internal/visualizer"
)

const (
	ProfileCubes = "cubes"
	ProfileBars  = "bars"

	DisplayTUI    = "tui"
	DisplayWindow = "window"

	InputFile    = "file"
	InputCapture = "capture"

	DefaultFileName = "spectra.yaml"

	DefaultDeviceID = -1

	MinFPS = 1
	MaxFPS = 240
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full runtime configuration.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Audio   AudioConfig   `yaml:"audio"`
	Visual  VisualConfig  `yaml:"visual"`
	Display DisplayConfig `yaml:"display"`
	Capture CaptureConfig `yaml:"capture"`

	// fftExplicit records that fft_size came from the file or environment
	// rather than from the profile.
	fftExplicit bool
}

type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // empty: spectra.log in TUI mode, stderr otherwise
}

// AudioConfig controls the spectrum analyzer and the audio source.
type AudioConfig struct {
	Input                 string  `yaml:"input"` // file or capture
	FFTSize               int     `yaml:"fft_size"`
	Window                string  `yaml:"window"`
	SmoothingTimeConstant float64 `yaml:"smoothing_time_constant"`
	MinDecibels           float64 `yaml:"min_decibels"`
	MaxDecibels           float64 `yaml:"max_decibels"`
	Volume                float64 `yaml:"volume"`
	Repeat                bool    `yaml:"repeat"`
}

// VisualConfig selects a mapping profile and optionally overrides parts of it.
// Zero values keep the profile's own settings.
type VisualConfig struct {
	Profile     string  `yaml:"profile"` // cubes or bars
	Units       int     `yaml:"units"`
	ScaleFactor float64 `yaml:"scale_factor"`
	Floor       float64 `yaml:"floor"`
	HueMode     string  `yaml:"hue_mode"`
	HueStep     float64 `yaml:"hue_step"`
	Smoothing   bool    `yaml:"smoothing"`
}

type DisplayConfig struct {
	Mode   string `yaml:"mode"` // tui or window
	FPS    int    `yaml:"fps"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// CaptureConfig configures the live input device.
type CaptureConfig struct {
	DeviceID        int     `yaml:"device_id"` // -1 for the default input
	Channels        int     `yaml:"channels"`
	SampleRate      float64 `yaml:"sample_rate"`
	FramesPerBuffer int     `yaml:"frames_per_buffer"`
}

// Default returns the built-in configuration: the cube scene at 60 fps in
// the terminal.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		Audio: AudioConfig{
			Input:                 InputFile,
			FFTSize:               analyzer.DefaultFFTSize,
			Window:                "blackman",
			SmoothingTimeConstant: analyzer.DefaultSmoothingTimeConstant,
			MinDecibels:           analyzer.DefaultMinDecibels,
			MaxDecibels:           analyzer.DefaultMaxDecibels,
			Volume:                1,
		},
		Visual: VisualConfig{Profile: ProfileCubes},
		Display: DisplayConfig{
			Mode:   DisplayTUI,
			FPS:    60,
			Width:  960,
			Height: 540,
		},
		Capture: CaptureConfig{
			DeviceID:        DefaultDeviceID,
			Channels:        1,
			SampleRate:      44100,
			FramesPerBuffer: 512,
		},
	}
}

// LoadConfig reads path over the defaults. An empty path looks for
// spectra.yaml in the working directory and falls back to the defaults when
// it is absent. Environment overrides are applied last. The result is not
// validated: callers layer flags on top and call Validate themselves.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultFileName); err == nil {
			path = DefaultFileName
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
		var set struct {
			Audio struct {
				FFTSize *int `yaml:"fft_size"`
			} `yaml:"audio"`
		}
		if err := yaml.Unmarshal(data, &set); err == nil && set.Audio.FFTSize != nil {
			cfg.fftExplicit = true
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

// normalize lower-cases the enumerated names and, unless an FFT size was
// given explicitly, derives it from the unit count of the chosen profile.
func (c *Config) normalize() {
	c.Visual.Profile = normalizeName(c.Visual.Profile)
	c.Display.Mode = normalizeName(c.Display.Mode)
	c.Audio.Input = normalizeName(c.Audio.Input)
	if !c.fftExplicit {
		if units := c.units(); units > 0 {
			c.Audio.FFTSize = units * 2
		}
	}
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// applyEnvOverrides applies SPECTRA_* variables. Malformed numbers are an
// error rather than silently ignored.
func (c *Config) applyEnvOverrides() error {
	if v, ok := os.LookupEnv("SPECTRA_LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := os.LookupEnv("SPECTRA_PROFILE"); ok {
		c.Visual.Profile = v
	}
	if v, ok := os.LookupEnv("SPECTRA_DISPLAY"); ok {
		c.Display.Mode = v
	}
	if v, ok := os.LookupEnv("SPECTRA_FPS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: SPECTRA_FPS: %v", ErrInvalid, err)
		}
		c.Display.FPS = n
	}
	if v, ok := os.LookupEnv("SPECTRA_FFT_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: SPECTRA_FFT_SIZE: %v", ErrInvalid, err)
		}
		c.Audio.FFTSize = n
		c.fftExplicit = true
	}
	return nil
}

// ApplyProfile switches to the named profile and resets the FFT size to the
// one the profile expects, dropping any unit override.
func (c *Config) ApplyProfile(name string) {
	name = normalizeName(name)
	c.Visual.Profile = name
	c.Visual.Units = 0
	base, err := baseProfile(name)
	if err == nil {
		c.Audio.FFTSize = base.Units * 2
		c.fftExplicit = false
	}
}

// Validate checks the configuration as a whole.
func (c *Config) Validate() error {
	if _, err := analyzer.ParseWindow(c.Audio.Window); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := visualizer.ParseHueMode(c.Visual.HueMode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := baseProfile(c.Visual.Profile); err != nil {
		return err
	}

	switch c.Display.Mode {
	case DisplayTUI, DisplayWindow:
	default:
		return fmt.Errorf("%w: unknown display mode %q", ErrInvalid, c.Display.Mode)
	}
	switch c.Audio.Input {
	case InputFile, InputCapture:
	default:
		return fmt.Errorf("%w: unknown input %q", ErrInvalid, c.Audio.Input)
	}

	if c.Display.FPS < MinFPS || c.Display.FPS > MaxFPS {
		return fmt.Errorf("%w: fps %d outside [%d, %d]", ErrInvalid, c.Display.FPS, MinFPS, MaxFPS)
	}
	if c.Audio.FFTSize <= 0 || bits.OnesCount(uint(c.Audio.FFTSize)) != 1 {
		return fmt.Errorf("%w: fft_size must be a power of 2, got %d", ErrInvalid, c.Audio.FFTSize)
	}
	if units := c.units(); units != c.Audio.FFTSize/2 {
		return fmt.Errorf("%w: %d units need fft_size %d, got %d", ErrInvalid, units, units*2, c.Audio.FFTSize)
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		return fmt.Errorf("%w: volume %g outside [0, 1]", ErrInvalid, c.Audio.Volume)
	}
	if c.Capture.Channels < 1 || c.Capture.Channels > 2 {
		return fmt.Errorf("%w: capture channels must be 1 or 2, got %d", ErrInvalid, c.Capture.Channels)
	}
	if c.Capture.SampleRate <= 0 || c.Capture.FramesPerBuffer <= 0 {
		return fmt.Errorf("%w: capture sample_rate and frames_per_buffer must be positive", ErrInvalid)
	}
	return nil
}

func baseProfile(name string) (visualizer.Config, error) {
	switch strings.ToLower(name) {
	case ProfileCubes:
		return visualizer.Cubes(), nil
	case ProfileBars:
		return visualizer.Bars(), nil
	default:
		return visualizer.Config{}, fmt.Errorf("%w: unknown profile %q", ErrInvalid, name)
	}
}

func (c *Config) units() int {
	if c.Visual.Units > 0 {
		return c.Visual.Units
	}
	base, err := baseProfile(c.Visual.Profile)
	if err != nil {
		return 0
	}
	return base.Units
}

// MapperConfig returns the selected profile with overrides applied.
func (c *Config) MapperConfig() (visualizer.Config, error) {
	m, err := baseProfile(c.Visual.Profile)
	if err != nil {
		return m, err
	}
	if c.Visual.Units > 0 {
		m.Units = c.Visual.Units
	}
	if c.Visual.ScaleFactor > 0 {
		m.ScaleFactor = c.Visual.ScaleFactor
	}
	if c.Visual.Floor > 0 {
		m.Floor = c.Visual.Floor
	}
	if c.Visual.HueMode != "" {
		mode, err := visualizer.ParseHueMode(c.Visual.HueMode)
		if err != nil {
			return m, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		m.Hue = mode
	}
	if c.Visual.HueStep > 0 {
		m.HueStep = c.Visual.HueStep
	}
	m.Smoothing = c.Visual.Smoothing
	return m, nil
}

// AnalyzerConfig returns the analyzer settings.
func (c *Config) AnalyzerConfig() (analyzer.Config, error) {
	w, err := analyzer.ParseWindow(c.Audio.Window)
	if err != nil {
		return analyzer.Config{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return analyzer.Config{
		FFTSize:               c.Audio.FFTSize,
		Window:                w,
		SmoothingTimeConstant: c.Audio.SmoothingTimeConstant,
		MinDecibels:           c.Audio.MinDecibels,
		MaxDecibels:           c.Audio.MaxDecibels,
	}, nil
}
