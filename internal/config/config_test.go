package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/olivier-w/spectra/internal/analyzer"
	"github.com/olivier-w/spectra/internal/visualizer"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spectra.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfigDefaultsWhenNoFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Visual.Profile != ProfileCubes || cfg.Audio.FFTSize != 64 {
		t.Fatalf("expected cubes profile with fft 64, got %s/%d", cfg.Visual.Profile, cfg.Audio.FFTSize)
	}
	if cfg.Display.FPS != 60 || cfg.Display.Mode != DisplayTUI {
		t.Fatalf("unexpected display defaults: %+v", cfg.Display)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeTempConfig(t, `
log:
  level: debug
audio:
  fft_size: 128
  window: hann
visual:
  profile: bars
display:
  fps: 30
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Audio.Window != "hann" || cfg.Display.FPS != 30 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	// Unset keys keep their defaults.
	if cfg.Audio.MinDecibels != -100 || cfg.Capture.FramesPerBuffer != 512 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadConfigFindsDefaultFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(DefaultFileName, []byte("display:\n  fps: 24\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Display.FPS != 24 {
		t.Fatalf("expected fps 24 from %s, got %d", DefaultFileName, cfg.Display.FPS)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadConfigBadYAML(t *testing.T) {
	path := writeTempConfig(t, "audio: [unterminated")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SPECTRA_PROFILE", "bars")
	t.Setenv("SPECTRA_FFT_SIZE", "128")
	t.Setenv("SPECTRA_FPS", "90")
	t.Setenv("SPECTRA_DISPLAY", "window")
	t.Setenv("SPECTRA_LOG_LEVEL", "warn")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Visual.Profile != ProfileBars || cfg.Audio.FFTSize != 128 || cfg.Display.FPS != 90 ||
		cfg.Display.Mode != DisplayWindow || cfg.Log.Level != "warn" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestEnvOverrideRejectsMalformedNumber(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SPECTRA_FPS", "fast")
	if _, err := LoadConfig(""); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"fft not power of two", func(c *Config) { c.Audio.FFTSize = 96 }},
		{"units mismatch fft", func(c *Config) { c.Visual.Units = 16 }},
		{"bars with cube fft", func(c *Config) { c.Visual.Profile = ProfileBars }},
		{"fps zero", func(c *Config) { c.Display.FPS = 0 }},
		{"fps too high", func(c *Config) { c.Display.FPS = 500 }},
		{"unknown profile", func(c *Config) { c.Visual.Profile = "spheres" }},
		{"unknown display", func(c *Config) { c.Display.Mode = "web" }},
		{"unknown input", func(c *Config) { c.Audio.Input = "stream" }},
		{"unknown window", func(c *Config) { c.Audio.Window = "kaiser" }},
		{"unknown hue mode", func(c *Config) { c.Visual.HueMode = "rainbow" }},
		{"volume above one", func(c *Config) { c.Audio.Volume = 2 }},
		{"three capture channels", func(c *Config) { c.Capture.Channels = 3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestApplyProfileKeepsFFTInStep(t *testing.T) {
	cfg := Default()
	cfg.ApplyProfile(ProfileBars)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate after ApplyProfile: %v", err)
	}
	if cfg.Audio.FFTSize != 128 {
		t.Fatalf("expected fft 128 for bars, got %d", cfg.Audio.FFTSize)
	}
}

func TestMapperConfigAppliesOverrides(t *testing.T) {
	cfg := Default()
	cfg.Visual.ScaleFactor = 10
	cfg.Visual.HueMode = "step"
	cfg.Visual.HueStep = 3
	cfg.Visual.Smoothing = true

	m, err := cfg.MapperConfig()
	if err != nil {
		t.Fatalf("MapperConfig: %v", err)
	}
	if m.Units != 32 || m.ScaleFactor != 10 || m.Hue != visualizer.HueStep || m.HueStep != 3 || !m.Smoothing {
		t.Fatalf("unexpected mapper config: %+v", m)
	}
	if m.Floor != 0.1 {
		t.Fatalf("expected profile floor kept, got %v", m.Floor)
	}
}

func TestAnalyzerConfigMatchesMapperUnits(t *testing.T) {
	for _, profile := range []string{ProfileCubes, ProfileBars} {
		cfg := Default()
		cfg.ApplyProfile(profile)

		a, err := cfg.AnalyzerConfig()
		if err != nil {
			t.Fatalf("%s: AnalyzerConfig: %v", profile, err)
		}
		m, err := cfg.MapperConfig()
		if err != nil {
			t.Fatalf("%s: MapperConfig: %v", profile, err)
		}
		if a.Bins() != m.Units {
			t.Fatalf("%s: %d bins for %d units", profile, a.Bins(), m.Units)
		}
		if a.Window != analyzer.Blackman {
			t.Fatalf("%s: expected blackman window, got %s", profile, a.Window)
		}
	}
}

func TestEnvProfileAloneDerivesFFTSize(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SPECTRA_PROFILE", "bars")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Audio.FFTSize != 128 {
		t.Fatalf("expected fft 128 for bars, got %d", cfg.Audio.FFTSize)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestFileProfileAloneDerivesFFTSize(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		fft  int
	}{
		{"bars", "visual:\n  profile: bars\n", 128},
		{"bars with units", "visual:\n  profile: bars\n  units: 16\n", 32},
		{"cubes", "visual:\n  profile: cubes\n", 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(writeTempConfig(t, tt.yaml))
			if err != nil {
				t.Fatalf("LoadConfig: %v", err)
			}
			if cfg.Audio.FFTSize != tt.fft {
				t.Fatalf("expected fft %d, got %d", tt.fft, cfg.Audio.FFTSize)
			}
			if err := cfg.Validate(); err != nil {
				t.Fatalf("Validate: %v", err)
			}
		})
	}
}

func TestExplicitFFTSizeIsKept(t *testing.T) {
	cfg, err := LoadConfig(writeTempConfig(t, "audio:\n  fft_size: 64\nvisual:\n  profile: bars\n"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Audio.FFTSize != 64 {
		t.Fatalf("expected explicit fft 64 kept, got %d", cfg.Audio.FFTSize)
	}
	if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for bars at fft 64, got %v", err)
	}

	t.Chdir(t.TempDir())
	t.Setenv("SPECTRA_PROFILE", "bars")
	t.Setenv("SPECTRA_FFT_SIZE", "64")
	cfg, err = LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Audio.FFTSize != 64 {
		t.Fatalf("expected env fft 64 kept, got %d", cfg.Audio.FFTSize)
	}
}

func TestLoadConfigLeavesValidationToCaller(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SPECTRA_FPS", "0")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid from Validate, got %v", err)
	}
}

func TestProfileNamesAreNormalised(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SPECTRA_PROFILE", " Bars ")
	t.Setenv("SPECTRA_DISPLAY", "WINDOW")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Visual.Profile != ProfileBars || cfg.Display.Mode != DisplayWindow {
		t.Fatalf("expected lower-case names, got %q and %q", cfg.Visual.Profile, cfg.Display.Mode)
	}

	cfg.ApplyProfile("CUBES")
	if cfg.Visual.Profile != ProfileCubes || cfg.Audio.FFTSize != 64 {
		t.Fatalf("expected cubes at fft 64, got %q at %d", cfg.Visual.Profile, cfg.Audio.FFTSize)
	}
}
