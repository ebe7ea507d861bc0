package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/olivier-w/spectra/internal/config"
	"github.com/olivier-w/spectra/internal/media"
)

func parse(t *testing.T, args ...string) (*Options, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	return ParseArgs("test", args)
}

func TestParseArgsDefaults(t *testing.T) {
	opts, err := parse(t, "song.mp3")
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if opts.Path != "song.mp3" || opts.Command != "" {
		t.Fatalf("unexpected options %+v", opts)
	}
	cfg := opts.Config
	if cfg.Visual.Profile != config.ProfileCubes || cfg.Audio.FFTSize != 64 || cfg.Display.FPS != 60 {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestParseArgsProfileResetsFFTSize(t *testing.T) {
	opts, err := parse(t, "--profile", "bars", "song.wav")
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if opts.Config.Visual.Profile != config.ProfileBars || opts.Config.Audio.FFTSize != 128 {
		t.Fatalf("expected bars at fft 128, got %s at %d", opts.Config.Visual.Profile, opts.Config.Audio.FFTSize)
	}
}

func TestParseArgsUnitsImplyFFTSize(t *testing.T) {
	opts, err := parse(t, "-u", "16", "--fps", "30", "song.flac")
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if opts.Config.Visual.Units != 16 || opts.Config.Audio.FFTSize != 32 || opts.Config.Display.FPS != 30 {
		t.Fatalf("unexpected config %+v", opts.Config)
	}
}

func TestParseArgsRejectsMismatchedFFTSize(t *testing.T) {
	_, err := parse(t, "--units", "16", "--fft-size", "256", "song.ogg")
	if !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestParseArgsRequiresFileForFileInput(t *testing.T) {
	if _, err := parse(t); !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("expected ErrInvalid without a file, got %v", err)
	}
	if _, err := parse(t, "notes.txt"); !errors.Is(err, media.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestParseArgsCaptureNeedsNoFile(t *testing.T) {
	opts, err := parse(t, "--input", "capture", "-d", "3")
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if opts.Config.Audio.Input != config.InputCapture || opts.Config.Capture.DeviceID != 3 {
		t.Fatalf("unexpected capture config %+v", opts.Config.Capture)
	}
}

func TestParseArgsDevicesCommand(t *testing.T) {
	opts, err := parse(t, "devices")
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if opts.Command != CommandDevices || opts.Config == nil {
		t.Fatalf("expected devices command with config, got %+v", opts)
	}
}

func TestParseArgsFlagsOverrideConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	yaml := "visual:\n  profile: bars\naudio:\n  fft_size: 128\ndisplay:\n  fps: 24\n"
	if err := os.WriteFile(filepath.Join(dir, config.DefaultFileName), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	opts, err := ParseArgs("test", []string{"--fps", "50", "--log-level", "debug", "song.mp3"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	cfg := opts.Config
	if cfg.Visual.Profile != config.ProfileBars || cfg.Display.FPS != 50 || cfg.Log.Level != "debug" {
		t.Fatalf("expected file profile with flag fps, got %+v", cfg)
	}
}

func TestParseArgsHelpResolvesNothing(t *testing.T) {
	opts, err := parse(t, "--help")
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if opts.Config != nil {
		t.Fatal("expected no config when only help was shown")
	}
}

func TestParseArgsEnvProfileAlone(t *testing.T) {
	t.Setenv("SPECTRA_PROFILE", "bars")
	opts, err := parse(t, "song.mp3")
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if opts.Config.Visual.Profile != config.ProfileBars || opts.Config.Audio.FFTSize != 128 {
		t.Fatalf("expected bars at fft 128, got %s at %d", opts.Config.Visual.Profile, opts.Config.Audio.FFTSize)
	}
}

func TestParseArgsFlagOverridesEnvProfile(t *testing.T) {
	t.Setenv("SPECTRA_PROFILE", "bars")
	for _, profile := range []string{"cubes", "Bars"} {
		opts, err := parse(t, "--profile", profile, "song.mp3")
		if err != nil {
			t.Fatalf("--profile %s: %v", profile, err)
		}
		want := strings.ToLower(profile)
		if opts.Config.Visual.Profile != want {
			t.Fatalf("expected profile %s, got %s", want, opts.Config.Visual.Profile)
		}
	}
}

func TestParseArgsUnitsFlagWithEnvFFTSize(t *testing.T) {
	t.Setenv("SPECTRA_FFT_SIZE", "128")
	opts, err := parse(t, "--units", "64", "song.mp3")
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if opts.Config.Visual.Units != 64 || opts.Config.Audio.FFTSize != 128 {
		t.Fatalf("expected 64 units at fft 128, got %d at %d", opts.Config.Visual.Units, opts.Config.Audio.FFTSize)
	}
}

func TestParseArgsFlagRepairsEnvValue(t *testing.T) {
	t.Setenv("SPECTRA_FPS", "0")
	opts, err := parse(t, "--fps", "30", "song.mp3")
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if opts.Config.Display.FPS != 30 {
		t.Fatalf("expected fps 30, got %d", opts.Config.Display.FPS)
	}
}
