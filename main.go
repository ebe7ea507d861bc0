package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/spectra/cmd"
	"github.com/olivier-w/spectra/internal/capture"
	"github.com/olivier-w/spectra/internal/config"
	"github.com/olivier-w/spectra/internal/engine"
	"github.com/olivier-w/spectra/internal/log"
	"github.com/olivier-w/spectra/internal/player"
	"github.com/olivier-w/spectra/internal/render/window"
	"github.com/olivier-w/spectra/internal/ui"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts, err := cmd.ParseArgs(version, os.Args[1:])
	if err != nil {
		return err
	}
	if opts.Config == nil {
		return nil
	}
	cfg := opts.Config

	closeLog, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	if opts.Command == cmd.CommandDevices {
		return listDevices()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipe, err := newPipeline(cfg)
	if err != nil {
		return err
	}

	var (
		pending *player.Pending
		source  engine.AudioSource
	)
	if cfg.Audio.Input == config.InputCapture {
		if err := capture.Initialize(); err != nil {
			return err
		}
		defer capture.Terminate()

		src, err := capture.Open(capture.Options{
			DeviceID:        cfg.Capture.DeviceID,
			Channels:        cfg.Capture.Channels,
			SampleRate:      cfg.Capture.SampleRate,
			FramesPerBuffer: cfg.Capture.FramesPerBuffer,
		}, pipe.analyzer)
		if err != nil {
			return err
		}
		defer src.Close()
		source = src
	} else {
		pending = player.Open(opts.Path, pipe.analyzer)
		defer closePending(pending)
	}

	if cfg.Display.Mode == config.DisplayWindow {
		return runWindow(ctx, cfg, pipe, pending, source)
	}
	return runTUI(cfg, pipe, pending, source)
}

// setupLogging sends log output to a file in the terminal UI, where stderr
// would corrupt the screen.
func setupLogging(cfg *config.Config) (func(), error) {
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	log.SetLevel(level)

	path := cfg.Log.File
	if path == "" && cfg.Display.Mode == config.DisplayTUI {
		path = "spectra.log"
	}
	if path == "" {
		return func() {}, nil
	}
	f, err := tea.LogToFile(path, "")
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(f)
	return func() { f.Close() }, nil
}

func listDevices() error {
	if err := capture.Initialize(); err != nil {
		return err
	}
	defer capture.Terminate()

	devices, err := capture.Devices()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tHOST API\tCHANNELS\tRATE\t")
	for _, d := range devices {
		name := d.Name
		if d.Default {
			name += " (default)"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%.0f\t\n", d.ID, name, d.HostAPI, d.MaxInputChannels, d.DefaultSampleRate)
	}
	return w.Flush()
}

func runTUI(cfg *config.Config, pipe *pipeline, pending *player.Pending, source engine.AudioSource) error {
	view := ui.NewView(cfg.Visual.Profile, pipe.mapper)
	loop, err := pipe.loop(view)
	if err != nil {
		return err
	}
	title := ""
	if source != nil {
		title = "live input"
	}
	model := ui.New(ui.Options{
		Loop:    loop,
		View:    view,
		Config:  cfg,
		Bins:    pipe.analyzer.Bins(),
		Pending: pending,
		Source:  source,
		Title:   title,
	})
	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}

func runWindow(ctx context.Context, cfg *config.Config, pipe *pipeline, pending *player.Pending, source engine.AudioSource) error {
	renderer := window.NewRenderer(windowMode(cfg.Visual.Profile), pipe.mapper.MaxIntensity())
	loop, err := pipe.loop(renderer)
	if err != nil {
		return err
	}

	tl := &trackLoop{Loop: loop, repeat: cfg.Audio.Repeat}
	title := "spectra - live input"
	if pending != nil {
		p, err := pending.Wait(ctx)
		if err != nil {
			return fmt.Errorf("decode %s: %w", pending.Path(), err)
		}
		p.SetVolume(cfg.Audio.Volume)
		source = p
		tl.track = p
		title = "spectra - " + player.ReadMetadata(pending.Path()).String()
	}

	loop.SetSource(source)
	if err := loop.MarkLoaded(); err != nil {
		return err
	}
	if err := loop.Play(); err != nil {
		return err
	}
	return window.Run(window.NewGame(tl, renderer), title, cfg.Display.Width, cfg.Display.Height, cfg.Display.FPS)
}

// closePending releases the player once its decode has resolved. A decode
// still running when the program exits is abandoned.
func closePending(p *player.Pending) {
	select {
	case <-p.Done():
	default:
		return
	}
	if pl, err := p.Wait(context.Background()); err == nil {
		pl.Close()
	}
}
