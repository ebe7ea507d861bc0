package main

import (
	"fmt"

	"github.com/olivier-w/spectra/internal/analyzer"
	"github.com/olivier-w/spectra/internal/config"
	"github.com/olivier-w/spectra/internal/engine"
	"github.com/olivier-w/spectra/internal/log"
	"github.com/olivier-w/spectra/internal/render/window"
	"github.com/olivier-w/spectra/internal/visualizer"
)

// pipeline is the analysis half of a session: the analyzer that listens to
// the source and the mapper sized to its snapshots.
type pipeline struct {
	analyzer *analyzer.Analyzer
	mapper   *visualizer.Mapper
}

func newPipeline(cfg *config.Config) (*pipeline, error) {
	acfg, err := cfg.AnalyzerConfig()
	if err != nil {
		return nil, err
	}
	an, err := analyzer.New(acfg)
	if err != nil {
		return nil, err
	}
	mcfg, err := cfg.MapperConfig()
	if err != nil {
		return nil, err
	}
	mapper, err := visualizer.NewMapper(mcfg, an.Bins())
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", cfg.Visual.Profile, err)
	}
	log.Debugf("pipeline: %d bins, profile %s, window %s", an.Bins(), cfg.Visual.Profile, acfg.Window)
	return &pipeline{analyzer: an, mapper: mapper}, nil
}

func (p *pipeline) loop(r engine.Renderer) (*engine.Loop, error) {
	return engine.New(engine.Options{Analyzer: p.analyzer, Mapper: p.mapper, Renderer: r})
}

func windowMode(profile string) window.Mode {
	if profile == config.ProfileBars {
		return window.ModeBars
	}
	return window.ModeCubes
}

type track interface {
	Done() <-chan struct{}
	Restart() error
}

// trackLoop adds end-of-track handling to the loop the window drives. The
// terminal UI does the same through playbackEndedMsg.
type trackLoop struct {
	*engine.Loop
	track  track
	repeat bool
}

func (t *trackLoop) Tick() bool {
	if t.track != nil {
		select {
		case <-t.track.Done():
			t.ended()
		default:
		}
	}
	return t.Loop.Tick()
}

func (t *trackLoop) ended() {
	if !t.repeat {
		t.Loop.Rewind()
	}
	if err := t.track.Restart(); err != nil {
		log.Errorf("restart: %v", err)
		t.track = nil
	}
}
