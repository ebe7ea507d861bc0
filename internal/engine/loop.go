// Package engine ties an audio source, the spectrum analyzer, the mapper and
// a renderer together behind the playback state machine.
package engine

import (
	"errors"
	"fmt"

	"github.com/olivier-w/spectra/internal/log"
	"github.com/olivier-w/spectra/internal/playback"
	"github.com/olivier-w/spectra/internal/visualizer"
)

// AudioSource produces the audio the analyzer listens to.
type AudioSource interface {
	Start() error
	Suspend()
	Resume()
}

// Analyzer yields one frequency snapshot per tick.
type Analyzer interface {
	SampleFrequencies() visualizer.Snapshot
	Reset()
}

// Mapper converts a snapshot into visual parameters.
type Mapper interface {
	Map(visualizer.Snapshot) visualizer.ParameterSet
	Reset()
}

// Renderer draws a parameter set.
type Renderer interface {
	Render(visualizer.ParameterSet) error
	Resize(width, height int)
}

var ErrMissingComponent = errors.New("engine: missing component")

type Options struct {
	Source   AudioSource // may be nil until a track is loaded
	Analyzer Analyzer
	Mapper   Mapper
	Renderer Renderer
	Machine  *playback.Machine // a fresh Idle machine when nil
}

// Loop is the per-frame orchestration. It is not safe for concurrent use;
// the UI goroutine owns it.
type Loop struct {
	source   AudioSource
	analyzer Analyzer
	mapper   Mapper
	renderer Renderer
	machine  *playback.Machine
	started  bool
	frames   uint64
}

// New validates opts and returns a loop in the machine's current state.
func New(opts Options) (*Loop, error) {
	switch {
	case opts.Analyzer == nil:
		return nil, fmt.Errorf("%w: analyzer", ErrMissingComponent)
	case opts.Mapper == nil:
		return nil, fmt.Errorf("%w: mapper", ErrMissingComponent)
	case opts.Renderer == nil:
		return nil, fmt.Errorf("%w: renderer", ErrMissingComponent)
	}
	m := opts.Machine
	if m == nil {
		m = &playback.Machine{}
	}
	return &Loop{
		source:   opts.Source,
		analyzer: opts.Analyzer,
		mapper:   opts.Mapper,
		renderer: opts.Renderer,
		machine:  m,
	}, nil
}

func (l *Loop) State() playback.State { return l.machine.State() }

// Frames is the number of parameter sets handed to the renderer.
func (l *Loop) Frames() uint64 { return l.frames }

// SetSource replaces the audio source. It only takes effect on the next
// transition to Playing from Ready.
func (l *Loop) SetSource(src AudioSource) {
	l.source = src
	l.started = false
}

// SetView swaps mapper and renderer together so a profile change never
// pairs a mapper with the wrong renderer.
func (l *Loop) SetView(m Mapper, r Renderer) {
	l.mapper = m
	l.renderer = r
}

// MarkLoaded moves Idle to Ready once the source's decode has resolved
// without error.
func (l *Loop) MarkLoaded() error {
	if l.source == nil {
		return fmt.Errorf("%w: source", ErrMissingComponent)
	}
	return l.machine.Load()
}

// Play starts the source from Ready or resumes it from Paused.
func (l *Loop) Play() error {
	if l.source == nil {
		return fmt.Errorf("%w: source", ErrMissingComponent)
	}
	from, err := l.machine.Play()
	if err != nil {
		return err
	}
	if from == playback.Ready || !l.started {
		if err := l.source.Start(); err != nil {
			_ = l.machine.Pause()
			return fmt.Errorf("start source: %w", err)
		}
		l.started = true
		return nil
	}
	l.source.Resume()
	return nil
}

// Pause suspends the source. No frame is rendered until Play.
func (l *Loop) Pause() error {
	if err := l.machine.Pause(); err != nil {
		return err
	}
	l.source.Suspend()
	return nil
}

func (l *Loop) Toggle() error {
	if l.machine.Playing() {
		return l.Pause()
	}
	return l.Play()
}

// Rewind pauses playback if needed and drops analyzer and mapper history,
// so the next Play starts from a clean picture.
func (l *Loop) Rewind() {
	if l.machine.Playing() {
		if err := l.Pause(); err != nil {
			log.Warnf("engine: rewind pause: %v", err)
		}
	}
	l.analyzer.Reset()
	l.mapper.Reset()
}

// Tick runs one frame when Playing and reports whether another frame should
// be scheduled. Render failures are logged and do not stop the loop.
func (l *Loop) Tick() bool {
	if !l.machine.Playing() {
		return false
	}
	set := l.mapper.Map(l.analyzer.SampleFrequencies())
	if err := l.renderer.Render(set); err != nil {
		log.Errorf("engine: render frame %d: %v", l.frames, err)
	} else {
		l.frames++
	}
	return true
}

// Resize forwards a surface change to the renderer only.
func (l *Loop) Resize(width, height int) {
	l.renderer.Resize(width, height)
}
