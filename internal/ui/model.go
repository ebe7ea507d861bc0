package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/spectra/internal/config"
	"github.com/olivier-w/spectra/internal/engine"
	"github.com/olivier-w/spectra/internal/log"
	"github.com/olivier-w/spectra/internal/playback"
	"github.com/olivier-w/spectra/internal/player"
	"github.com/olivier-w/spectra/internal/render"
	"github.com/olivier-w/spectra/internal/visualizer"
)

const (
	seekStep   = 5 * time.Second
	volumeStep = 0.05

	// header, title, blank, blank, progress, status, help
	chromeLines = 7
)

// View is a terminal renderer whose last frame is a printable string.
type View interface {
	engine.Renderer
	View() string
}

// NewView builds the terminal renderer for a profile.
func NewView(profile string, m *visualizer.Mapper) View {
	if profile == config.ProfileBars {
		return render.NewBars(m.MaxIntensity())
	}
	return render.NewCubes()
}

// Options wires a Model. Exactly one of Pending or Source is set: Pending
// for a decoded file, Source for live capture.
type Options struct {
	Loop    *engine.Loop
	View    View
	Config  *config.Config
	Bins    int // analyzer snapshot width, fixed for the session
	Pending *player.Pending
	Source  engine.AudioSource
	Title   string
}

// Model is the terminal front end. It owns the frame loop: every frameMsg
// runs one Tick on the UI goroutine.
type Model struct {
	loop    *engine.Loop
	view    View
	cfg     *config.Config
	profile string
	bins    int

	pending *player.Pending
	player  *player.Player
	source  engine.AudioSource

	metadata player.Metadata
	title    string
	spinner  spinner.Model
	help     help.Model
	keys     keyMap

	fps int
	gen uint64

	elapsed  time.Duration
	duration time.Duration
	volume   float64
	repeat   bool

	width    int
	height   int
	err      error
	quitting bool
}

func New(opts Options) Model {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(spinnerStyle))
	m := Model{
		loop:    opts.Loop,
		view:    opts.View,
		cfg:     opts.Config,
		profile: opts.Config.Visual.Profile,
		bins:    opts.Bins,
		pending: opts.Pending,
		source:  opts.Source,
		title:   opts.Title,
		spinner: sp,
		help:    help.New(),
		keys:    newKeyMap(opts.Pending != nil),
		fps:     opts.Config.Display.FPS,
		volume:  opts.Config.Audio.Volume,
		repeat:  opts.Config.Audio.Repeat,
	}
	if opts.Pending != nil {
		m.metadata = player.ReadMetadata(opts.Pending.Path())
		if m.title == "" {
			m.title = m.metadata.String()
		}
	}
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.SetWindowTitle(m.windowTitle()), statusTickCmd()}
	if m.pending != nil {
		cmds = append(cmds, m.spinner.Tick, waitLoaded(m.pending))
	} else {
		cmds = append(cmds, func() tea.Msg { return loadedMsg{} })
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m.handleMsg(msg)
}

func (m Model) handleMsg(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case frameMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		if m.loop.Tick() {
			return m, frameCmd(m.fps, m.gen)
		}
		return m, nil

	case loadedMsg:
		return m, m.loaded(msg)

	case playbackEndedMsg:
		if msg.player != m.player || m.player == nil {
			return m, nil
		}
		return m, m.trackEnded()

	case statusTickMsg:
		if m.player != nil {
			m.elapsed = m.player.Position()
			m.volume = m.player.Volume()
		}
		if m.quitting {
			return m, nil
		}
		return m, statusTickCmd()

	case spinner.TickMsg:
		if m.loop.State() != playback.Idle || m.err != nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.loop.Resize(m.surface())
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Toggle):
		return m, m.toggle()

	case key.Matches(msg, m.keys.SwitchView):
		m.switchView()
		return m, nil

	case key.Matches(msg, m.keys.SeekBack):
		m.seek(-seekStep)
	case key.Matches(msg, m.keys.SeekForward):
		m.seek(seekStep)

	case key.Matches(msg, m.keys.VolumeUp):
		m.adjustVolume(volumeStep)
	case key.Matches(msg, m.keys.VolumeDown):
		m.adjustVolume(-volumeStep)

	case key.Matches(msg, m.keys.Repeat):
		m.repeat = !m.repeat
	}
	return m, nil
}

// loaded finishes the Idle to Ready transition and starts playback. A
// decode failure is kept for display and leaves the loop Idle.
func (m *Model) loaded(msg loadedMsg) tea.Cmd {
	if msg.err != nil {
		m.err = msg.err
		log.Errorf("decode %s: %v", m.title, msg.err)
		return nil
	}

	var cmds []tea.Cmd
	if msg.player != nil {
		m.player = msg.player
		m.player.SetVolume(m.volume)
		m.duration = m.player.Duration()
		m.loop.SetSource(m.player)
		cmds = append(cmds, waitDone(m.player))
	} else {
		m.loop.SetSource(m.source)
	}
	if err := m.loop.MarkLoaded(); err != nil {
		m.err = err
		return nil
	}
	cmds = append(cmds, m.play())
	return tea.Batch(cmds...)
}

func (m *Model) play() tea.Cmd {
	if err := m.loop.Play(); err != nil {
		m.err = err
		log.Errorf("play: %v", err)
		return nil
	}
	m.err = nil
	m.gen++
	return frameCmd(m.fps, m.gen)
}

// toggle flips play and pause. Either way the generation moves on, so a
// frame scheduled before the switch never renders.
func (m *Model) toggle() tea.Cmd {
	switch m.loop.State() {
	case playback.Playing:
		if err := m.loop.Pause(); err != nil {
			log.Warnf("pause: %v", err)
			return nil
		}
		m.gen++
		return nil
	case playback.Ready, playback.Paused:
		return m.play()
	}
	return nil
}

// trackEnded repeats the track or rewinds it to a paused start.
func (m *Model) trackEnded() tea.Cmd {
	if !m.repeat {
		m.loop.Rewind()
		m.gen++
	}
	if err := m.player.Restart(); err != nil {
		m.err = err
		log.Errorf("restart: %v", err)
		return nil
	}
	m.elapsed = 0
	return waitDone(m.player)
}

func (m *Model) switchView() {
	next := config.ProfileBars
	if m.profile == config.ProfileBars {
		next = config.ProfileCubes
	}

	cfg := *m.cfg
	cfg.Visual.Profile = next
	cfg.Visual.Units = m.bins
	mc, err := cfg.MapperConfig()
	if err != nil {
		log.Warnf("switch view: %v", err)
		return
	}
	mapper, err := visualizer.NewMapper(mc, m.bins)
	if err != nil {
		log.Warnf("switch view: %v", err)
		return
	}
	view := NewView(next, mapper)
	view.Resize(m.surface())

	m.loop.SetView(mapper, view)
	m.view = view
	m.profile = next
	log.Debugf("view switched to %s", next)
}

func (m *Model) seek(delta time.Duration) {
	if m.player == nil {
		return
	}
	if err := m.player.Seek(delta); err != nil {
		if !errors.Is(err, player.ErrNotSeekable) {
			log.Warnf("seek: %v", err)
		}
		return
	}
	m.elapsed = m.player.Position()
}

func (m *Model) adjustVolume(delta float64) {
	if m.player == nil {
		return
	}
	m.player.AdjustVolume(delta)
	m.volume = m.player.Volume()
}

func (m *Model) close() {
	if m.player != nil {
		m.player.Close()
	}
}

func (m Model) surface() (int, int) {
	w := m.width
	h := m.height - chromeLines
	if w <= 0 {
		w = 80
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("spectra · " + m.profile))
	b.WriteString("\n")

	b.WriteString(titleStyle.Render(m.title))
	if m.metadata.Album != "" {
		b.WriteString(" " + artistStyle.Render(m.metadata.Album))
	}
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render("error: " + m.err.Error()))
	case m.loop.State() == playback.Idle:
		b.WriteString(m.spinner.View() + " decoding " + m.title)
	default:
		b.WriteString(m.view.View())
	}
	b.WriteString("\n\n")

	if m.player != nil {
		barWidth := max(m.width-20, 10)
		b.WriteString(renderProgressBar(m.elapsed, m.duration, barWidth))
		b.WriteString(" ")
		b.WriteString(timeStyle.Render(FormatDuration(m.elapsed) + " / " + FormatDuration(m.duration)))
	}
	b.WriteString("\n")

	status := []string{m.loop.State().String()}
	if m.player != nil {
		status = append(status, renderVolumePercent(m.volume))
	}
	if r := repeatLabel(m.repeat); r != "" {
		status = append(status, r)
	}
	status = append(status, fmt.Sprintf("%d fps", m.fps))
	b.WriteString(statusStyle.Render(strings.Join(status, "  ")))
	b.WriteString("\n")

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) windowTitle() string {
	if m.title == "" {
		return "spectra"
	}
	return "spectra - " + m.title
}
