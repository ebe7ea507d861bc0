// Package player decodes audio files and plays them through the system
// audio device, tapping the PCM for analysis on the way.
package player

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/olivier-w/spectra/internal/log"
)

const (
	defaultVolume = 0.8
	monitorPeriod = 100 * time.Millisecond
)

var ErrNotSeekable = errors.New("source is not seekable")

// countingReader tracks decoded bytes handed to the output.
type countingReader struct {
	r   io.Reader
	pos atomic.Int64
	eof atomic.Bool
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.pos.Add(int64(n))
	if errors.Is(err, io.EOF) {
		c.eof.Store(true)
	}
	return n, err
}

func (c *countingReader) Pos() int64 { return c.pos.Load() }

func (c *countingReader) SetPos(pos int64) {
	c.pos.Store(pos)
	c.eof.Store(false)
}

// Player plays one decoded track. It is created by Open and does not make
// a sound until Start.
type Player struct {
	mu        sync.Mutex
	decoder   audioDecoder
	counter   *countingReader
	tap       *tapReader
	newOutput func(io.Reader) output
	out       output

	bytesPerSec int64
	frameSize   int64
	duration    time.Duration
	volume      float64
	canSeek     bool

	started bool
	paused  bool
	done    chan struct{}
	stopMon chan struct{}

	closeOnce sync.Once
	cleanup   func()
}

func load(path string, tap Tap) (*Player, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	dec, err := newDecoder(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	newOutput, err := openOutput(dec.SampleRate(), dec.ChannelCount())
	if err != nil {
		f.Close()
		return nil, err
	}
	p := newPlayer(dec, tap, newOutput)
	p.cleanup = func() { f.Close() }
	log.Infof("player: opened %s (%d Hz, %d ch, %s)", path, dec.SampleRate(), dec.ChannelCount(), p.duration.Round(time.Second))
	return p, nil
}

func newPlayer(dec audioDecoder, tap Tap, newOutput func(io.Reader) output) *Player {
	channels := dec.ChannelCount()
	frame := int64(channels * bytesPerSample)
	bps := int64(dec.SampleRate()) * frame

	p := &Player{
		decoder:     dec,
		counter:     &countingReader{r: dec},
		newOutput:   newOutput,
		bytesPerSec: bps,
		frameSize:   frame,
		volume:      defaultVolume,
		canSeek:     dec.Length() > 0,
		paused:      true,
		done:        make(chan struct{}),
		stopMon:     make(chan struct{}),
	}
	p.tap = newTapReader(p.counter, tap, channels)
	if bps > 0 && dec.Length() > 0 {
		p.duration = time.Duration(float64(dec.Length()) / float64(bps) * float64(time.Second))
	}
	return p
}

func (p *Player) source() io.Reader {
	if p.tap != nil {
		return p.tap
	}
	return p.counter
}

// rebuildOutput replaces the device player so buffered audio from the old
// position is dropped. Callers hold p.mu.
func (p *Player) rebuildOutput() {
	if p.out != nil {
		p.out.Pause()
	}
	if p.tap != nil {
		p.tap.carry = p.tap.carry[:0]
	}
	p.out = p.newOutput(p.source())
	p.out.SetVolume(p.volume)
	if !p.paused {
		p.out.Play()
	}
}

// Start begins playback from the current position. Calling it again is a
// no-op.
func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return nil
	}
	if p.newOutput == nil {
		return errors.New("player: no audio output")
	}
	p.started = true
	p.paused = false
	p.rebuildOutput()
	go p.monitor(p.done)
	return nil
}

// Suspend pauses the device player.
func (p *Player) Suspend() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = true
	if p.out != nil {
		p.out.Pause()
	}
}

// Resume continues after Suspend.
func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = false
	if p.out != nil {
		p.out.Play()
	}
}

func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// monitor closes done once the track has been fully played.
func (p *Player) monitor(done chan struct{}) {
	t := time.NewTicker(monitorPeriod)
	defer t.Stop()
	for {
		select {
		case <-p.stopMon:
			return
		case <-t.C:
		}

		p.mu.Lock()
		if p.done != done {
			// Restart replaced the channel and its own monitor took over.
			p.mu.Unlock()
			return
		}
		finished := !p.paused && p.out != nil && !p.out.IsPlaying() &&
			(p.counter.eof.Load() || p.counter.Pos() >= p.decoder.Length())
		p.mu.Unlock()

		if finished {
			close(done)
			return
		}
	}
}

// Done returns a channel that closes when playback reaches the end.
func (p *Player) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Restart rewinds to the beginning and renews Done. Playback continues
// unless the player is suspended.
func (p *Player) Restart() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.seekLocked(0); err != nil {
		return err
	}
	p.done = make(chan struct{})
	if p.started {
		p.rebuildOutput()
		go p.monitor(p.done)
	}
	return nil
}

// Position returns the playback position.
func (p *Player) Position() time.Duration {
	if p.bytesPerSec <= 0 {
		return 0
	}
	secs := float64(p.counter.Pos()) / float64(p.bytesPerSec)
	return time.Duration(secs * float64(time.Second))
}

func (p *Player) Duration() time.Duration { return p.duration }

// clampSeekByteOffset converts target to a byte offset within [0, total],
// aligned down to a whole sample frame.
func clampSeekByteOffset(target time.Duration, bytesPerSec, total, frameSize int64) int64 {
	off := int64(target.Seconds() * float64(bytesPerSec))
	off = max(0, min(off, total))
	if frameSize > 0 {
		off -= off % frameSize
	}
	return off
}

func (p *Player) seekLocked(off int64) error {
	if !p.canSeek {
		return ErrNotSeekable
	}
	if _, err := p.decoder.Seek(off, io.SeekStart); err != nil {
		return fmt.Errorf("seek: %w", err)
	}
	p.counter.SetPos(off)
	return nil
}

// SeekTo jumps to target. With resume false the player is left suspended.
func (p *Player) SeekTo(target time.Duration, resume bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	off := clampSeekByteOffset(target, p.bytesPerSec, p.decoder.Length(), p.frameSize)
	if err := p.seekLocked(off); err != nil {
		return err
	}
	p.paused = !resume
	if p.started {
		p.rebuildOutput()
	}
	return nil
}

// Seek moves by delta from the current position, keeping the play state.
func (p *Player) Seek(delta time.Duration) error {
	return p.SeekTo(p.Position()+delta, !p.Paused())
}

func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// SetVolume sets the volume, clamped to [0, 1].
func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = max(0, min(v, 1))
	if p.out != nil {
		p.out.SetVolume(p.volume)
	}
}

func (p *Player) AdjustVolume(delta float64) {
	p.SetVolume(p.Volume() + delta)
}

// Close stops playback and releases the file. It is safe to call more
// than once.
func (p *Player) Close() {
	p.closeOnce.Do(func() {
		close(p.stopMon)
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.out != nil {
			p.out.Pause()
		}
		if p.cleanup != nil {
			p.cleanup()
		}
	})
}
