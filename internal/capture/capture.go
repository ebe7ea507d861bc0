// Package capture records a live input device through PortAudio and feeds
// it to the analyzer.
package capture

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"

	"github.com/olivier-w/spectra/internal/log"
)

// DefaultDevice selects the host's default input.
const DefaultDevice = -1

var ErrInvalidDevice = errors.New("invalid input device")

// Tap receives captured audio as interleaved float32 in [-1, 1].
type Tap interface {
	Write(samples []float32, channels int)
}

type Options struct {
	DeviceID        int
	Channels        int
	SampleRate      float64
	FramesPerBuffer int
}

// stream is the part of a PortAudio stream the source drives.
type stream interface {
	Start() error
	Stop() error
	Close() error
}

var (
	paDevicesFunc      = portaudio.Devices
	paDefaultInputFunc = portaudio.DefaultInputDevice
	paOpenStreamFunc   = func(p portaudio.StreamParameters, cb func([]int32)) (stream, error) {
		return portaudio.OpenStream(p, cb)
	}
)

// Initialize must be called before any other function in this package and
// paired with Terminate.
func Initialize() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initialize portaudio: %w", err)
	}
	return nil
}

func Terminate() error {
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("terminate portaudio: %w", err)
	}
	return nil
}

// Source is a live AudioSource. The PortAudio callback thread writes to the
// tap; Suspend drops input without stopping the device.
type Source struct {
	tap      Tap
	channels int
	scratch  []float32
	stream   stream

	suspended atomic.Bool
	mu        sync.Mutex
	started   bool
	closed    bool
}

// Open resolves the device and opens an input stream. Nothing is captured
// until Start.
func Open(opts Options, tap Tap) (*Source, error) {
	if opts.Channels < 1 || opts.Channels > 2 {
		return nil, fmt.Errorf("capture: channels must be 1 or 2, got %d", opts.Channels)
	}
	dev, err := inputDevice(opts.DeviceID)
	if err != nil {
		return nil, err
	}
	if dev.MaxInputChannels < opts.Channels {
		return nil, fmt.Errorf("%w: %s has %d input channels, need %d", ErrInvalidDevice, dev.Name, dev.MaxInputChannels, opts.Channels)
	}

	s := newSource(tap, opts.Channels, opts.FramesPerBuffer)
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: opts.Channels,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      opts.SampleRate,
		FramesPerBuffer: opts.FramesPerBuffer,
	}
	st, err := paOpenStreamFunc(params, s.process)
	if err != nil {
		return nil, fmt.Errorf("open input stream on %s: %w", dev.Name, err)
	}
	s.stream = st
	log.Infof("capture: opened %s, %d ch at %.0f Hz", dev.Name, opts.Channels, opts.SampleRate)
	return s, nil
}

func newSource(tap Tap, channels, framesPerBuffer int) *Source {
	return &Source{
		tap:      tap,
		channels: channels,
		scratch:  make([]float32, channels*max(framesPerBuffer, 1)),
	}
}

// process runs on the PortAudio callback thread.
func (s *Source) process(in []int32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if s.suspended.Load() || s.tap == nil {
		return
	}
	if cap(s.scratch) < len(in) {
		s.scratch = make([]float32, len(in))
	}
	out := s.scratch[:len(in)]
	for i, v := range in {
		out[i] = float32(v) / (1 << 31)
	}
	s.tap.Write(out, s.channels)
}

// Start begins capturing. Calling it again is a no-op.
func (s *Source) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("capture: source closed")
	}
	if s.started {
		return nil
	}
	s.suspended.Store(false)
	if err := s.stream.Start(); err != nil {
		return fmt.Errorf("start input stream: %w", err)
	}
	s.started = true
	return nil
}

func (s *Source) Suspend() { s.suspended.Store(true) }
func (s *Source) Resume()  { s.suspended.Store(false) }

// Close stops and closes the stream. It is safe to call more than once.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.stream == nil {
		s.closed = true
		return nil
	}
	s.closed = true
	var errs []error
	if s.started {
		errs = append(errs, s.stream.Stop())
	}
	errs = append(errs, s.stream.Close())
	return errors.Join(errs...)
}
