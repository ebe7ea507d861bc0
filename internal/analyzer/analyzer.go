// Package analyzer turns live PCM into per-frame byte spectra.
//
// The conversion follows the browser analyser node: a windowed real FFT,
// magnitudes normalised by the FFT size, exponential smoothing across
// frames, then a linear map of the decibel range onto 0..255.
package analyzer

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/olivier-w/spectra/internal/visualizer"
)

const (
	MinFFTSize = 32
	MaxFFTSize = 32768

	DefaultFFTSize               = 64
	DefaultSmoothingTimeConstant = 0.8
	DefaultMinDecibels           = -100
	DefaultMaxDecibels           = -30
)

// ErrInvalidConfig wraps every rejected analyzer configuration.
var ErrInvalidConfig = errors.New("invalid analyzer config")

// Config sets the FFT size and byte-conversion range.
type Config struct {
	FFTSize               int
	Window                Window
	SmoothingTimeConstant float64 // weight of the previous frame, [0,1]
	MinDecibels           float64
	MaxDecibels           float64
}

// DefaultConfig matches the 32-bin analyser of the cube scene.
func DefaultConfig() Config {
	return Config{
		FFTSize:               DefaultFFTSize,
		Window:                Blackman,
		SmoothingTimeConstant: DefaultSmoothingTimeConstant,
		MinDecibels:           DefaultMinDecibels,
		MaxDecibels:           DefaultMaxDecibels,
	}
}

// Validate reports whether cfg can build an analyzer.
func (c Config) Validate() error {
	switch {
	case c.FFTSize < MinFFTSize || c.FFTSize > MaxFFTSize:
		return fmt.Errorf("%w: fft size %d outside [%d, %d]", ErrInvalidConfig, c.FFTSize, MinFFTSize, MaxFFTSize)
	case bits.OnesCount(uint(c.FFTSize)) != 1:
		return fmt.Errorf("%w: fft size must be a power of 2, got %d", ErrInvalidConfig, c.FFTSize)
	case c.SmoothingTimeConstant < 0 || c.SmoothingTimeConstant > 1:
		return fmt.Errorf("%w: smoothing time constant %g outside [0, 1]", ErrInvalidConfig, c.SmoothingTimeConstant)
	case c.MinDecibels >= c.MaxDecibels:
		return fmt.Errorf("%w: min decibels %g must be below max %g", ErrInvalidConfig, c.MinDecibels, c.MaxDecibels)
	}
	return nil
}

// Bins is the snapshot width for an FFT of this size.
func (c Config) Bins() int { return c.FFTSize / 2 }

// Analyzer holds preallocated FFT state. Write may be called from the audio
// goroutine; SampleFrequencies and Reset belong to the frame loop.
type Analyzer struct {
	cfg      Config
	fft      *fourier.FFT
	ring     *ring
	window   []float64
	input    []float64
	coeffs   []complex128
	smoothed []float64
	out      visualizer.Snapshot
}

// New builds an analyzer. The bin count is fixed for its lifetime.
func New(cfg Config) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := cfg.FFTSize
	return &Analyzer{
		cfg:      cfg,
		fft:      fourier.NewFFT(n),
		ring:     newRing(n),
		window:   cfg.Window.coefficients(n),
		input:    make([]float64, n),
		coeffs:   make([]complex128, n/2+1),
		smoothed: make([]float64, n/2),
		out:      make(visualizer.Snapshot, n/2),
	}, nil
}

// Config returns the analyzer configuration.
func (a *Analyzer) Config() Config { return a.cfg }

// Bins returns the snapshot width.
func (a *Analyzer) Bins() int { return len(a.out) }

// Write feeds interleaved samples in [-1,1].
func (a *Analyzer) Write(samples []float32, channels int) {
	a.ring.write(samples, channels)
}

// Reset forgets buffered audio and smoothing history.
func (a *Analyzer) Reset() {
	a.ring.clear()
	clear(a.smoothed)
	clear(a.out)
}

// SampleFrequencies computes the spectrum of the most recent FFTSize
// samples. The returned snapshot is the analyzer's own buffer and is
// overwritten by the next call. With no audio buffered it is all zero.
func (a *Analyzer) SampleFrequencies() visualizer.Snapshot {
	a.ring.latest(a.input)
	for i, w := range a.window {
		a.input[i] *= w
	}
	a.fft.Coefficients(a.coeffs, a.input)

	tau := a.cfg.SmoothingTimeConstant
	scale := 1 / float64(a.cfg.FFTSize)
	dbRange := a.cfg.MaxDecibels - a.cfg.MinDecibels

	for k := range a.out {
		mag := cmplx.Abs(a.coeffs[k]) * scale
		a.smoothed[k] = tau*a.smoothed[k] + (1-tau)*mag
		a.out[k] = toByte(a.smoothed[k], a.cfg.MinDecibels, dbRange)
	}
	return a.out
}

func toByte(mag, minDB, dbRange float64) uint8 {
	if mag <= 0 {
		return 0
	}
	db := 20 * math.Log10(mag)
	v := 255 * (db - minDB) / dbRange
	switch {
	case v <= 0 || math.IsNaN(v):
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}
