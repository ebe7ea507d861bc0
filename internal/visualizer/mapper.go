package visualizer

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrUnitMismatch is returned when the unit count differs from the
	// snapshot length the mapper will be fed.
	ErrUnitMismatch = errors.New("unit count does not match snapshot length")
	// ErrInvalidConfig is returned for non-positive scales, floors or counts.
	ErrInvalidConfig = errors.New("invalid mapper config")
)

// HueMode selects how a unit's position maps onto the colour wheel.
type HueMode uint8

const (
	// HueSpread spreads the full wheel across all units: index/units*360.
	HueSpread HueMode = iota
	// HueStep advances a fixed number of degrees per unit: index*step.
	HueStep
)

// String returns the config name of the mode.
func (h HueMode) String() string {
	switch h {
	case HueStep:
		return "step"
	default:
		return "spread"
	}
}

// ParseHueMode converts "spread" or "step" to a HueMode.
func ParseHueMode(s string) (HueMode, error) {
	switch s {
	case "spread", "":
		return HueSpread, nil
	case "step":
		return HueStep, nil
	default:
		return HueSpread, fmt.Errorf("unknown hue mode %q", s)
	}
}

// Config controls how samples become units.
type Config struct {
	Units       int
	ScaleFactor float64 // sample / ScaleFactor = intensity
	Floor       float64 // minimum intensity

	Hue     HueMode
	HueStep float64 // degrees per unit in HueStep mode

	Saturation float64
	Lightness  float64 // used when CoupleLightness is off

	// CoupleLightness derives lightness from intensity so louder units
	// are both taller and brighter.
	CoupleLightness  bool
	LightnessDivisor float64

	// Smoothing eases intensities with a spring between ticks. Off in
	// every built-in profile; output then depends on previous ticks.
	Smoothing bool
}

// Cubes is the 3D profile: 32 cubes over a 64-point FFT.
func Cubes() Config {
	return Config{
		Units:            32,
		ScaleFactor:      25,
		Floor:            0.1,
		Hue:              HueSpread,
		Saturation:       1,
		CoupleLightness:  true,
		LightnessDivisor: 5,
	}
}

// Bars is the 2D profile: 64 bars over a 128-point FFT.
func Bars() Config {
	return Config{
		Units:       64,
		ScaleFactor: 2,
		Floor:       0.1,
		Hue:         HueStep,
		HueStep:     5,
		Saturation:  1,
		Lightness:   0.5,
	}
}

// Mapper turns snapshots into parameter sets.
type Mapper struct {
	cfg    Config
	out    ParameterSet
	smooth *smoother
}

// NewMapper validates cfg against the snapshot length it will receive.
// A unit count that differs from snapshotLen is rejected here rather than
// at tick time.
func NewMapper(cfg Config, snapshotLen int) (*Mapper, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Units != snapshotLen {
		return nil, fmt.Errorf("%w: %d units, %d bins", ErrUnitMismatch, cfg.Units, snapshotLen)
	}

	m := &Mapper{
		cfg: cfg,
		out: make(ParameterSet, cfg.Units),
	}
	if cfg.Smoothing {
		m.smooth = newSmoother(cfg.Units)
	}
	return m, nil
}

func (c Config) validate() error {
	switch {
	case c.Units <= 0:
		return fmt.Errorf("%w: units must be positive, got %d", ErrInvalidConfig, c.Units)
	case c.ScaleFactor <= 0:
		return fmt.Errorf("%w: scale factor must be positive, got %g", ErrInvalidConfig, c.ScaleFactor)
	case c.Floor <= 0:
		return fmt.Errorf("%w: floor must be positive, got %g", ErrInvalidConfig, c.Floor)
	case c.HueStep < 0:
		return fmt.Errorf("%w: hue step must not be negative, got %g", ErrInvalidConfig, c.HueStep)
	case c.CoupleLightness && c.LightnessDivisor <= 0:
		return fmt.Errorf("%w: lightness divisor must be positive, got %g", ErrInvalidConfig, c.LightnessDivisor)
	}
	return nil
}

// Config returns the mapper configuration.
func (m *Mapper) Config() Config { return m.cfg }

// Units returns the fixed number of units per set.
func (m *Mapper) Units() int { return m.cfg.Units }

// MaxIntensity is the intensity of a full-scale sample.
func (m *Mapper) MaxIntensity() float64 {
	return math.Max(255/m.cfg.ScaleFactor, m.cfg.Floor)
}

// MapUnit maps one sample at position index out of unitCount.
// Samples outside [0,255] are clamped.
func (m *Mapper) MapUnit(sample, index, unitCount int) Unit {
	if sample < 0 {
		sample = 0
	} else if sample > 255 {
		sample = 255
	}

	intensity := math.Max(float64(sample)/m.cfg.ScaleFactor, m.cfg.Floor)

	u := Unit{
		Intensity:  intensity,
		Hue:        m.hue(index, unitCount),
		Saturation: clamp01(m.cfg.Saturation),
		Lightness:  clamp01(m.cfg.Lightness),
	}
	if m.cfg.CoupleLightness {
		u.Lightness = clamp01(intensity / m.cfg.LightnessDivisor)
	}
	return u
}

func (m *Mapper) hue(index, unitCount int) float64 {
	var h float64
	switch m.cfg.Hue {
	case HueStep:
		h = float64(index) * m.cfg.HueStep
	default:
		if unitCount <= 0 {
			return 0
		}
		h = float64(index) / float64(unitCount) * 360
	}
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}

// Reset drops smoothing history. It is a no-op without smoothing.
func (m *Mapper) Reset() {
	if m.smooth != nil {
		m.smooth.reset()
	}
}

// Map maps every unit from snap into the mapper's reusable set and returns
// it. An empty snapshot reads as silence; a snapshot of another length
// reads missing bins as zero and ignores extra bins. The returned set is
// overwritten by the next call.
func (m *Mapper) Map(snap Snapshot) ParameterSet {
	n := m.cfg.Units
	for i := range n {
		var sample int
		if i < len(snap) {
			sample = int(snap[i])
		}
		u := m.MapUnit(sample, i, n)
		if m.smooth != nil {
			u.Intensity = math.Max(m.smooth.ease(i, u.Intensity), m.cfg.Floor)
			if m.cfg.CoupleLightness {
				u.Lightness = clamp01(u.Intensity / m.cfg.LightnessDivisor)
			}
		}
		m.out[i] = u
	}
	return m.out
}
