package visualizer

import (
	"errors"
	"math"
	"testing"
)

const eps = 1e-9

func mustMapper(t *testing.T, cfg Config) *Mapper {
	t.Helper()
	m, err := NewMapper(cfg, cfg.Units)
	if err != nil {
		t.Fatalf("NewMapper: %v", err)
	}
	return m
}

func TestMapSilenceStaysAtFloorWithEvenHues(t *testing.T) {
	m := mustMapper(t, Cubes())

	set := m.Map(make(Snapshot, 32))
	if len(set) != 32 {
		t.Fatalf("expected 32 units, got %d", len(set))
	}
	for i, u := range set {
		if u.Intensity != 0.1 {
			t.Fatalf("unit %d: expected floor intensity 0.1, got %v", i, u.Intensity)
		}
		want := float64(i) * 11.25
		if math.Abs(u.Hue-want) > eps {
			t.Fatalf("unit %d: expected hue %v, got %v", i, want, u.Hue)
		}
	}
}

func TestMapSingleFullScaleBin(t *testing.T) {
	m := mustMapper(t, Cubes())

	snap := make(Snapshot, 32)
	snap[0] = 255
	set := m.Map(snap)

	if math.Abs(set[0].Intensity-10.2) > eps {
		t.Fatalf("expected unit 0 intensity 10.2, got %v", set[0].Intensity)
	}
	for i := 1; i < len(set); i++ {
		if set[i].Intensity != 0.1 {
			t.Fatalf("unit %d: expected floor, got %v", i, set[i].Intensity)
		}
	}
}

func TestNewMapperRejectsUnitMismatch(t *testing.T) {
	_, err := NewMapper(Cubes(), 64)
	if !errors.Is(err, ErrUnitMismatch) {
		t.Fatalf("expected ErrUnitMismatch, got %v", err)
	}
}

func TestNewMapperRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero units", func(c *Config) { c.Units = 0 }},
		{"zero scale", func(c *Config) { c.ScaleFactor = 0 }},
		{"zero floor", func(c *Config) { c.Floor = 0 }},
		{"negative hue step", func(c *Config) { c.HueStep = -1 }},
		{"zero divisor", func(c *Config) { c.LightnessDivisor = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Cubes()
			tt.mutate(&cfg)
			if _, err := NewMapper(cfg, cfg.Units); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestMapUnitNeverBelowFloor(t *testing.T) {
	for _, cfg := range []Config{Cubes(), Bars()} {
		m := mustMapper(t, cfg)
		for s := 0; s <= 255; s++ {
			for i := range cfg.Units {
				u := m.MapUnit(s, i, cfg.Units)
				if u.Intensity < cfg.Floor {
					t.Fatalf("sample %d index %d: intensity %v below floor", s, i, u.Intensity)
				}
				if u.Hue < 0 || u.Hue >= 360 {
					t.Fatalf("sample %d index %d: hue %v out of range", s, i, u.Hue)
				}
				if u.Lightness < 0 || u.Lightness > 1 || u.Saturation < 0 || u.Saturation > 1 {
					t.Fatalf("sample %d index %d: colour out of range: %+v", s, i, u)
				}
			}
		}
	}
}

func TestMapUnitIsDeterministic(t *testing.T) {
	m := mustMapper(t, Cubes())
	a := m.MapUnit(200, 7, 32)
	for range 10 {
		if b := m.MapUnit(200, 7, 32); a != b {
			t.Fatalf("expected identical output, got %+v and %+v", a, b)
		}
	}
}

func TestMapUnitClampsOutOfRangeSamples(t *testing.T) {
	m := mustMapper(t, Cubes())
	if got, want := m.MapUnit(1000, 0, 32), m.MapUnit(255, 0, 32); got != want {
		t.Fatalf("expected sample clamp to 255, got %+v want %+v", got, want)
	}
	if got := m.MapUnit(-4, 0, 32).Intensity; got != 0.1 {
		t.Fatalf("expected negative sample to clamp to floor, got %v", got)
	}
}

func TestHueNonDecreasingUntilWrap(t *testing.T) {
	for _, cfg := range []Config{Cubes(), Bars()} {
		m := mustMapper(t, cfg)
		prev := -1.0
		for i := range cfg.Units {
			h := m.MapUnit(0, i, cfg.Units).Hue
			if h < prev {
				// Only a wrap past 360 may go backwards.
				raw := float64(i) * cfg.HueStep
				if cfg.Hue != HueStep || raw < 360 {
					t.Fatalf("%s: hue decreased at %d: %v < %v", cfg.Hue, i, h, prev)
				}
			}
			prev = h
		}
	}
}

func TestHueStepWrapsAt360(t *testing.T) {
	cfg := Bars()
	cfg.HueStep = 10
	m := mustMapper(t, cfg)
	if got := m.MapUnit(0, 37, cfg.Units).Hue; math.Abs(got-10) > eps {
		t.Fatalf("expected hue 10 after wrap, got %v", got)
	}
}

func TestLightnessCoupledToIntensity(t *testing.T) {
	m := mustMapper(t, Cubes())

	u := m.MapUnit(50, 0, 32) // intensity 2
	if math.Abs(u.Lightness-0.4) > eps {
		t.Fatalf("expected lightness 0.4, got %v", u.Lightness)
	}
	if u := m.MapUnit(255, 0, 32); u.Lightness != 1 {
		t.Fatalf("expected lightness clamped to 1, got %v", u.Lightness)
	}

	bars := mustMapper(t, Bars())
	if u := bars.MapUnit(255, 3, 64); u.Lightness != 0.5 {
		t.Fatalf("expected fixed lightness in bars profile, got %v", u.Lightness)
	}
}

func TestMapTreatsShortSnapshotAsZeros(t *testing.T) {
	m := mustMapper(t, Cubes())
	for _, snap := range []Snapshot{nil, {}, {255}} {
		set := m.Map(snap)
		for i := 1; i < len(set); i++ {
			if set[i].Intensity != 0.1 {
				t.Fatalf("len %d: unit %d expected floor, got %v", len(snap), i, set[i].Intensity)
			}
		}
	}
}

func TestMapDoesNotRetainSnapshot(t *testing.T) {
	m := mustMapper(t, Cubes())
	snap := make(Snapshot, 32)
	snap[3] = 100
	set := m.Map(snap)
	got := set[3].Intensity

	snap[3] = 0
	if set[3].Intensity != got {
		t.Fatalf("mapped set changed after snapshot mutation")
	}
}

func TestMapWithoutSmoothingHasNoHistory(t *testing.T) {
	m := mustMapper(t, Cubes())
	loud := make(Snapshot, 32)
	for i := range loud {
		loud[i] = 255
	}
	m.Map(loud)

	set := m.Map(make(Snapshot, 32))
	for i, u := range set {
		if u.Intensity != 0.1 {
			t.Fatalf("unit %d: expected floor right after loud frame, got %v", i, u.Intensity)
		}
	}
}

func TestMapSmoothingEasesTowardTarget(t *testing.T) {
	cfg := Cubes()
	cfg.Smoothing = true
	m := mustMapper(t, cfg)

	loud := make(Snapshot, 32)
	loud[0] = 255
	first := m.Map(loud)[0].Intensity
	if first >= 10.2 || first < cfg.Floor {
		t.Fatalf("expected eased intensity between floor and target, got %v", first)
	}

	var last float64
	for range 120 {
		last = m.Map(loud)[0].Intensity
	}
	if math.Abs(last-10.2) > 0.05 {
		t.Fatalf("expected smoothing to settle near 10.2, got %v", last)
	}

	m.Reset()
	if got := m.Map(make(Snapshot, 32))[0].Intensity; got != cfg.Floor {
		t.Fatalf("expected floor after reset and silence, got %v", got)
	}
}

func TestUnitColorMatchesHSL(t *testing.T) {
	red := Unit{Hue: 0, Saturation: 1, Lightness: 0.5}
	if got := red.Hex(); got != "#ff0000" {
		t.Fatalf("expected #ff0000, got %s", got)
	}
	black := Unit{Hue: 120, Saturation: 1, Lightness: 0}
	if got := black.Hex(); got != "#000000" {
		t.Fatalf("expected #000000, got %s", got)
	}
}

func TestParseHueMode(t *testing.T) {
	if m, err := ParseHueMode("step"); err != nil || m != HueStep {
		t.Fatalf("expected step, got %v %v", m, err)
	}
	if _, err := ParseHueMode("rainbow"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}
