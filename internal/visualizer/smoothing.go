package visualizer

import "github.com/charmbracelet/harmonica"

const (
	smoothingFPS       = 60
	smoothingFrequency = 8.5
	smoothingDamping   = 0.72
)

// smoother eases each unit's intensity toward the latest target with its
// own damped spring. state[i] holds position and velocity of unit i.
type smoother struct {
	spring harmonica.Spring
	state  [][2]float64
}

func newSmoother(units int) *smoother {
	return &smoother{
		spring: harmonica.NewSpring(harmonica.FPS(smoothingFPS), smoothingFrequency, smoothingDamping),
		state:  make([][2]float64, units),
	}
}

func (s *smoother) ease(i int, target float64) float64 {
	pos, vel := s.spring.Update(s.state[i][0], s.state[i][1], target)
	s.state[i] = [2]float64{pos, vel}
	return pos
}

func (s *smoother) reset() {
	clear(s.state)
}
