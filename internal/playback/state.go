// Package playback tracks the four-state play/pause cycle of a source.
package playback

import (
	"errors"
	"fmt"
)

// State is the playback state. There is no stopped state: a finished
// track is paused and rewound.
type State uint8

const (
	Idle State = iota
	Ready
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Ready:
		return "ready"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// ErrInvalidTransition is returned when an operation is not allowed from
// the current state.
var ErrInvalidTransition = errors.New("invalid playback transition")

// Machine holds the current state. It is owned by the frame loop and is
// not safe for concurrent use.
type Machine struct {
	state State
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Playing reports whether ticks should run.
func (m *Machine) Playing() bool { return m.state == Playing }

// Load moves Idle to Ready once a source has been decoded.
func (m *Machine) Load() error {
	return m.move(Ready, Idle)
}

// Play moves Ready or Paused to Playing. It returns the state it left.
func (m *Machine) Play() (State, error) {
	from := m.state
	if err := m.move(Playing, Ready, Paused); err != nil {
		return from, err
	}
	return from, nil
}

// Pause moves Playing to Paused.
func (m *Machine) Pause() error {
	return m.move(Paused, Playing)
}

// Toggle plays when Ready or Paused and pauses when Playing.
func (m *Machine) Toggle() (State, error) {
	if m.state == Playing {
		return Playing, m.Pause()
	}
	return m.Play()
}

func (m *Machine) move(to State, from ...State) error {
	for _, s := range from {
		if m.state == s {
			m.state = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, to)
}
