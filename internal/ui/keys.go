package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Toggle      key.Binding
	SwitchView  key.Binding
	SeekBack    key.Binding
	SeekForward key.Binding
	VolumeUp    key.Binding
	VolumeDown  key.Binding
	Repeat      key.Binding
	Quit        key.Binding
}

func newKeyMap(seekable bool) keyMap {
	k := keyMap{
		Toggle:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		SwitchView:  key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "view")),
		SeekBack:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/→", "seek")),
		SeekForward: key.NewBinding(key.WithKeys("right", "l")),
		VolumeUp:    key.NewBinding(key.WithKeys("+", "=", "up"), key.WithHelp("+/-", "volume")),
		VolumeDown:  key.NewBinding(key.WithKeys("-", "down")),
		Repeat:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "repeat")),
		Quit:        key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
	if !seekable {
		for _, b := range []*key.Binding{&k.SeekBack, &k.SeekForward, &k.VolumeUp, &k.VolumeDown, &k.Repeat} {
			b.SetEnabled(false)
		}
	}
	return k
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.SwitchView, k.SeekBack, k.VolumeUp, k.Repeat, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
