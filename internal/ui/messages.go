package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/spectra/internal/player"
)

const statusInterval = 200 * time.Millisecond

// frameMsg drives one visual frame. gen ties it to the play session that
// scheduled it; messages from an earlier session are dropped.
type frameMsg struct{ gen uint64 }

type statusTickMsg time.Time

type loadedMsg struct {
	player *player.Player
	err    error
}

type playbackEndedMsg struct{ player *player.Player }

func frameCmd(fps int, gen uint64) tea.Cmd {
	return tea.Tick(time.Second/time.Duration(max(fps, 1)), func(time.Time) tea.Msg {
		return frameMsg{gen: gen}
	})
}

func statusTickCmd() tea.Cmd {
	return tea.Tick(statusInterval, func(t time.Time) tea.Msg {
		return statusTickMsg(t)
	})
}

func waitLoaded(p *player.Pending) tea.Cmd {
	return func() tea.Msg {
		<-p.Done()
		pl, err := p.Wait(context.Background())
		return loadedMsg{player: pl, err: err}
	}
}

func waitDone(p *player.Player) tea.Cmd {
	done := p.Done()
	return func() tea.Msg {
		<-done
		return playbackEndedMsg{player: p}
	}
}
