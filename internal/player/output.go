package player

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// output is the part of an oto player the Player drives.
type output interface {
	Play()
	Pause()
	IsPlaying() bool
	SetVolume(float64)
}

// ErrOutputFormat is returned when a track does not match the rate and
// channel count the audio device was opened with.
var ErrOutputFormat = errors.New("track format differs from the open audio device")

// The oto context can only be created once per process, so it is opened at
// the first track's format.
var (
	otoMu       sync.Mutex
	otoCtx      *oto.Context
	otoRate     int
	otoChannels int
)

func openOutput(rate, channels int) (func(io.Reader) output, error) {
	otoMu.Lock()
	defer otoMu.Unlock()

	if otoCtx == nil {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   rate,
			ChannelCount: channels,
			Format:       oto.FormatSignedInt16LE,
		})
		if err != nil {
			return nil, fmt.Errorf("open audio device: %w", err)
		}
		<-ready
		otoCtx, otoRate, otoChannels = ctx, rate, channels
	}
	if rate != otoRate || channels != otoChannels {
		return nil, fmt.Errorf("%w: %d Hz/%d ch, device %d Hz/%d ch", ErrOutputFormat, rate, channels, otoRate, otoChannels)
	}

	ctx := otoCtx
	return func(r io.Reader) output { return ctx.NewPlayer(r) }, nil
}
