package player

import "context"

// Pending is a track being decoded in the background. It resolves exactly
// once, to a Player or an error.
type Pending struct {
	path   string
	done   chan struct{}
	player *Player
	err    error
}

// Open starts decoding path. tap may be nil.
func Open(path string, tap Tap) *Pending {
	return start(path, func() (*Player, error) { return load(path, tap) })
}

func start(path string, fn func() (*Player, error)) *Pending {
	p := &Pending{path: path, done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.player, p.err = fn()
	}()
	return p
}

func (p *Pending) Path() string { return p.path }

// Done closes when the decode has resolved.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the decode resolves or ctx ends. Every call after
// resolution returns the same result.
func (p *Pending) Wait(ctx context.Context) (*Player, error) {
	select {
	case <-p.done:
		return p.player, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
