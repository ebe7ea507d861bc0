package analyzer

import "sync"

// ring is a thread-safe circular buffer of mono samples. The audio side
// writes, the frame loop reads the most recent window.
type ring struct {
	mu   sync.Mutex
	buf  []float32
	w    int // write position
	fill int // samples held, at most len(buf)
}

func newRing(size int) *ring {
	return &ring{buf: make([]float32, size)}
}

// write mixes interleaved frames down to mono and appends them,
// overwriting the oldest samples when full.
func (r *ring) write(samples []float32, channels int) {
	if channels < 1 {
		channels = 1
	}
	frames := len(samples) / channels
	if frames == 0 {
		return
	}
	inv := 1 / float32(channels)

	r.mu.Lock()
	defer r.mu.Unlock()

	size := len(r.buf)
	for f := range frames {
		var sum float32
		base := f * channels
		for c := range channels {
			sum += samples[base+c]
		}
		r.buf[r.w] = sum * inv
		r.w = (r.w + 1) % size
	}
	r.fill += frames
	if r.fill > size {
		r.fill = size
	}
}

// latest copies the most recent len(dst) samples into dst, oldest first.
// When fewer samples are held, the head of dst is zero-filled.
func (r *ring) latest(dst []float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(dst)
	if n > r.fill {
		n = r.fill
	}
	pad := len(dst) - n
	for i := range pad {
		dst[i] = 0
	}

	size := len(r.buf)
	start := (r.w - n + size) % size
	for i := range n {
		dst[pad+i] = float64(r.buf[(start+i)%size])
	}
	return n
}

func (r *ring) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.w = 0
	r.fill = 0
}
