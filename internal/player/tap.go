package player

import (
	"encoding/binary"
	"io"
)

// Tap receives the PCM handed to the audio device, as interleaved float32
// samples in [-1, 1].
type Tap interface {
	Write(samples []float32, channels int)
}

// tapReader converts every s16le chunk read through it and forwards it to
// a Tap. A trailing partial frame is held until the next read.
type tapReader struct {
	r        io.Reader
	tap      Tap
	channels int
	carry    []byte
	scratch  []float32
}

// newTapReader returns nil when there is no tap.
func newTapReader(r io.Reader, tap Tap, channels int) *tapReader {
	if tap == nil {
		return nil
	}
	return &tapReader{r: r, tap: tap, channels: channels}
}

func (t *tapReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if n > 0 {
		t.forward(p[:n])
	}
	return n, err
}

func (t *tapReader) forward(b []byte) {
	if len(t.carry) > 0 {
		t.carry = append(t.carry, b...)
		b = t.carry
	}
	frameBytes := max(t.channels, 1) * bytesPerSample
	whole := len(b) - len(b)%frameBytes
	samples := whole / bytesPerSample
	if cap(t.scratch) < samples {
		t.scratch = make([]float32, samples)
	}
	out := t.scratch[:samples]
	for i := range out {
		out[i] = float32(int16(binary.LittleEndian.Uint16(b[i*bytesPerSample:]))) / 32768
	}
	t.carry = append(t.carry[:0], b[whole:]...)
	if samples > 0 {
		t.tap.Write(out, t.channels)
	}
}
