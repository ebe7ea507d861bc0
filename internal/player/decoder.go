package player

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"

	"github.com/olivier-w/spectra/internal/media"
)

// All decoders present interleaved signed 16-bit little-endian PCM.
const bytesPerSample = 2

// audioDecoder is implemented by all format-specific decoders. Length and
// offsets are in output bytes.
type audioDecoder interface {
	io.ReadSeeker
	Length() int64
	SampleRate() int
	ChannelCount() int
}

var errBadChannels = errors.New("channel count must be 1 or 2")

// newDecoder picks a decoder from the file extension.
func newDecoder(f *os.File) (audioDecoder, error) {
	format, err := media.Detect(f.Name())
	if err != nil {
		return nil, err
	}
	var dec audioDecoder
	switch format {
	case media.MP3:
		dec, err = newMP3Decoder(f)
	case media.WAV:
		dec, err = newWAVDecoder(f)
	case media.FLAC:
		dec, err = newFLACDecoder(f)
	case media.OGG:
		dec, err = newOGGDecoder(f)
	case media.AIFF:
		dec, err = newAIFFDecoder(f)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}
	if ch := dec.ChannelCount(); ch < 1 || ch > 2 {
		return nil, fmt.Errorf("decode %s: %w, got %d", format, errBadChannels, ch)
	}
	return dec, nil
}

// cursor tracks the output byte position of a streaming decoder and holds
// converted bytes that did not fit the caller's buffer.
type cursor struct {
	pending []byte
	pos     int64
	total   int64
	frame   int64 // output bytes per sample frame
}

func (c *cursor) drain(p []byte) int {
	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	c.pos += int64(n)
	return n
}

// emit hands converted bytes to p, keeping the remainder for the next Read.
func (c *cursor) emit(p, converted []byte) int {
	c.pending = converted
	return c.drain(p)
}

// target resolves a Seek request to a clamped, frame-aligned output offset.
func (c *cursor) target(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = c.pos + offset
	case io.SeekEnd:
		pos = c.total + offset
	default:
		return c.pos, fmt.Errorf("seek: invalid whence %d", whence)
	}
	pos = max(0, min(pos, c.total))
	if c.frame > 0 {
		pos -= pos % c.frame
	}
	return pos, nil
}

func (c *cursor) moved(pos int64) {
	c.pending = nil
	c.pos = pos
}

func (c *cursor) Length() int64 { return c.total }

// to16 rescales a signed sample of the given bit depth to 16 bits.
func to16(v, bits int) int16 {
	switch {
	case bits > 16:
		v >>= bits - 16
	case bits < 16:
		v <<= 16 - bits
	}
	return int16(max(-32768, min(v, 32767)))
}

func putSample(dst []byte, i int, v int16) {
	binary.LittleEndian.PutUint16(dst[i*bytesPerSample:], uint16(v))
}

// --- MP3 ---

// go-mp3 already yields 16-bit stereo.
type mp3Decoder struct {
	*mp3.Decoder
}

func newMP3Decoder(f *os.File) (*mp3Decoder, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, err
	}
	return &mp3Decoder{Decoder: dec}, nil
}

func (d *mp3Decoder) ChannelCount() int { return 2 }

// --- WAV ---

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xfffe
)

// wavDecoder reads the PCM chunk straight from the file and converts each
// sample to 16 bits.
type wavDecoder struct {
	cursor
	file     *os.File
	pcmStart int64
	rate     int
	channels int
	srcBits  int
	srcFrame int64
	raw      []byte
}

func newWAVDecoder(f *os.File) (*wavDecoder, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, errors.New("not a RIFF/WAVE file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("locate PCM data: %w", err)
	}
	if f := dec.WavAudioFormat; f != wavFormatPCM && f != wavFormatExtensible {
		return nil, fmt.Errorf("only integer PCM is supported, got format %#x", f)
	}
	bits := int(dec.BitDepth)
	switch bits {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("unsupported bit depth %d", bits)
	}
	channels := int(dec.NumChans)
	start, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("locate PCM data: %w", err)
	}

	srcFrame := int64(channels * bits / 8)
	frames := dec.PCMLen() / srcFrame
	return &wavDecoder{
		cursor: cursor{
			total: frames * int64(channels*bytesPerSample),
			frame: int64(channels * bytesPerSample),
		},
		file:     f,
		pcmStart: start,
		rate:     int(dec.SampleRate),
		channels: channels,
		srcBits:  bits,
		srcFrame: srcFrame,
	}, nil
}

func (d *wavDecoder) Read(p []byte) (int, error) {
	if len(d.pending) > 0 {
		return d.drain(p), nil
	}
	if d.pos >= d.total {
		return 0, io.EOF
	}

	width := d.srcBits / 8
	// Stop at the end of the data chunk; trailing chunks are not audio.
	samples := min(max(len(p)/bytesPerSample, 1), int((d.total-d.pos)/bytesPerSample))
	if cap(d.raw) < samples*width {
		d.raw = make([]byte, samples*width)
	}
	src := d.raw[:samples*width]
	n, err := io.ReadFull(d.file, src)
	samples = n / width
	if samples == 0 {
		if err == nil || errors.Is(err, io.ErrUnexpectedEOF) {
			err = io.EOF
		}
		return 0, err
	}

	out := make([]byte, samples*bytesPerSample)
	for i := range samples {
		b := src[i*width:]
		var v int
		switch d.srcBits {
		case 8:
			v = int(b[0]) - 128 // unsigned
		case 16:
			v = int(int16(binary.LittleEndian.Uint16(b)))
		case 24:
			v = int(int32(uint32(b[0])<<8|uint32(b[1])<<16|uint32(b[2])<<24) >> 8)
		case 32:
			v = int(int32(binary.LittleEndian.Uint32(b)))
		}
		putSample(out, i, to16(v, d.srcBits))
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = nil
	}
	return d.emit(p, out), err
}

func (d *wavDecoder) Seek(offset int64, whence int) (int64, error) {
	pos, err := d.target(offset, whence)
	if err != nil {
		return d.pos, err
	}
	frame := pos / d.frame
	if _, err := d.file.Seek(d.pcmStart+frame*d.srcFrame, io.SeekStart); err != nil {
		return d.pos, err
	}
	d.moved(pos)
	return pos, nil
}

func (d *wavDecoder) SampleRate() int   { return d.rate }
func (d *wavDecoder) ChannelCount() int { return d.channels }

// --- FLAC ---

type flacDecoder struct {
	cursor
	stream   *flac.Stream
	rate     int
	channels int
	bits     int
}

func newFLACDecoder(f *os.File) (*flacDecoder, error) {
	stream, err := flac.NewSeek(f)
	if err != nil {
		return nil, err
	}
	info := stream.Info
	channels := int(info.NChannels)
	return &flacDecoder{
		cursor: cursor{
			total: int64(info.NSamples) * int64(channels*bytesPerSample),
			frame: int64(channels * bytesPerSample),
		},
		stream:   stream,
		rate:     int(info.SampleRate),
		channels: channels,
		bits:     int(info.BitsPerSample),
	}, nil
}

func (d *flacDecoder) Read(p []byte) (int, error) {
	if len(d.pending) > 0 {
		return d.drain(p), nil
	}
	if d.total > 0 && d.pos >= d.total {
		return 0, io.EOF
	}
	f, err := d.stream.ParseNext()
	if err != nil {
		return 0, err
	}
	return d.emit(p, d.convert(f)), nil
}

func (d *flacDecoder) convert(f *frame.Frame) []byte {
	n := f.Subframes[0].NSamples
	out := make([]byte, n*d.channels*bytesPerSample)
	for i := range n {
		for ch, sub := range f.Subframes[:d.channels] {
			putSample(out, i*d.channels+ch, to16(int(sub.Samples[i]), d.bits))
		}
	}
	return out
}

// Seek lands on the start of the FLAC frame holding the target sample, so
// the head of that frame is decoded and dropped.
func (d *flacDecoder) Seek(offset int64, whence int) (int64, error) {
	pos, err := d.target(offset, whence)
	if err != nil {
		return d.pos, err
	}
	if pos >= d.total {
		d.moved(d.total)
		return d.total, nil
	}
	start, err := d.stream.Seek(uint64(pos / d.frame))
	if err != nil {
		return d.pos, err
	}
	d.moved(int64(start) * d.frame)
	if skip := pos - d.pos; skip > 0 {
		f, err := d.stream.ParseNext()
		if err != nil {
			return d.pos, err
		}
		out := d.convert(f)
		d.pending = out[min(skip, int64(len(out))):]
		d.pos = pos
	}
	return pos, nil
}

func (d *flacDecoder) SampleRate() int   { return d.rate }
func (d *flacDecoder) ChannelCount() int { return d.channels }

// --- Ogg Vorbis ---

type oggDecoder struct {
	cursor
	reader  *oggvorbis.Reader
	scratch []float32
}

func newOGGDecoder(f *os.File) (*oggDecoder, error) {
	r, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, err
	}
	channels := r.Channels()
	return &oggDecoder{
		cursor: cursor{
			total: r.Length() * int64(channels*bytesPerSample),
			frame: int64(channels * bytesPerSample),
		},
		reader: r,
	}, nil
}

func (d *oggDecoder) Read(p []byte) (int, error) {
	if len(d.pending) > 0 {
		return d.drain(p), nil
	}
	want := max(len(p)/bytesPerSample, d.reader.Channels())
	if cap(d.scratch) < want {
		d.scratch = make([]float32, want)
	}
	n, err := d.reader.Read(d.scratch[:want])
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}

	out := make([]byte, n*bytesPerSample)
	for i, s := range d.scratch[:n] {
		s = max(-1, min(s, 1))
		putSample(out, i, int16(s*32767))
	}
	return d.emit(p, out), err
}

func (d *oggDecoder) Seek(offset int64, whence int) (int64, error) {
	pos, err := d.target(offset, whence)
	if err != nil {
		return d.pos, err
	}
	if err := d.reader.SetPosition(pos / d.frame); err != nil {
		return d.pos, err
	}
	d.moved(pos)
	return pos, nil
}

func (d *oggDecoder) SampleRate() int   { return d.reader.SampleRate() }
func (d *oggDecoder) ChannelCount() int { return d.reader.Channels() }

// --- AIFF ---

// aiffDecoder converts the whole sound chunk up front: go-audio's AIFF
// decoder cannot seek within PCM, and the converted 16-bit data is served
// from memory.
type aiffDecoder struct {
	cursor
	pcm      []byte
	rate     int
	channels int
}

const aiffChunkFrames = 4096

func newAIFFDecoder(f *os.File) (*aiffDecoder, error) {
	dec := aiff.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, errors.New("not an AIFF file")
	}
	dec.ReadInfo()
	format := dec.Format()
	if format == nil || format.NumChannels == 0 {
		return nil, errors.New("missing AIFF format information")
	}
	bits := int(dec.BitDepth)
	channels := format.NumChannels

	buf := &audio.IntBuffer{
		Format:         format,
		Data:           make([]int, aiffChunkFrames*channels),
		SourceBitDepth: bits,
	}
	pcm := make([]byte, 0, int(dec.NumSampleFrames)*channels*bytesPerSample)
	for {
		n, err := dec.PCMBuffer(buf)
		for _, v := range buf.Data[:n] {
			pcm = binary.LittleEndian.AppendUint16(pcm, uint16(to16(v, bits)))
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		if n == 0 || err != nil {
			break
		}
	}

	return &aiffDecoder{
		cursor: cursor{
			total: int64(len(pcm)),
			frame: int64(channels * bytesPerSample),
		},
		pcm:      pcm,
		rate:     format.SampleRate,
		channels: channels,
	}, nil
}

func (d *aiffDecoder) Read(p []byte) (int, error) {
	if d.pos >= d.total {
		return 0, io.EOF
	}
	n := copy(p, d.pcm[d.pos:])
	d.pos += int64(n)
	return n, nil
}

func (d *aiffDecoder) Seek(offset int64, whence int) (int64, error) {
	pos, err := d.target(offset, whence)
	if err != nil {
		return d.pos, err
	}
	d.moved(pos)
	return pos, nil
}

func (d *aiffDecoder) SampleRate() int   { return d.rate }
func (d *aiffDecoder) ChannelCount() int { return d.channels }
