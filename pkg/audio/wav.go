package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var (
	ErrInvalidWAV    = errors.New("invalid wav data")
	ErrMismatchedPCM = errors.New("pcm parameters differ between chunks")
)

// PCM is interleaved little-endian sample data.
type PCM struct {
	SampleRate    int
	Channels      int
	BitsPerSample int

	Data []byte
}

func (p *PCM) compatible(other *PCM) bool {
	return p.SampleRate == other.SampleRate && p.Channels == other.Channels && p.BitsPerSample == other.BitsPerSample
}

type wavLayout struct {
	format *PCM

	// offset of the data payload; everything before it is header
	dataOffset int
	dataSize   int
}

func parseWAV(data []byte) (*wavLayout, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, ErrInvalidWAV
	}

	layout := &wavLayout{}

	for pos := 12; pos+8 <= len(data); {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))

		body := pos + 8

		switch id {
		case "fmt ":
			if size < 16 || body+16 > len(data) {
				return nil, ErrInvalidWAV
			}

			layout.format = &PCM{
				Channels:      int(binary.LittleEndian.Uint16(data[body+2 : body+4])),
				SampleRate:    int(binary.LittleEndian.Uint32(data[body+4 : body+8])),
				BitsPerSample: int(binary.LittleEndian.Uint16(data[body+14 : body+16])),
			}

		case "data":
			// streamed files often carry a placeholder size
			if size <= 0 || body+size > len(data) {
				size = len(data) - body
			}

			if layout.format == nil {
				return nil, ErrInvalidWAV
			}

			layout.dataOffset = body
			layout.dataSize = size

			return layout, nil
		}

		pos = body + size + size%2
	}

	return nil, ErrInvalidWAV
}

// DecodeWAV extracts the sample data and parameters of a RIFF/WAVE buffer.
func DecodeWAV(data []byte) (*PCM, error) {
	layout, err := parseWAV(data)

	if err != nil {
		return nil, err
	}

	d := wav.NewDecoder(bytes.NewReader(normalizeWAV(data, layout)))

	buf, err := d.FullPCMBuffer()

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWAV, err)
	}

	pcm := &PCM{
		SampleRate:    int(d.SampleRate),
		Channels:      int(d.NumChans),
		BitsPerSample: int(d.BitDepth),
	}

	pcm.Data, err = sampleBytes(buf.Data, pcm.BitsPerSample)

	if err != nil {
		return nil, err
	}

	return pcm, nil
}

// EncodeWAV writes a canonical 44 byte header followed by the sample data.
func EncodeWAV(pcm *PCM) ([]byte, error) {
	samples, err := byteSamples(pcm.Data, pcm.BitsPerSample)

	if err != nil {
		return nil, err
	}

	w := &writeSeeker{}

	e := wav.NewEncoder(w, pcm.SampleRate, pcm.BitsPerSample, pcm.Channels, 1)

	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: pcm.Channels,
			SampleRate:  pcm.SampleRate,
		},

		Data:           samples,
		SourceBitDepth: pcm.BitsPerSample,
	}

	if err := e.Write(buf); err != nil {
		return nil, err
	}

	if err := e.Close(); err != nil {
		return nil, err
	}

	return w.buf, nil
}

// normalizeWAV trims the payload to whole frames and rewrites the data size
// when it differs from the payload, as with streamed placeholder sizes.
func normalizeWAV(data []byte, layout *wavLayout) []byte {
	size := layout.dataSize

	if frame := layout.format.Channels * layout.format.BitsPerSample / 8; frame > 0 {
		size -= size % frame
	}

	end := layout.dataOffset + size
	declared := binary.LittleEndian.Uint32(data[layout.dataOffset-4 : layout.dataOffset])

	if declared == uint32(size) && end == len(data) {
		return data
	}

	result := make([]byte, end)
	copy(result, data[:end])

	binary.LittleEndian.PutUint32(result[layout.dataOffset-4:layout.dataOffset], uint32(size))

	return result
}

func sampleBytes(samples []int, bits int) ([]byte, error) {
	width := bits / 8
	data := make([]byte, len(samples)*width)

	for i, v := range samples {
		b := data[i*width : (i+1)*width]

		switch bits {
		case 8:
			b[0] = uint8(v)
		case 16:
			binary.LittleEndian.PutUint16(b, uint16(int16(v)))
		case 24:
			copy(b, goaudio.Int32toInt24LEBytes(int32(v)))
		case 32:
			binary.LittleEndian.PutUint32(b, uint32(int32(v)))
		default:
			return nil, fmt.Errorf("%w: %d bits per sample", ErrInvalidWAV, bits)
		}
	}

	return data, nil
}

func byteSamples(data []byte, bits int) ([]int, error) {
	if bits != 8 && bits != 16 && bits != 24 && bits != 32 {
		return nil, fmt.Errorf("%w: %d bits per sample", ErrInvalidWAV, bits)
	}

	width := bits / 8
	samples := make([]int, len(data)/width)

	for i := range samples {
		b := data[i*width : (i+1)*width]

		switch bits {
		case 8:
			samples[i] = int(b[0])
		case 16:
			samples[i] = int(int16(binary.LittleEndian.Uint16(b)))
		case 24:
			samples[i] = int(goaudio.Int24LETo32(b))
		case 32:
			samples[i] = int(int32(binary.LittleEndian.Uint32(b)))
		}
	}

	return samples, nil
}

// writeSeeker is an in-memory io.WriteSeeker for the encoder, which seeks
// back to patch the size fields.
type writeSeeker struct {
	buf []byte
	pos int
}

func (w *writeSeeker) Write(p []byte) (int, error) {
	if end := w.pos + len(p); end > len(w.buf) {
		w.buf = append(w.buf, make([]byte, end-len(w.buf))...)
	}

	n := copy(w.buf[w.pos:], p)
	w.pos += n

	return n, nil
}

func (w *writeSeeker) Seek(offset int64, whence int) (int64, error) {
	var pos int64

	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = int64(w.pos) + offset
	case io.SeekEnd:
		pos = int64(len(w.buf)) + offset
	default:
		return 0, errors.New("invalid whence")
	}

	if pos < 0 {
		return 0, errors.New("negative position")
	}

	w.pos = int(pos)

	return pos, nil
}

// ConcatWAV joins WAV buffers at the container level: the first header is
// kept verbatim, only the payload of every buffer is appended, and the RIFF
// and data size fields are rewritten for the new total.
func ConcatWAV(chunks ...[]byte) ([]byte, error) {
	if len(chunks) == 0 {
		return []byte{}, nil
	}

	first, err := parseWAV(chunks[0])

	if err != nil {
		return nil, err
	}

	header := chunks[0][:first.dataOffset]

	payloads := make([][]byte, 0, len(chunks))
	payloads = append(payloads, chunks[0][first.dataOffset:first.dataOffset+first.dataSize])

	size := first.dataSize

	for _, chunk := range chunks[1:] {
		layout, err := parseWAV(chunk)

		if err != nil {
			return nil, err
		}

		payloads = append(payloads, chunk[layout.dataOffset:layout.dataOffset+layout.dataSize])
		size += layout.dataSize
	}

	result := make([]byte, 0, len(header)+size)
	result = append(result, header...)

	for _, p := range payloads {
		result = append(result, p...)
	}

	binary.LittleEndian.PutUint32(result[4:8], uint32(len(result)-8))
	binary.LittleEndian.PutUint32(result[len(header)-4:len(header)], uint32(size))

	return result, nil
}
