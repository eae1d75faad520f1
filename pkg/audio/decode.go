package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Decode turns an encoded buffer into PCM samples. Only the encodings the
// upstream produces natively can be decoded in-process.
func Decode(data []byte, format Format) (*PCM, error) {
	switch format {
	case FormatWAV:
		return DecodeWAV(data)

	case FormatMP3:
		return DecodeMP3(data)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// DecodeMP3 decodes an MP3 stream into 16 bit stereo PCM.
func DecodeMP3(data []byte) (*PCM, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))

	if err != nil {
		return nil, err
	}

	samples, err := io.ReadAll(decoder)

	if err != nil {
		return nil, err
	}

	return &PCM{
		SampleRate:    decoder.SampleRate(),
		Channels:      2,
		BitsPerSample: 16,

		Data: samples,
	}, nil
}
