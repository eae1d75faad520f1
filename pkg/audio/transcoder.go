package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/mattn/go-shellwords"
)

var ErrTranscoderUnavailable = errors.New("audio transcoder unavailable")

type Transcoder interface {
	Transcode(ctx context.Context, data []byte, from, to Format) ([]byte, error)
}

const DefaultFFmpegCommand = "ffmpeg -hide_banner -loglevel error -nostdin"

var _ Transcoder = (*FFmpeg)(nil)

// FFmpeg converts between formats by piping audio through an ffmpeg process.
type FFmpeg struct {
	command []string
}

func NewFFmpeg(command string) (*FFmpeg, error) {
	if command == "" {
		command = DefaultFFmpegCommand
	}

	parser := shellwords.NewParser()
	parser.ParseEnv = true

	args, err := parser.Parse(command)

	if err != nil {
		return nil, fmt.Errorf("parse ffmpeg command: %w", err)
	}

	if len(args) == 0 {
		return nil, errors.New("ffmpeg command empty")
	}

	return &FFmpeg{
		command: args,
	}, nil
}

// Available reports whether the ffmpeg binary can be found.
func (f *FFmpeg) Available() bool {
	if f == nil {
		return false
	}

	_, err := exec.LookPath(f.command[0])
	return err == nil
}

func (f *FFmpeg) Transcode(ctx context.Context, data []byte, from, to Format) ([]byte, error) {
	if !f.Available() {
		return nil, ErrTranscoderUnavailable
	}

	input, ok := demuxers[from]

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, from)
	}

	output, ok := encoders[to]

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, to)
	}

	args := append([]string{}, f.command[1:]...)
	args = append(args, "-f", input, "-i", "pipe:0")
	args = append(args, output...)
	args = append(args, "pipe:1")

	cmd := exec.CommandContext(ctx, f.command[0], args...)
	cmd.Stdin = bytes.NewReader(data)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("ffmpeg %s to %s: %w: %s", from, to, err, msg)
		}

		return nil, fmt.Errorf("ffmpeg %s to %s: %w", from, to, err)
	}

	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg %s to %s: empty output", from, to)
	}

	return stdout.Bytes(), nil
}

var demuxers = map[Format]string{
	FormatMP3:  "mp3",
	FormatWAV:  "wav",
	FormatOpus: "ogg",
	FormatAAC:  "aac",
	FormatFLAC: "flac",
}

var encoders = map[Format][]string{
	FormatMP3:  {"-c:a", "libmp3lame", "-f", "mp3"},
	FormatOpus: {"-c:a", "libopus", "-f", "opus"},
	FormatAAC:  {"-c:a", "aac", "-f", "adts"},
	FormatFLAC: {"-c:a", "flac", "-f", "flac"},
	FormatWAV:  {"-c:a", "pcm_s16le", "-f", "wav"},
	FormatPCM:  {"-c:a", "pcm_s16le", "-f", "s16le"},
}

// Capabilities lists the formats a client may request given the transcoder.
func Capabilities(t Transcoder) []Format {
	if f, ok := t.(*FFmpeg); t == nil || ok && !f.Available() {
		return []Format{FormatMP3, FormatWAV}
	}

	return Formats
}
