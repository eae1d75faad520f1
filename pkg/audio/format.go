package audio

import (
	"mime"
	"strings"
)

type Format string

const (
	FormatMP3  Format = "mp3"
	FormatOpus Format = "opus"
	FormatAAC  Format = "aac"
	FormatFLAC Format = "flac"
	FormatWAV  Format = "wav"
	FormatPCM  Format = "pcm"
)

var Formats = []Format{
	FormatMP3,
	FormatOpus,
	FormatAAC,
	FormatFLAC,
	FormatWAV,
	FormatPCM,
}

var contentTypes = map[Format]string{
	FormatMP3:  "audio/mpeg",
	FormatOpus: "audio/opus",
	FormatAAC:  "audio/aac",
	FormatFLAC: "audio/flac",
	FormatWAV:  "audio/wav",
	FormatPCM:  "audio/pcm",
}

var mediaTypes = map[string]Format{
	"audio/mpeg":   FormatMP3,
	"audio/mp3":    FormatMP3,
	"audio/opus":   FormatOpus,
	"audio/ogg":    FormatOpus,
	"audio/aac":    FormatAAC,
	"audio/flac":   FormatFLAC,
	"audio/x-flac": FormatFLAC,
	"audio/wav":    FormatWAV,
	"audio/wave":   FormatWAV,
	"audio/x-wav":  FormatWAV,
	"audio/pcm":    FormatPCM,
	"audio/l16":    FormatPCM,
}

func ParseFormat(val string) (Format, bool) {
	f := Format(strings.ToLower(strings.TrimSpace(val)))

	if _, ok := contentTypes[f]; !ok {
		return "", false
	}

	return f, true
}

func (f Format) ContentType() string {
	if val, ok := contentTypes[f]; ok {
		return val
	}

	return "application/octet-stream"
}

// FormatFromContentType maps a response content type to the encoding it
// carries. Unknown types are assumed to be mp3.
func FormatFromContentType(contentType string) Format {
	mediaType, _, err := mime.ParseMediaType(contentType)

	if err != nil {
		mediaType = contentType
	}

	if f, ok := mediaTypes[strings.ToLower(mediaType)]; ok {
		return f
	}

	return FormatMP3
}

// BaseFormat is the encoding requested from the upstream for a given target
// format. Only mp3 and wav are produced upstream; everything else is derived
// from wav by transcoding.
func BaseFormat(f Format) Format {
	if f == FormatMP3 {
		return FormatMP3
	}

	return FormatWAV
}
