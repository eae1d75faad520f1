package provider

import (
	"context"
	"slices"
	"strings"
)

type Synthesizer interface {
	Synthesize(ctx context.Context, input string, options *SynthesizeOptions) (*Synthesis, error)
}

type SynthesizeOptions struct {
	Voice string
	Speed *float32

	Instructions string

	Format string
}

type Synthesis struct {
	ID    string
	Model string

	Content     []byte
	ContentType string
}

const DefaultVoice = "alloy"

var Voices = []string{
	"alloy",
	"ash",
	"ballad",
	"coral",
	"echo",
	"fable",
	"nova",
	"onyx",
	"sage",
	"shimmer",
	"verse",
}

func IsVoice(val string) bool {
	return slices.Contains(Voices, strings.ToLower(val))
}
