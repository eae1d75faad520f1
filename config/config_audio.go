package config

import (
	"github.com/adrianliechti/narrator/pkg/audio"
)

type transcoderConfig struct {
	Disabled bool   `yaml:"disabled"`
	Command  string `yaml:"command"`
}

// registerTranscoder enables format conversion when ffmpeg can be found.
func (c *Config) registerTranscoder(f *configFile) error {
	cfg := f.Transcoder

	if cfg == nil {
		cfg = &transcoderConfig{}
	}

	if cfg.Disabled {
		return nil
	}

	ffmpeg, err := audio.NewFFmpeg(cfg.Command)

	if err != nil {
		return err
	}

	if !ffmpeg.Available() {
		c.Logger.Warn("ffmpeg not found, only mp3 and wav output available")
		return nil
	}

	c.Transcoder = ffmpeg

	return nil
}
