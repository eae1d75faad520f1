package config

import (
	"errors"
	"strings"

	"github.com/adrianliechti/narrator/pkg/limiter"
	"github.com/adrianliechti/narrator/pkg/otel"
	"github.com/adrianliechti/narrator/pkg/provider"
	"github.com/adrianliechti/narrator/pkg/provider/openai"
	"github.com/adrianliechti/narrator/pkg/provider/openaifm"
	"github.com/adrianliechti/narrator/pkg/router/roundrobin"

	"golang.org/x/time/rate"
)

func (cfg *Config) RegisterSynthesizer(id string, p provider.Synthesizer) {
	if cfg.synthesizer == nil {
		cfg.synthesizer = make(map[string]provider.Synthesizer)
	}

	if _, ok := cfg.synthesizer[""]; !ok {
		cfg.synthesizer[""] = p
	}

	cfg.synthesizer[id] = p
}

func (cfg *Config) Synthesizer(id string) (provider.Synthesizer, error) {
	if cfg.synthesizer != nil {
		if s, ok := cfg.synthesizer[id]; ok {
			return s, nil
		}
	}

	return nil, errors.New("synthesizer not found: " + id)
}

type synthesizerConfig struct {
	Type string `yaml:"type"`

	URL   string `yaml:"url"`
	Token string `yaml:"token"`

	Model string `yaml:"model"`

	UserAgent string `yaml:"user_agent"`
	Prompt    *bool  `yaml:"prompt"`

	Limit *int `yaml:"limit"`

	Proxy *proxyConfig `yaml:"proxy"`

	// Synthesizers lists the upstreams of a router, by id.
	Synthesizers []string `yaml:"synthesizers"`
}

type synthesizerContext struct {
	Limiter *rate.Limiter

	Upstreams []provider.Synthesizer
}

func (cfg *Config) registerSynthesizers(f *configFile) error {
	var configs map[string]synthesizerConfig

	if err := f.Synthesizers.Decode(&configs); err != nil {
		return err
	}

	for _, node := range f.Synthesizers.Content {
		id := node.Value

		config, ok := configs[node.Value]

		if !ok {
			continue
		}

		context := synthesizerContext{
			Limiter: createLimiter(config.Limit),
		}

		for _, upstream := range config.Synthesizers {
			p, err := cfg.Synthesizer(upstream)

			if err != nil {
				return err
			}

			context.Upstreams = append(context.Upstreams, p)
		}

		synthesizer, err := createSynthesizer(config, context)

		if err != nil {
			return err
		}

		cfg.RegisterSynthesizer(id, synthesizer)
	}

	if len(cfg.synthesizer) == 0 {
		synthesizer, err := createSynthesizer(synthesizerConfig{Type: "openaifm"}, synthesizerContext{})

		if err != nil {
			return err
		}

		cfg.RegisterSynthesizer("openaifm", synthesizer)
	}

	return nil
}

func createSynthesizer(cfg synthesizerConfig, context synthesizerContext) (provider.Synthesizer, error) {
	var err error
	var p provider.Synthesizer

	switch strings.ToLower(cfg.Type) {
	case "openaifm", "openai-fm":
		p, err = openaifmSynthesizer(cfg, context)

	case "openai", "openai-compatible":
		p, err = openaiSynthesizer(cfg, context)

	case "roundrobin", "round-robin":
		// upstreams are already limited and observed
		return roundrobinSynthesizer(cfg, context)

	default:
		return nil, errors.New("invalid synthesizer type: " + cfg.Type)
	}

	if err != nil {
		return nil, err
	}

	if context.Limiter != nil {
		p = limiter.NewSynthesizer(context.Limiter, p)
	}

	model := cfg.Model

	if model == "" {
		model = strings.ToLower(cfg.Type)
	}

	return otel.NewSynthesizer(strings.ToLower(cfg.Type), model, p), nil
}

func openaifmSynthesizer(cfg synthesizerConfig, context synthesizerContext) (provider.Synthesizer, error) {
	var options []openaifm.Option

	if cfg.UserAgent != "" {
		options = append(options, openaifm.WithUserAgent(cfg.UserAgent))
	}

	if cfg.Prompt == nil || *cfg.Prompt {
		options = append(options, openaifm.WithDefaultPrompt(true))
	}

	client, err := upstreamClient(cfg.Proxy)

	if err != nil {
		return nil, err
	}

	options = append(options, openaifm.WithClient(client))

	return openaifm.NewSynthesizer(cfg.URL, options...)
}

func openaiSynthesizer(cfg synthesizerConfig, context synthesizerContext) (provider.Synthesizer, error) {
	var options []openai.Option

	if cfg.Token != "" {
		options = append(options, openai.WithToken(cfg.Token))
	}

	client, err := upstreamClient(cfg.Proxy)

	if err != nil {
		return nil, err
	}

	options = append(options, openai.WithClient(client))

	model := cfg.Model

	if model == "" {
		model = "gpt-4o-mini-tts"
	}

	return openai.NewSynthesizer(cfg.URL, model, options...)
}

func roundrobinSynthesizer(cfg synthesizerConfig, context synthesizerContext) (provider.Synthesizer, error) {
	return roundrobin.NewSynthesizer(context.Upstreams...)
}
