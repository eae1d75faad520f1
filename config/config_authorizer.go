package config

import (
	"errors"
	"strings"
	"time"

	"github.com/adrianliechti/narrator/pkg/auth"
	"github.com/adrianliechti/narrator/pkg/auth/static"
	"github.com/adrianliechti/narrator/pkg/limiter"

	"golang.org/x/time/rate"
)

type authorizerConfig struct {
	Type string `yaml:"type"`

	Token  string   `yaml:"token"`
	Tokens []string `yaml:"tokens"`

	// Attempts is the number of failed attempts a client may make per
	// minute before being rejected.
	Attempts int `yaml:"attempts"`
}

const defaultAuthAttempts = 10

func (c *Config) registerAuthorizer(f *configFile) error {
	attempts := 0

	for _, a := range f.Authorizers {
		authorizer, err := createAuthorizer(a)

		if err != nil {
			return err
		}

		c.Authorizers = append(c.Authorizers, authorizer)

		if a.Attempts > attempts {
			attempts = a.Attempts
		}
	}

	if len(c.Authorizers) > 0 {
		if attempts == 0 {
			attempts = defaultAuthAttempts
		}

		c.Clients = limiter.NewClients(rate.Every(time.Minute/time.Duration(attempts)), attempts)
	}

	return nil
}

func createAuthorizer(cfg authorizerConfig) (auth.Provider, error) {
	switch strings.ToLower(cfg.Type) {
	case "static":
		return staticAuthorizer(cfg)

	default:
		return nil, errors.New("invalid authorizer type: " + cfg.Type)
	}
}

func staticAuthorizer(cfg authorizerConfig) (auth.Provider, error) {
	tokens := cfg.Tokens

	if cfg.Token != "" {
		tokens = append(tokens, cfg.Token)
	}

	// each entry may hold a comma separated list
	var result []string

	for _, t := range tokens {
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				result = append(result, part)
			}
		}
	}

	return static.New(result...)
}
