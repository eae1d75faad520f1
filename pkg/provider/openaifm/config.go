package openaifm

import (
	"net/http"
	"strings"
)

const DefaultURL = "https://www.openai.fm"

type Config struct {
	url string

	client *http.Client

	userAgent     string
	defaultPrompt bool
}

type Option func(*Config)

func WithClient(client *http.Client) Option {
	return func(c *Config) {
		c.client = client
	}
}

// WithUserAgent pins the User-Agent instead of rotating through browser agents.
func WithUserAgent(userAgent string) Option {
	return func(c *Config) {
		c.userAgent = userAgent
	}
}

// WithDefaultPrompt sends a neutral voice prompt when a request has no
// instructions of its own.
func WithDefaultPrompt(enabled bool) Option {
	return func(c *Config) {
		c.defaultPrompt = enabled
	}
}

func (c *Config) endpoint() string {
	url := c.url

	if url == "" {
		url = DefaultURL
	}

	return strings.TrimRight(url, "/") + "/api/generate"
}

const defaultPrompt = "Affect/personality: Natural and clear\n\n" +
	"Tone: Friendly and professional, creating a pleasant listening experience.\n\n" +
	"Pronunciation: Clear, articulate, and steady, ensuring each word is easily understood while maintaining a natural, conversational flow.\n\n" +
	"Pause: Brief, purposeful pauses between sentences to allow time for the listener to process the information.\n\n" +
	"Emotion: Warm and engaging, conveying the intended message effectively."
