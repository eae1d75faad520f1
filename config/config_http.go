package config

import (
	"errors"
	"net/http"
	"net/url"
	"time"
)

type proxyConfig struct {
	URL string `yaml:"url"`
}

// upstreamClient returns the HTTP client of one synthesizer. Every upstream
// gets its own connection pool, optionally routed through a proxy.
func upstreamClient(proxy *proxyConfig) (*http.Client, error) {
	tr := http.DefaultTransport.(*http.Transport).Clone()

	tr.MaxIdleConnsPerHost = 16
	tr.IdleConnTimeout = 90 * time.Second

	if proxy != nil && proxy.URL != "" {
		u, err := url.Parse(proxy.URL)

		if err != nil {
			return nil, err
		}

		if u.Scheme == "" || u.Host == "" {
			return nil, errors.New("invalid proxy url: " + proxy.URL)
		}

		tr.Proxy = http.ProxyURL(u)
	}

	return &http.Client{
		Transport: tr,
	}, nil
}
