package openaifm

import (
	"net/http"
	"regexp"
	"sync"

	"github.com/adrianliechti/narrator/pkg/audio"
)

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 13_5_0) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.5 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1",
}

var languages = []string{
	"en-US,en;q=0.9",
	"en-GB,en;q=0.8",
	"en-CA,en;q=0.7",
}

var platforms = []string{
	`"Windows"`,
	`"macOS"`,
	`"Linux"`,
}

var chromeVersion = regexp.MustCompile(`(?:Chrome|Edg|Chromium)/(\d+)`)

// headerRotation cycles through browser-like header sets so consecutive
// requests do not look identical.
type headerRotation struct {
	mu sync.Mutex
	n  int

	userAgent string
}

func (h *headerRotation) next() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := h.n
	h.n++

	return n
}

func (h *headerRotation) apply(req *http.Request, format audio.Format) {
	n := h.next()

	userAgent := h.userAgent

	if userAgent == "" {
		userAgent = userAgents[n%len(userAgents)]
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader(format))
	req.Header.Set("Accept-Language", languages[n%len(languages)])
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("DNT", "1")

	if m := chromeVersion.FindStringSubmatch(userAgent); m != nil {
		req.Header.Set("Sec-Ch-Ua", `"Chromium";v="`+m[1]+`", "Not A(Brand";v="99"`)
		req.Header.Set("Sec-Ch-Ua-Mobile", "?0")
		req.Header.Set("Sec-Ch-Ua-Platform", platforms[n%len(platforms)])
		req.Header.Set("Sec-Fetch-Dest", "empty")
		req.Header.Set("Sec-Fetch-Mode", "cors")
		req.Header.Set("Sec-Fetch-Site", "same-origin")
	}

	if n%2 == 0 {
		req.Header.Set("Upgrade-Insecure-Requests", "1")
	}
}

func acceptHeader(format audio.Format) string {
	if format == audio.FormatMP3 {
		return "audio/mpeg, application/json"
	}

	return "audio/*,*/*;q=0.9"
}
