package static

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"github.com/adrianliechti/narrator/pkg/auth"
)

var (
	ErrMissingCredentials = errors.New("missing api key")
	ErrInvalidCredentials = errors.New("invalid api key")
)

// Provider accepts requests carrying one of a fixed set of API keys, as
// bearer token, in the X-API-Key header or as api_key query parameter.
type Provider struct {
	digests [][sha256.Size]byte
}

func New(tokens ...string) (*Provider, error) {
	p := &Provider{}

	for _, token := range tokens {
		token = strings.TrimSpace(token)

		if token == "" {
			continue
		}

		p.digests = append(p.digests, sha256.Sum256([]byte(token)))
	}

	return p, nil
}

func (p *Provider) Authenticate(ctx context.Context, r *http.Request) (context.Context, error) {
	if len(p.digests) == 0 {
		return ctx, nil
	}

	token := credentials(r)

	if token == "" {
		return ctx, ErrMissingCredentials
	}

	digest := sha256.Sum256([]byte(token))

	match := 0

	for _, d := range p.digests {
		match |= subtle.ConstantTimeCompare(digest[:], d[:])
	}

	if match != 1 {
		return ctx, ErrInvalidCredentials
	}

	// never expose the key itself
	ctx = context.WithValue(ctx, auth.UserContextKey, keyID(digest))

	return ctx, nil
}

func credentials(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")

		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}

	if key := r.Header.Get("X-API-Key"); key != "" {
		return strings.TrimSpace(key)
	}

	// browsers cannot set headers on websocket upgrades
	return strings.TrimSpace(r.URL.Query().Get("api_key"))
}

func keyID(digest [sha256.Size]byte) string {
	return "key-" + hex.EncodeToString(digest[:8])
}
