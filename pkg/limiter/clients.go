package limiter

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Clients throttles repeated failures per client key, such as failed
// authentication attempts per remote address.
type Clients struct {
	mu sync.Mutex

	limit rate.Limit
	burst int

	ttl     time.Duration
	clients map[string]*client
}

type client struct {
	limiter *rate.Limiter
	seen    time.Time
}

// NewClients allows burst failures per key, refilled at the given rate.
func NewClients(limit rate.Limit, burst int) *Clients {
	if burst < 1 {
		burst = 1
	}

	return &Clients{
		limit: limit,
		burst: burst,

		ttl:     10 * time.Minute,
		clients: make(map[string]*client),
	}
}

// Blocked reports whether key has used up its failure allowance.
func (c *Clients) Blocked(key string) bool {
	if c == nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.clients[key]

	if !ok {
		return false
	}

	return entry.limiter.Tokens() < 1
}

// Fail records a failure for key.
func (c *Clients) Fail(key string) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()

	c.prune(now)

	entry, ok := c.clients[key]

	if !ok {
		entry = &client{
			limiter: rate.NewLimiter(c.limit, c.burst),
		}

		c.clients[key] = entry
	}

	entry.seen = now
	entry.limiter.AllowN(now, 1)
}

func (c *Clients) prune(now time.Time) {
	for key, entry := range c.clients {
		if now.Sub(entry.seen) > c.ttl {
			delete(c.clients, key)
		}
	}
}
