package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/adrianliechti/narrator/pkg/provider"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type echoSynthesizer struct{}

func (echoSynthesizer) Synthesize(ctx context.Context, input string, options *provider.SynthesizeOptions) (*provider.Synthesis, error) {
	return &provider.Synthesis{Content: []byte(input)}, nil
}

func TestClientsBlocked(t *testing.T) {
	c := NewClients(rate.Every(time.Hour), 3)

	require.False(t, c.Blocked("10.0.0.1"))

	c.Fail("10.0.0.1")
	c.Fail("10.0.0.1")
	require.False(t, c.Blocked("10.0.0.1"))

	c.Fail("10.0.0.1")
	require.True(t, c.Blocked("10.0.0.1"))

	require.False(t, c.Blocked("10.0.0.2"))
}

func TestClientsRecover(t *testing.T) {
	c := NewClients(rate.Every(10*time.Millisecond), 1)

	c.Fail("client")
	require.True(t, c.Blocked("client"))

	require.Eventually(t, func() bool {
		return !c.Blocked("client")
	}, time.Second, 5*time.Millisecond)
}

func TestClientsNil(t *testing.T) {
	var c *Clients

	c.Fail("client")
	require.False(t, c.Blocked("client"))
}

func TestSynthesizerWait(t *testing.T) {
	l := rate.NewLimiter(rate.Every(time.Hour), 1)
	s := NewSynthesizer(l, echoSynthesizer{})

	result, err := s.Synthesize(context.Background(), "hello", nil)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), result.Content)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = s.Synthesize(ctx, "again", nil)
	require.Error(t, err)
}
