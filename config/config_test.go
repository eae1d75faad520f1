package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adrianliechti/narrator/pkg/router/roundrobin"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	return path
}

func TestParse(t *testing.T) {
	t.Setenv("NARRATOR_TEST_KEY", "secret-a,secret-b")

	path := writeConfig(t, `
address: ":9090"

authorizers:
  - type: static
    tokens:
      - ${NARRATOR_TEST_KEY}

log:
  level: debug

synthesizers:
  fm:
    type: openaifm
    limit: 5

  compatible:
    type: openai
    url: http://localhost:1234/v1
    model: tts-1

  pool:
    type: roundrobin
    synthesizers:
      - fm
      - compatible

pipeline:
  synthesizer: pool
  max_length: 500
  queue_size: 20
  concurrency: 2

  retry:
    attempts: 2
    timeout: 10s
    jitter_min: 0s
    jitter_max: 0s

transcoder:
  disabled: true
`)

	cfg, err := Parse(path)
	require.NoError(t, err)

	defer cfg.Close()

	require.Equal(t, ":9090", cfg.Address)
	require.Len(t, cfg.Authorizers, 1)
	require.NotNil(t, cfg.Clients)

	for _, id := range []string{"", "fm", "compatible", "pool"} {
		_, err := cfg.Synthesizer(id)
		require.NoError(t, err, id)
	}

	pool, _ := cfg.Synthesizer("pool")
	require.IsType(t, &roundrobin.Synthesizer{}, pool)

	require.Nil(t, cfg.Transcoder)
	require.NotNil(t, cfg.Pipeline)
	require.Equal(t, 500, cfg.Pipeline.MaxLength())

	status := cfg.Governor.Status()
	require.Equal(t, 20, status.MaxQueueSize)
	require.Equal(t, 2, status.Concurrency)
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(writeConfig(t, `
transcoder:
  disabled: true
`))
	require.NoError(t, err)

	defer cfg.Close()

	require.Equal(t, ":8080", cfg.Address)
	require.Empty(t, cfg.Authorizers)
	require.Nil(t, cfg.Clients)

	_, err = cfg.Synthesizer("openaifm")
	require.NoError(t, err)

	require.Equal(t, 1000, cfg.Pipeline.MaxLength())
	require.Equal(t, 100, cfg.Governor.Status().MaxQueueSize)
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"unknown field": `
unknown: true
`,
		"unknown synthesizer type": `
synthesizers:
  broken:
    type: nope
`,
		"unknown router upstream": `
synthesizers:
  pool:
    type: roundrobin
    synthesizers: [missing]
`,
		"unknown pipeline synthesizer": `
pipeline:
  synthesizer: missing
`,
		"unknown authorizer": `
authorizers:
  - type: oidc
`,
		"invalid proxy": `
synthesizers:
  fm:
    type: openaifm
    proxy:
      url: localhost
`,
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(writeConfig(t, content))
			require.Error(t, err)
		})
	}
}
