package static

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/adrianliechti/narrator/pkg/auth"

	"github.com/stretchr/testify/require"
)

func TestAuthenticate(t *testing.T) {
	p, err := New("first-key", "second-key", " ")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		value  string
		err    error
	}{
		{"bearer", "Authorization", "Bearer first-key", nil},
		{"bearer lowercase scheme", "Authorization", "bearer second-key", nil},
		{"api key header", "X-API-Key", "second-key", nil},
		{"missing", "", "", ErrMissingCredentials},
		{"wrong key", "Authorization", "Bearer other-key", ErrInvalidCredentials},
		{"prefix of key", "X-API-Key", "first", ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)

			if tt.header != "" {
				r.Header.Set(tt.header, tt.value)
			}

			ctx, err := p.Authenticate(context.Background(), r)

			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}

			require.NoError(t, err)

			user, _ := ctx.Value(auth.UserContextKey).(string)
			require.Regexp(t, `^key-[0-9a-f]{16}$`, user)
		})
	}
}

func TestAuthenticateWithoutKeys(t *testing.T) {
	p, err := New()
	require.NoError(t, err)

	_, err = p.Authenticate(context.Background(), httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
}

func TestAuthenticateQuery(t *testing.T) {
	p, err := New("first-key")
	require.NoError(t, err)

	_, err = p.Authenticate(context.Background(), httptest.NewRequest("GET", "/ws?api_key=first-key", nil))
	require.NoError(t, err)

	_, err = p.Authenticate(context.Background(), httptest.NewRequest("GET", "/ws?api_key=other", nil))
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
