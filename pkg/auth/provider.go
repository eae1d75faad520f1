package auth

import (
	"context"
	"net/http"
)

type contextKey string

const UserContextKey contextKey = "auth.user"

type Provider interface {
	Authenticate(ctx context.Context, r *http.Request) (context.Context, error)
}
