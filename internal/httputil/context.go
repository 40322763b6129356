package httputil

import (
	"context"
	"net/http"
)

// Identity is the authenticated caller attached by the auth middleware.
type Identity struct {
	UserID string
	Email  string
}

type identityKey struct{}

// WithIdentity returns r carrying id
func WithIdentity(r *http.Request, id Identity) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), identityKey{}, id))
}

// WithUserID attaches an identity that only has a user id
func WithUserID(r *http.Request, userID string) *http.Request {
	return WithIdentity(r, Identity{UserID: userID})
}

// IdentityFrom reads the caller from ctx
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// GetUserID returns the caller's user id, or "" on unauthenticated requests
func GetUserID(r *http.Request) string {
	id, _ := IdentityFrom(r.Context())
	return id.UserID
}
