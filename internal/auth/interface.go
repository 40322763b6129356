package auth

import "github.com/golang-jwt/jwt/v5"

// Claims is the subset of access-token claims the API relies on.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"` // "authenticated" or "anon"
}

// UserID returns the subject claim, the owner key of every grouping.
func (c *Claims) UserID() string {
	return c.Subject
}

// TokenVerifier validates bearer tokens.
// The middleware only depends on this interface so tests can swap in a
// verifier backed by a local key set.
type TokenVerifier interface {
	// VerifyToken validates a token string and returns its claims.
	// Returns domain.ErrUnauthorized for any invalid, expired or anonymous token.
	VerifyToken(tokenString string) (*Claims, error)

	// Close releases any resources held by the verifier.
	Close() error
}
