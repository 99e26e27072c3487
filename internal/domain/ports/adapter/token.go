package adapter

import "context"

// TokenSource resolves the bearer token for the current session at call
// time. Every request-building site asks the source instead of holding the
// token itself, so a sign-out is observed by the next call rather than
// racing a shared mutable field. An empty token with a nil error means no
// authenticated session.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}
