package auth

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"coursegen/internal/domain/ports/adapter"
)

// Compile-time checks
var (
	_ adapter.TokenSource = StaticTokenSource("")
	_ adapter.TokenSource = (*FileTokenSource)(nil)
	_ adapter.TokenSource = (*SessionTokenSource)(nil)
)

// StaticTokenSource returns a fixed bearer token. An empty value models an
// unauthenticated session.
type StaticTokenSource string

func (s StaticTokenSource) Token(ctx context.Context) (string, error) {
	return string(s), nil
}

// FileTokenSource reads the token file on every call, so deleting the file
// acts as a sign-out that in-flight polling observes on its next attempt.
type FileTokenSource struct {
	Path string
}

func NewFileTokenSource(path string) *FileTokenSource {
	return &FileTokenSource{Path: path}
}

func (f *FileTokenSource) Token(ctx context.Context) (string, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// SessionTokenSource wraps another source and withholds tokens whose JWT
// exp claim has passed. The signature is not verified: the backend is the
// authority; this only avoids issuing requests that are guaranteed to 401.
// Tokens that do not parse as JWTs are passed through untouched.
type SessionTokenSource struct {
	inner  adapter.TokenSource
	leeway time.Duration
	now    func() time.Time
}

func NewSessionTokenSource(inner adapter.TokenSource, leeway time.Duration) *SessionTokenSource {
	return &SessionTokenSource{inner: inner, leeway: leeway, now: time.Now}
}

func (s *SessionTokenSource) Token(ctx context.Context) (string, error) {
	tok, err := s.inner.Token(ctx)
	if err != nil || tok == "" {
		return "", err
	}
	if exp, ok := expiry(tok); ok && !s.now().Add(s.leeway).Before(exp) {
		return "", nil
	}
	return tok, nil
}

func expiry(raw string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
