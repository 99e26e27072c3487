package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func TestStaticTokenSource(t *testing.T) {
	got, err := StaticTokenSource("abc").Token(context.Background())
	if err != nil || got != "abc" {
		t.Fatalf("got %q, %v", got, err)
	}
	got, err = StaticTokenSource("").Token(context.Background())
	if err != nil || got != "" {
		t.Fatalf("empty source: got %q, %v", got, err)
	}
}

func TestFileTokenSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token")
	if err := os.WriteFile(path, []byte("  file-tok\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	src := NewFileTokenSource(path)
	got, err := src.Token(context.Background())
	if err != nil || got != "file-tok" {
		t.Fatalf("got %q, %v", got, err)
	}

	// deleting the file models a sign-out; the next call sees no session
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	got, err = src.Token(context.Background())
	if err != nil || got != "" {
		t.Fatalf("after delete: got %q, %v", got, err)
	}
}

func TestSessionTokenSourceWithholdsExpired(t *testing.T) {
	expired := signedToken(t, time.Now().Add(-time.Minute))
	src := NewSessionTokenSource(StaticTokenSource(expired), 0)

	got, err := src.Token(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Fatal("expired token should be withheld")
	}
}

func TestSessionTokenSourcePassesLiveToken(t *testing.T) {
	live := signedToken(t, time.Now().Add(time.Hour))
	src := NewSessionTokenSource(StaticTokenSource(live), 10*time.Second)

	got, err := src.Token(context.Background())
	if err != nil || got != live {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestSessionTokenSourcePassesOpaqueToken(t *testing.T) {
	// non-JWT credentials are forwarded untouched; the backend decides
	src := NewSessionTokenSource(StaticTokenSource("opaque-api-key"), 0)
	got, err := src.Token(context.Background())
	if err != nil || got != "opaque-api-key" {
		t.Fatalf("got %q, %v", got, err)
	}
}
