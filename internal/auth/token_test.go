package auth

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.token")
	store, err := NewTokenStore(path, "secret")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	has, err := store.HasToken()
	if err != nil || has {
		t.Fatalf("expected no token, got %v %v", has, err)
	}
	if _, err := store.Token(); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}

	if err := store.SetToken("S=s1:U=abc"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	token, err := store.Token()
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if token != "S=s1:U=abc" {
		t.Fatalf("expected token back, got %q", token)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if strings.Contains(string(raw), "S=s1") {
		t.Fatalf("token stored in clear: %q", raw)
	}

	if err := store.RemoveToken(); err != nil {
		t.Fatalf("remove token: %v", err)
	}
	has, err = store.HasToken()
	if err != nil || has {
		t.Fatalf("expected token removed, got %v %v", has, err)
	}
	if err := store.RemoveToken(); err != nil {
		t.Fatalf("second remove: %v", err)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.token")
	first, err := NewTokenStore(path, "one")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := first.SetToken("token"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	second, err := NewTokenStore(path, "two")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := second.Token(); !errors.Is(err, ErrBadToken) {
		t.Fatalf("expected ErrBadToken, got %v", err)
	}
	if _, err := second.HasToken(); !errors.Is(err, ErrBadToken) {
		t.Fatalf("expected ErrBadToken from HasToken, got %v", err)
	}
}

func TestTokenStoreRejectsEmptyInput(t *testing.T) {
	if _, err := NewTokenStore("x", " "); !errors.Is(err, ErrEmptySecret) {
		t.Fatalf("expected ErrEmptySecret, got %v", err)
	}
	store, err := NewTokenStore(filepath.Join(t.TempDir(), "auth.token"), "secret")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.SetToken("  "); err == nil {
		t.Fatalf("expected error for empty token")
	}
}
