// Package auth keeps the remote service token on disk, sealed with a key
// derived from the local auth secret.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"gpad/internal/storage/fs"
)

const (
	defaultMemory     = 64 * 1024
	defaultIterations = 3
	defaultThreads    = 1
	defaultSaltLength = 16
	defaultKeyLength  = chacha20poly1305.KeySize

	tokenFormat = "gpad-token-v1"
)

var (
	ErrNoToken     = errors.New("no auth token")
	ErrBadToken    = errors.New("auth token file is corrupt or sealed with another secret")
	ErrEmptySecret = errors.New("auth secret must not be empty")
)

type TokenStore struct {
	mu     sync.Mutex
	path   string
	secret []byte
}

func NewTokenStore(path, secret string) (*TokenStore, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrEmptySecret
	}
	return &TokenStore{path: path, secret: []byte(secret)}, nil
}

func (s *TokenStore) Path() string {
	return s.path
}

// Token returns the stored token or ErrNoToken.
func (s *TokenStore) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	return s.open(strings.TrimSpace(string(data)))
}

func (s *TokenStore) HasToken() (bool, error) {
	_, err := s.Token()
	if errors.Is(err, ErrNoToken) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *TokenStore) SetToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token must not be empty")
	}
	sealed, err := s.seal(token)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fs.WriteFileAtomic(s.path, []byte(sealed+"\n"), 0o600)
}

func (s *TokenStore) RemoveToken() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

func (s *TokenStore) seal(token string) (string, error) {
	salt := make([]byte, defaultSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	aead, err := chacha20poly1305.NewX(s.deriveKey(salt))
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := aead.Seal(nil, nonce, []byte(token), []byte(tokenFormat))
	return strings.Join([]string{
		tokenFormat,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(nonce),
		base64.RawStdEncoding.EncodeToString(sealed),
	}, "$"), nil
}

func (s *TokenStore) open(raw string) (string, error) {
	parts := strings.Split(raw, "$")
	if len(parts) != 4 || parts[0] != tokenFormat {
		return "", ErrBadToken
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", ErrBadToken
	}
	nonce, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil {
		return "", ErrBadToken
	}
	sealed, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil {
		return "", ErrBadToken
	}
	aead, err := chacha20poly1305.NewX(s.deriveKey(salt))
	if err != nil {
		return "", err
	}
	if len(nonce) != aead.NonceSize() {
		return "", ErrBadToken
	}
	plain, err := aead.Open(nil, nonce, sealed, []byte(tokenFormat))
	if err != nil {
		return "", ErrBadToken
	}
	return string(plain), nil
}

func (s *TokenStore) deriveKey(salt []byte) []byte {
	return argon2.IDKey(s.secret, salt, defaultIterations, defaultMemory, defaultThreads, defaultKeyLength)
}
