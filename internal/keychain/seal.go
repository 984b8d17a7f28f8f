package keychain

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
	"golang.org/x/crypto/chacha20poly1305"
)

// Sealer encrypts item payloads at rest.
type Sealer interface {
	Seal(plaintext, additionalData []byte) (nonce, ciphertext []byte, err error)
	Open(nonce, ciphertext, additionalData []byte) ([]byte, error)
}

// AEADSealer seals payloads with XChaCha20-Poly1305.
type AEADSealer struct {
	aead interface {
		Seal(dst, nonce, plaintext, additionalData []byte) []byte
		Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
		NonceSize() int
	}
}

// NewAEADSealer builds a sealer from a 32-byte key.
func NewAEADSealer(key []byte) (*AEADSealer, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("sealer: key must be %d bytes", chacha20poly1305.KeySize)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return &AEADSealer{aead: aead}, nil
}

func (s *AEADSealer) Seal(plaintext, additionalData []byte) ([]byte, []byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("nonce: %w", err)
	}
	return nonce, s.aead.Seal(nil, nonce, plaintext, additionalData), nil
}

func (s *AEADSealer) Open(nonce, ciphertext, additionalData []byte) ([]byte, error) {
	if len(nonce) != s.aead.NonceSize() {
		return nil, errors.New("sealer: invalid nonce")
	}
	plain, err := s.aead.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	return plain, nil
}

// masterKeyUser is the keyring account holding the sealing key.
const masterKeyUser = "settingskit-master-key"

// KeyringKey loads the sealing key for service from the OS keyring, creating
// and saving a random one on first use.
func KeyringKey(service string) ([]byte, error) {
	encoded, err := keyring.Get(service, masterKeyUser)
	if err == nil {
		key, decErr := base64.StdEncoding.DecodeString(encoded)
		if decErr != nil {
			return nil, fmt.Errorf("decoding master key: %w", decErr)
		}
		if len(key) != chacha20poly1305.KeySize {
			return nil, fmt.Errorf("master key for %s has %d bytes, want %d", service, len(key), chacha20poly1305.KeySize)
		}
		return key, nil
	}
	if !errors.Is(err, keyring.ErrNotFound) {
		return nil, fmt.Errorf("loading master key: %w", err)
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating master key: %w", err)
	}
	if err := keyring.Set(service, masterKeyUser, base64.StdEncoding.EncodeToString(key)); err != nil {
		return nil, fmt.Errorf("saving master key: %w", err)
	}
	return key, nil
}
