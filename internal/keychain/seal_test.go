package keychain

import (
	"bytes"
	"testing"

	"github.com/zalando/go-keyring"
)

func init() {
	// Use the mock keyring for all tests so they don't touch the real OS keyring.
	keyring.MockInit()
}

func testSealer(t *testing.T) *AEADSealer {
	t.Helper()
	s, err := NewAEADSealer(bytes.Repeat([]byte{7}, 32))
	if err != nil {
		t.Fatalf("NewAEADSealer: %v", err)
	}
	return s
}

func TestAEADSealerRoundTrip(t *testing.T) {
	s := testSealer(t)

	nonce, sealed, err := s.Seal([]byte("payload"), []byte("ad"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if bytes.Equal(sealed, []byte("payload")) {
		t.Error("sealed payload equals plaintext")
	}

	plain, err := s.Open(nonce, sealed, []byte("ad"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if string(plain) != "payload" {
		t.Errorf("expected 'payload', got %q", plain)
	}
}

func TestAEADSealerWrongAdditionalData(t *testing.T) {
	s := testSealer(t)

	nonce, sealed, err := s.Seal([]byte("payload"), []byte("svc\x00a"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if _, err := s.Open(nonce, sealed, []byte("svc\x00b")); err == nil {
		t.Error("expected error opening with different additional data")
	}
}

func TestAEADSealerRejectsShortKey(t *testing.T) {
	if _, err := NewAEADSealer([]byte("short")); err == nil {
		t.Error("expected error for short key")
	}
}

func TestKeyringKeyCreatesOnceAndReuses(t *testing.T) {
	first, err := KeyringKey("test-keyring-key")
	if err != nil {
		t.Fatalf("KeyringKey: %v", err)
	}
	if len(first) != 32 {
		t.Fatalf("expected 32-byte key, got %d", len(first))
	}

	second, err := KeyringKey("test-keyring-key")
	if err != nil {
		t.Fatalf("KeyringKey: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("expected the stored key to be reused")
	}

	other, err := KeyringKey("test-keyring-key-other")
	if err != nil {
		t.Fatalf("KeyringKey: %v", err)
	}
	if bytes.Equal(first, other) {
		t.Error("expected a distinct key per service")
	}
}

func TestKeyringKeyRejectsCorruptKey(t *testing.T) {
	if err := keyring.Set("test-keyring-corrupt", masterKeyUser, "not base64!"); err != nil {
		t.Fatalf("keyring.Set: %v", err)
	}
	if _, err := KeyringKey("test-keyring-corrupt"); err == nil {
		t.Error("expected error for corrupt key")
	}
}
