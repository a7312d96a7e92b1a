package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fernet/fernet-go"
)

func TestConfig_BindAddress(t *testing.T) {
	cfg := &Config{Hostname: "127.0.0.1", Port: 12345}

	addr := cfg.BindAddress()
	expected := "127.0.0.1:12345"
	if addr != expected {
		t.Errorf("BindAddress() want = %s, got = %s", expected, addr)
	}
}

func TestConfig_EncryptionKeyDisabled(t *testing.T) {
	cfg := &Config{}

	key, err := cfg.EncryptionKey()
	if err != nil {
		t.Fatalf("EncryptionKey() returned an error: %s", err)
	}
	if key != nil {
		t.Errorf("EncryptionKey() = %v with encryption disabled, want nil", key)
	}
}

func TestConfig_EncryptionKeyMissingFile(t *testing.T) {
	cfg := &Config{}
	cfg.Encryption.Enabled = true
	cfg.Encryption.KeyPath = filepath.Join(t.TempDir(), "missing.key")

	if _, err := cfg.EncryptionKey(); err == nil {
		t.Error("EncryptionKey() did not fail for a missing key file")
	}
}

func TestConfig_EncryptionKeyRoundTrip(t *testing.T) {
	var key fernet.Key
	if err := key.Generate(); err != nil {
		t.Fatalf("error generating key: %s", err)
	}

	keyPath := filepath.Join(t.TempDir(), "secret.key")
	// Keys are stored with a trailing newline by some tooling; loading must
	// tolerate it.
	if err := os.WriteFile(keyPath, []byte(key.Encode()+"\n"), 0600); err != nil {
		t.Fatalf("error writing key file: %s", err)
	}

	cfg := &Config{}
	cfg.Encryption.Enabled = true
	cfg.Encryption.KeyPath = keyPath

	loaded, err := cfg.EncryptionKey()
	if err != nil {
		t.Fatalf("EncryptionKey() returned an error: %s", err)
	}
	if loaded == nil {
		t.Fatal("EncryptionKey() returned nil with encryption enabled")
	}
	if loaded.Encode() != key.Encode() {
		t.Errorf("EncryptionKey() = %s, want %s", loaded.Encode(), key.Encode())
	}
}

func TestConfig_EncryptionKeyCorruptFile(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "secret.key")
	if err := os.WriteFile(keyPath, []byte("not a key"), 0600); err != nil {
		t.Fatalf("error writing key file: %s", err)
	}

	cfg := &Config{}
	cfg.Encryption.Enabled = true
	cfg.Encryption.KeyPath = keyPath

	if _, err := cfg.EncryptionKey(); err == nil {
		t.Error("EncryptionKey() did not fail for a corrupt key file")
	}
}
