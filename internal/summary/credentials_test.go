package summary

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestCredentialStoreKeyring(t *testing.T) {
	keyring.MockInit()
	creds := NewCredentialStore("bowling-test", "")

	if _, err := creds.APIKey("openai"); !errors.Is(err, keyring.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before set, got %v", err)
	}
	if err := creds.SetAPIKey("openai", "sk-stored"); err != nil {
		t.Fatalf("Failed to set API key: %v", err)
	}

	got, err := creds.APIKey("openai")
	if err != nil {
		t.Fatalf("Failed to get API key: %v", err)
	}
	if got != "sk-stored" {
		t.Errorf("expected sk-stored, got %q", got)
	}

	if err := creds.DeleteAPIKey("openai"); err != nil {
		t.Fatalf("Failed to delete API key: %v", err)
	}
	if _, err := creds.APIKey("openai"); !errors.Is(err, keyring.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestCredentialStoreFallbackFile(t *testing.T) {
	keyring.MockInit()
	path := filepath.Join(t.TempDir(), "secrets", "keys.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatalf("Failed to create fallback dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(`{"openai/apikey":"sk-file"}`), 0o600); err != nil {
		t.Fatalf("Failed to write fallback file: %v", err)
	}

	creds := NewCredentialStore("bowling-test", path)
	got, err := creds.APIKey("openai")
	if err != nil {
		t.Fatalf("Failed to read fallback key: %v", err)
	}
	if got != "sk-file" {
		t.Errorf("expected sk-file, got %q", got)
	}
}

func TestCredentialStoreRequiresProvider(t *testing.T) {
	keyring.MockInit()
	creds := NewCredentialStore("", "")
	if err := creds.SetAPIKey("  ", "x"); err == nil {
		t.Error("expected error for empty provider")
	}
	if _, err := creds.APIKey(""); err == nil {
		t.Error("expected error for empty provider")
	}
}

func TestResolveAPIKey(t *testing.T) {
	keyring.MockInit()
	creds := NewCredentialStore("bowling-test", "")

	key, err := ResolveAPIKey("", creds, "openai")
	if err != nil || key != "" {
		t.Fatalf("expected empty key without error, got %q, %v", key, err)
	}

	if err := creds.SetAPIKey("openai", " sk-keyring "); err != nil {
		t.Fatalf("Failed to set API key: %v", err)
	}
	key, err = ResolveAPIKey("", creds, "openai")
	if err != nil || key != "sk-keyring" {
		t.Errorf("expected keyring key, got %q, %v", key, err)
	}

	key, err = ResolveAPIKey(" sk-env ", creds, "openai")
	if err != nil || key != "sk-env" {
		t.Errorf("expected explicit key to win, got %q, %v", key, err)
	}

	key, err = ResolveAPIKey("", nil, "openai")
	if err != nil || key != "" {
		t.Errorf("expected empty key for nil store, got %q, %v", key, err)
	}
}
