package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/MJE43/bowling-score-go/internal/config"
	"github.com/MJE43/bowling-score-go/internal/store"
	"github.com/MJE43/bowling-score-go/internal/summary"
)

func TestSetOpenAIKeyStoresInKeyring(t *testing.T) {
	keyring.MockInit()
	t.Setenv("BOWLING_KEYRING_SERVICE", "bowling-score-go-test")
	t.Setenv("BOWLING_KEYRING_FALLBACK", filepath.Join(t.TempDir(), "fallback.json"))

	if err := setOpenAIKey(strings.NewReader("  sk-test-123 \n")); err != nil {
		t.Fatalf("Failed to store key: %v", err)
	}

	creds := summary.NewCredentialStore("bowling-score-go-test", "")
	got, err := creds.APIKey(summaryProvider)
	if err != nil {
		t.Fatalf("Failed to read key back: %v", err)
	}
	if got != "sk-test-123" {
		t.Errorf("Expected trimmed key, got %q", got)
	}
}

func TestSetOpenAIKeyRejectsEmptyInput(t *testing.T) {
	keyring.MockInit()
	if err := setOpenAIKey(strings.NewReader("\n")); err == nil {
		t.Error("Expected error for empty key")
	}
}

func TestOpenStore(t *testing.T) {
	st, err := openStore(config.Config{Store: config.StoreMemory})
	if err != nil {
		t.Fatalf("Failed to open memory store: %v", err)
	}
	if _, ok := st.(*store.Memory); !ok {
		t.Errorf("Expected *store.Memory, got %T", st)
	}
	st.Close()

	path := filepath.Join(t.TempDir(), "nested", "bowling.db")
	st, err = openStore(config.Config{Store: config.StoreSQLite, SQLitePath: path})
	if err != nil {
		t.Fatalf("Failed to open sqlite store: %v", err)
	}
	defer st.Close()
	if _, ok := st.(*store.SQLite); !ok {
		t.Errorf("Expected *store.SQLite, got %T", st)
	}
}

func TestFallbackSecretsPath(t *testing.T) {
	if got := fallbackSecretsPath(config.Config{KeyringFallback: "/tmp/x.json"}); got != "/tmp/x.json" {
		t.Errorf("Expected explicit fallback path, got %q", got)
	}
	if got := fallbackSecretsPath(config.Config{}); filepath.Base(got) != fallbackSecretsName {
		t.Errorf("Expected default fallback file name, got %q", got)
	}
}
