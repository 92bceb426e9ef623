package summary

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"
)

const keyAPIKey = "apikey"

// CredentialStore wraps the OS keychain with an optional file fallback for
// hosts without a keyring backend (containers, CI).
type CredentialStore struct {
	service      string
	fallbackPath string
	mu           sync.Mutex
}

// NewCredentialStore creates a keyring wrapper for serviceName.
func NewCredentialStore(serviceName, fallbackPath string) *CredentialStore {
	if strings.TrimSpace(serviceName) == "" {
		serviceName = "bowling-score-go"
	}
	return &CredentialStore{
		service:      serviceName,
		fallbackPath: fallbackPath,
	}
}

func (c *CredentialStore) key(provider string) string {
	return fmt.Sprintf("%s/%s", provider, keyAPIKey)
}

// SetAPIKey stores the API key for provider.
func (c *CredentialStore) SetAPIKey(provider, value string) error {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return fmt.Errorf("summary: provider is required")
	}
	if err := keyring.Set(c.service, c.key(provider), value); err == nil {
		return nil
	} else if !isKeyringUnavailable(err) {
		return fmt.Errorf("summary: keyring set: %w", err)
	}
	return c.setFallback(provider, value)
}

// APIKey returns the stored key for provider or keyring.ErrNotFound.
func (c *CredentialStore) APIKey(provider string) (string, error) {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return "", fmt.Errorf("summary: provider is required")
	}

	val, err := keyring.Get(c.service, c.key(provider))
	if err == nil {
		return val, nil
	}
	if !isKeyringUnavailable(err) && !errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("summary: keyring get: %w", err)
	}

	fallback, ferr := c.getFallback(provider)
	if ferr == nil {
		return fallback, nil
	}
	if errors.Is(err, keyring.ErrNotFound) || errors.Is(ferr, keyring.ErrNotFound) {
		return "", keyring.ErrNotFound
	}
	return "", ferr
}

// DeleteAPIKey removes the key for provider from the keyring and fallback.
func (c *CredentialStore) DeleteAPIKey(provider string) error {
	err := keyring.Delete(c.service, c.key(provider))
	ferr := c.deleteFallback(provider)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) && !isKeyringUnavailable(err) {
		return fmt.Errorf("summary: keyring delete: %w", err)
	}
	return ferr
}

// ResolveAPIKey prefers an explicitly configured key and falls back to the
// credential store. A missing key is not an error; it yields "".
func ResolveAPIKey(explicit string, creds *CredentialStore, provider string) (string, error) {
	if key := strings.TrimSpace(explicit); key != "" {
		return key, nil
	}
	if creds == nil {
		return "", nil
	}
	key, err := creds.APIKey(provider)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(key), nil
}

func isKeyringUnavailable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "secret service") ||
		strings.Contains(msg, "dbus") ||
		strings.Contains(msg, "no keychain") ||
		strings.Contains(msg, "keyring backend not available")
}

type fallbackSecrets map[string]string

func (c *CredentialStore) setFallback(provider, value string) error {
	if strings.TrimSpace(c.fallbackPath) == "" {
		return fmt.Errorf("summary: keyring unavailable and no fallback path configured")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := c.readFallbackUnlocked()
	if err != nil {
		return err
	}
	data[c.key(provider)] = value
	return c.writeFallbackUnlocked(data)
}

func (c *CredentialStore) getFallback(provider string) (string, error) {
	if strings.TrimSpace(c.fallbackPath) == "" {
		return "", keyring.ErrNotFound
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := c.readFallbackUnlocked()
	if err != nil {
		return "", err
	}
	val, ok := data[c.key(provider)]
	if !ok {
		return "", keyring.ErrNotFound
	}
	return val, nil
}

func (c *CredentialStore) deleteFallback(provider string) error {
	if strings.TrimSpace(c.fallbackPath) == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := c.readFallbackUnlocked()
	if err != nil {
		return err
	}
	delete(data, c.key(provider))
	return c.writeFallbackUnlocked(data)
}

func (c *CredentialStore) readFallbackUnlocked() (fallbackSecrets, error) {
	out := fallbackSecrets{}
	raw, err := os.ReadFile(c.fallbackPath)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, fmt.Errorf("summary: read fallback secrets: %w", err)
	}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("summary: decode fallback secrets: %w", err)
	}
	return out, nil
}

func (c *CredentialStore) writeFallbackUnlocked(data fallbackSecrets) error {
	if err := os.MkdirAll(filepath.Dir(c.fallbackPath), 0o700); err != nil {
		return fmt.Errorf("summary: mkdir fallback dir: %w", err)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("summary: encode fallback secrets: %w", err)
	}
	if err := os.WriteFile(c.fallbackPath, raw, 0o600); err != nil {
		return fmt.Errorf("summary: write fallback secrets: %w", err)
	}
	return nil
}
