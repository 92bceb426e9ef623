package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Addr != "127.0.0.1:8080" {
		t.Errorf("expected default addr, got %q", cfg.Addr)
	}
	if cfg.Store != StoreMemory {
		t.Errorf("expected memory store, got %q", cfg.Store)
	}
	if cfg.RequestTimeout != 60*time.Second || cfg.ReadTimeout != 10*time.Second {
		t.Errorf("unexpected timeouts read=%v request=%v", cfg.ReadTimeout, cfg.RequestTimeout)
	}
	if cfg.OpenAIModel != "gpt-4o-mini" {
		t.Errorf("expected gpt-4o-mini, got %q", cfg.OpenAIModel)
	}
	if cfg.SummaryRPS != 1 || cfg.SummaryBurst != 5 {
		t.Errorf("unexpected summary limits %v/%d", cfg.SummaryRPS, cfg.SummaryBurst)
	}
	if cfg.TrustProxy {
		t.Error("expected proxy headers to be untrusted by default")
	}
}

func TestLoadEnvAndFlags(t *testing.T) {
	t.Setenv("BOWLING_ADDR", "0.0.0.0:9000")
	t.Setenv("BOWLING_STORE", "SQLite")
	t.Setenv("BOWLING_REQUEST_TIMEOUT", "5s")
	t.Setenv("BOWLING_TRUST_PROXY", "true")

	cfg, err := Load([]string{"-addr", ":9001", "-db", "/tmp/bowling.db"})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Addr != ":9001" {
		t.Errorf("expected flag to override env, got %q", cfg.Addr)
	}
	if cfg.Store != StoreSQLite || cfg.SQLitePath != "/tmp/bowling.db" {
		t.Errorf("unexpected store settings %q %q", cfg.Store, cfg.SQLitePath)
	}
	if !cfg.TrustProxy {
		t.Error("expected BOWLING_TRUST_PROXY to be honoured")
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("expected 5s request timeout, got %v", cfg.RequestTimeout)
	}
}

func TestAPIKeyFallback(t *testing.T) {
	t.Setenv("OPENAI_API", "sk-legacy")
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.APIKey() != "sk-legacy" {
		t.Errorf("expected legacy key, got %q", cfg.APIKey())
	}

	t.Setenv("OPENAI_API_KEY", "sk-current")
	cfg, err = Load(nil)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.APIKey() != "sk-current" {
		t.Errorf("expected OPENAI_API_KEY to win, got %q", cfg.APIKey())
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad duration", map[string]string{"BOWLING_READ_TIMEOUT": "soon"}, "parse env:"},
		{"unknown store", map[string]string{"BOWLING_STORE": "redis"}, "unknown store"},
		{"zero timeout", map[string]string{"BOWLING_WRITE_TIMEOUT": "0s"}, "timeouts must be positive"},
		{"zero burst", map[string]string{"BOWLING_SUMMARY_BURST": "0"}, "summary burst"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected %q in error, got %v", tt.want, err)
			}
		})
	}
}

func TestZeroRateDisablesBurstCheck(t *testing.T) {
	t.Setenv("BOWLING_SUMMARY_RPS", "0")
	t.Setenv("BOWLING_SUMMARY_BURST", "0")
	if _, err := Load(nil); err != nil {
		t.Errorf("expected disabled limiter to load, got %v", err)
	}
}

func TestLoadRejectsUnknownFlag(t *testing.T) {
	if _, err := Load([]string{"-nope"}); err == nil {
		t.Error("expected error for unknown flag")
	}
}
