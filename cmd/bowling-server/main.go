package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/MJE43/bowling-score-go/internal/api"
	"github.com/MJE43/bowling-score-go/internal/config"
	"github.com/MJE43/bowling-score-go/internal/games"
	"github.com/MJE43/bowling-score-go/internal/store"
	"github.com/MJE43/bowling-score-go/internal/summary"
)

const (
	appConfigDirName    = "bowling-score-go"
	fallbackSecretsName = "secrets_fallback.json"
	summaryProvider     = "openai"
	limiterIdleTTL      = 10 * time.Minute
	shutdownGracePeriod = 15 * time.Second
)

func main() {
	args := os.Args[1:]
	if len(args) > 0 {
		switch args[0] {
		case "version":
			v := api.GetVersionInfo()
			fmt.Printf("bowling-server version=%s commit=%s build_time=%s\n", v.ServiceVersion, v.GitCommit, v.BuildTime)
			return
		case "set-openai-key":
			if err := setOpenAIKey(os.Stdin); err != nil {
				log.Fatalf("set-openai-key failed: %v", err)
			}
			log.Println("OpenAI API key stored")
			return
		}
	}

	if err := run(args); err != nil {
		log.Fatalf("bowling-server failed: %v", err)
	}
}

func run(args []string) error {
	log.Printf("Starting bowling-server (Go %s)...", runtime.Version())

	cfg, err := config.Load(args)
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Printf("store close error: %v", err)
		}
	}()

	creds := summary.NewCredentialStore(cfg.KeyringService, fallbackSecretsPath(cfg))
	apiKey, err := summary.ResolveAPIKey(cfg.APIKey(), creds, summaryProvider)
	if err != nil {
		log.Printf("credential lookup failed: %v; summaries disabled", err)
	}

	var gen summary.Generator
	if apiKey != "" {
		gen = summary.NewOpenAI(summary.Config{
			APIKey:     apiKey,
			Model:      cfg.OpenAIModel,
			BaseURL:    cfg.OpenAIBaseURL,
			MaxRetries: -1,
		})
	} else {
		log.Println("no OpenAI API key configured; summaries disabled")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	svc := games.NewService(st, gen, games.WithMetrics(games.NewMetrics(reg)))

	audit := api.NewAuditLogger()
	server := api.NewServer(svc, api.Options{
		Audit:          audit,
		RequestTimeout: cfg.RequestTimeout,
		SummaryLimiter: api.NewKeyLimiter(cfg.SummaryRPS, cfg.SummaryBurst, limiterIdleTTL),
		Gatherer:       reg,
		TrustProxy:     cfg.TrustProxy,
	})

	if err := server.Start(cfg.Addr, cfg.ReadTimeout, cfg.WriteTimeout); err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}
	audit.LogSystemStartup(server.Addr(), map[string]interface{}{
		"store":         cfg.Store,
		"sqlite_path":   cfg.SQLitePath,
		"model":         cfg.OpenAIModel,
		"summaries":     gen != nil,
		"summary_rps":   cfg.SummaryRPS,
		"summary_burst": cfg.SummaryBurst,
		"trust_proxy":   cfg.TrustProxy,
	})
	log.Printf("Bowling API ready at http://%s", server.Addr())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
	audit.LogSystemShutdown("signal", server.Uptime())
	log.Println("bowling-server stopped")
	return nil
}

func openStore(cfg config.Config) (store.Store, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		path := cfg.SQLitePath
		if path != "" {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("create database dir: %w", err)
			}
		}
		return store.NewSQLite(path)
	default:
		return store.NewMemory(), nil
	}
}

// setOpenAIKey reads a key from r and stores it in the OS keyring.
func setOpenAIKey(r io.Reader) error {
	cfg, err := config.Load(nil)
	if err != nil {
		return err
	}
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return fmt.Errorf("read key: %w", err)
	}
	key := strings.TrimSpace(line)
	if key == "" {
		return fmt.Errorf("empty key on stdin")
	}
	return summary.NewCredentialStore(cfg.KeyringService, fallbackSecretsPath(cfg)).SetAPIKey(summaryProvider, key)
}

func fallbackSecretsPath(cfg config.Config) string {
	if cfg.KeyringFallback != "" {
		return cfg.KeyringFallback
	}
	return filepath.Join(appDataDir(), fallbackSecretsName)
}

// appDataDir returns an OS-appropriate writable directory.
func appDataDir() string {
	if d, err := os.UserConfigDir(); err == nil && d != "" {
		return filepath.Join(d, appConfigDirName)
	}
	if h, err := os.UserHomeDir(); err == nil && h != "" {
		return filepath.Join(h, "."+appConfigDirName)
	}
	return "."
}
