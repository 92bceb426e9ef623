// Package summary produces natural-language descriptions of bowling games
// through a chat-completion model.
//
// # Usage
//
//	gen := summary.NewOpenAI(summary.Config{
//	    APIKey: key,
//	    Model:  "gpt-4o-mini",
//	})
//
//	text, err := gen.Generate(ctx, bowling.ComputeScore(rolls))
package summary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/MJE43/bowling-score-go/internal/bowling"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gpt-4o-mini"

const systemPrompt = "You are a bowling scorekeeper."

// ErrNotConfigured is returned by Generate when no API key is available.
var ErrNotConfigured = errors.New("summary: generator not configured")

// Generator turns a scorecard into free text. Implementations may fail for
// network or authorization reasons; callers must treat any error as a
// collaborator failure.
type Generator interface {
	Generate(ctx context.Context, card bowling.Scorecard) (string, error)
	Model() string
	Configured() bool
}

// Config holds configuration for the OpenAI generator.
type Config struct {
	// APIKey authenticates against the chat completions endpoint. When empty
	// the generator reports itself unconfigured.
	APIKey string

	// Model defaults to DefaultModel.
	Model string

	// BaseURL overrides the API endpoint (useful for proxies and tests).
	BaseURL string

	// Timeout bounds a single request. Defaults to 30 seconds.
	Timeout time.Duration

	// MaxRetries is passed to the client; negative means the client default.
	MaxRetries int

	// HTTPClient allows injecting a custom HTTP client.
	HTTPClient *http.Client
}

// OpenAI generates summaries with the OpenAI chat completions API.
type OpenAI struct {
	client  openai.Client
	model   string
	timeout time.Duration
	enabled bool
}

// NewOpenAI builds a generator from cfg.
func NewOpenAI(cfg Config) *OpenAI {
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		opts = append(opts, option.WithBaseURL(base))
	}
	if cfg.MaxRetries >= 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &OpenAI{
		client:  openai.NewClient(opts...),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		enabled: strings.TrimSpace(cfg.APIKey) != "",
	}
}

// Model returns the configured model name.
func (g *OpenAI) Model() string { return g.model }

// Configured reports whether an API key was supplied.
func (g *OpenAI) Configured() bool { return g.enabled }

// Generate asks the model to summarize card.
func (g *OpenAI) Generate(ctx context.Context, card bowling.Scorecard) (string, error) {
	if !g.enabled {
		return "", ErrNotConfigured
	}

	prompt, err := Prompt(card)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("summary: chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("summary: chat completion returned no choices")
	}
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}

// Prompt renders the user message sent to the model.
func Prompt(card bowling.Scorecard) (string, error) {
	breakdown, err := json.Marshal(card.Breakdown)
	if err != nil {
		return "", fmt.Errorf("summary: encode breakdown: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "summarize the rolls of this bowling game. Total score so far %d, ", card.Total)
	fmt.Fprintf(&b, "Detailed score breakdown for each frame %s", breakdown)
	for _, f := range card.Frames {
		fmt.Fprintf(&b, "\nframe %d: %s, running total %d", f.Frame, f.Label, f.RunningTotal)
	}
	return b.String(), nil
}
