// Package generator wraps the language models used to elaborate on
// recommendations. Models are opaque: a prompt goes in, text comes out.
package generator

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/soufiangit/supplementer.ai/internal/config"
)

var (
	// ErrDisabled is returned by the no-op generator.
	ErrDisabled = errors.New("language model disabled")
	// ErrEmptyOutput indicates the model returned no text.
	ErrEmptyOutput = errors.New("language model returned empty output")
)

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// Options holds sampling parameters shared by all providers.
type Options struct {
	Model       string
	MaxTokens   int
	TopP        float32
	TopK        int
	// Temperature is nil when the provider default should apply. Zero is a
	// valid setting and is sent as is.
	Temperature *float32
}

// New returns the generator selected by cfg.Provider.
func New(cfg config.LLMConfig) (Generator, error) {
	opts := Options{
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		TopP:        cfg.TopP,
		TopK:        cfg.TopK,
		Temperature: cfg.Temperature,
	}

	var (
		gen Generator
		err error
	)
	switch cfg.Provider {
	case config.ProviderNone, "":
		return Disabled{}, nil
	case config.ProviderGemini:
		gen, err = NewGemini(context.Background(), cfg.APIKey, cfg.BaseURL, opts)
	case config.ProviderOpenAI:
		gen = NewOpenAI(cfg.BaseURL, cfg.APIKey, opts)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	if cfg.Timeout > 0 {
		gen = WithTimeout(gen, cfg.Timeout)
	}
	return gen, nil
}

// Disabled is used when no provider is configured.
type Disabled struct{}

func (Disabled) Generate(context.Context, string) (string, error) { return "", ErrDisabled }

func (Disabled) Name() string { return config.ProviderNone }

var textPolicy = bluemonday.StrictPolicy()

// Sanitize strips markup from model output. The result is plain text: entities
// the policy escapes are decoded again so templates escape them only once.
func Sanitize(text string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(text)))
}
