package generator

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// Gemini generates text through Google's GenAI SDK.
type Gemini struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

// NewGemini creates a Gemini generator. An empty baseURL uses the SDK's
// default endpoint.
func NewGemini(ctx context.Context, apiKey, baseURL string, opts Options) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create GenAI client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = defaultGeminiModel
	}

	gc := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(opts.MaxTokens),
	}
	if opts.TopP > 0 {
		gc.TopP = genai.Ptr(opts.TopP)
	}
	if opts.TopK > 0 {
		gc.TopK = genai.Ptr(float32(opts.TopK))
	}
	if opts.Temperature != nil {
		gc.Temperature = genai.Ptr(*opts.Temperature)
	}

	return &Gemini{client: client, model: model, config: gc}, nil
}

// Generate sends the prompt as a single user turn.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), g.config)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", ErrEmptyOutput
	}
	return text, nil
}

// Name returns the provider and model.
func (g *Gemini) Name() string {
	return fmt.Sprintf("gemini:%s", g.model)
}
