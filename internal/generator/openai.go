package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	openaiBaseURL      = "https://api.openai.com"
	openaiModel        = "gpt-3.5-turbo-instruct"
	openaiMaxRetries   = 3
	openaiInitialDelay = 1 * time.Second
)

// OpenAI talks to an OpenAI-compatible /v1/completions endpoint. Self-hosted
// servers (vLLM, llama.cpp, text-generation-inference) expose the same shape
// and can serve small pretrained models such as gpt2.
type OpenAI struct {
	apiKey       string
	baseURL      string
	opts         Options
	client       *http.Client
	initialDelay time.Duration
}

type completionRequest struct {
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	TopP        float32  `json:"top_p,omitempty"`
	Temperature *float32 `json:"temperature,omitempty"`
	// top_k is not part of the hosted API, only sent to self-hosted servers
	TopK int `json:"top_k,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type openaiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// NewOpenAI creates a completions client. An empty baseURL targets the hosted API.
func NewOpenAI(baseURL, apiKey string, opts Options) *OpenAI {
	if baseURL == "" {
		baseURL = openaiBaseURL
	}
	if opts.Model == "" {
		opts.Model = openaiModel
	}
	return &OpenAI{
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		opts:         opts,
		client:       &http.Client{},
		initialDelay: openaiInitialDelay,
	}
}

// Name returns the provider and model.
func (c *OpenAI) Name() string {
	return fmt.Sprintf("openai:%s", c.opts.Model)
}

// Generate requests a single completion for prompt, retrying on rate limits
// and server errors with exponential backoff.
func (c *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	req := completionRequest{
		Model:       c.opts.Model,
		Prompt:      prompt,
		MaxTokens:   c.opts.MaxTokens,
		TopP:        c.opts.TopP,
		Temperature: c.opts.Temperature,
	}
	if c.baseURL != openaiBaseURL {
		req.TopK = c.opts.TopK
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < openaiMaxRetries; attempt++ {
		if attempt > 0 {
			// 1x, 2x, 4x the initial delay
			delay := c.initialDelay << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/completions", bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.client.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = fmt.Errorf("HTTP request failed: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close() //nolint:errcheck
		if err != nil {
			lastErr = fmt.Errorf("read response body: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			var apiErr openaiError
			if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
				lastErr = fmt.Errorf("completion API error (%d): %s", resp.StatusCode, apiErr.Error.Message)
			} else {
				lastErr = fmt.Errorf("completion API error (%d): %s", resp.StatusCode, string(respBody))
			}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				continue
			}
			return "", lastErr
		}

		var out completionResponse
		if err := json.Unmarshal(respBody, &out); err != nil {
			return "", fmt.Errorf("decode response: %w", err)
		}
		if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Text) == "" {
			return "", ErrEmptyOutput
		}
		return out.Choices[0].Text, nil
	}

	return "", fmt.Errorf("max retries (%d) exceeded: %w", openaiMaxRetries, lastErr)
}
