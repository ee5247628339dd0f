package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"google.golang.org/genai"
)

// Default models per provider. Chosen for cost and latency, not quality;
// the verdict schema is simple enough for small models.
const (
	deepseekModel  = "deepseek-chat"
	groqModel      = "llama3-8b-8192"
	anthropicModel = "claude-3-haiku-20240307"
	openaiModel    = "gpt-3.5-turbo"
	googleModel    = "gemini-2.0-flash"
)

const maxResponseBytes = 1 << 20 // 1MB

// chatProvider speaks the OpenAI-compatible chat completions protocol.
// DeepSeek, Groq, and OpenAI all expose it.
type chatProvider struct {
	name    string
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
}

// NewDeepSeek creates the DeepSeek provider (primary, cost-optimized).
func NewDeepSeek(apiKey string) Provider {
	return &chatProvider{
		name:    "deepseek",
		baseURL: "https://api.deepseek.com/v1",
		model:   deepseekModel,
		apiKey:  apiKey,
		client:  &http.Client{},
	}
}

// NewGroq creates the Groq provider (fast fallback).
func NewGroq(apiKey string) Provider {
	return &chatProvider{
		name:    "groq",
		baseURL: "https://api.groq.com/openai/v1",
		model:   groqModel,
		apiKey:  apiKey,
		client:  &http.Client{},
	}
}

// NewOpenAI creates the OpenAI provider (compatibility fallback).
func NewOpenAI(apiKey string) Provider {
	return &chatProvider{
		name:    "openai",
		baseURL: "https://api.openai.com/v1",
		model:   openaiModel,
		apiKey:  apiKey,
		client:  &http.Client{},
	}
}

func (p *chatProvider) Name() string { return p.name }

func (p *chatProvider) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"model": p.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": 0.3,
		"max_tokens":  500,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s request failed: %w", p.name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s returned status %d", p.name, resp.StatusCode)
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("%s returned malformed response: %w", p.name, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", p.name)
	}
	return parsed.Choices[0].Message.Content, nil
}

// anthropicProvider speaks the Anthropic messages API.
type anthropicProvider struct {
	apiKey string
	client *http.Client
}

// NewAnthropic creates the Anthropic provider (quality fallback).
func NewAnthropic(apiKey string) Provider {
	return &anthropicProvider{apiKey: apiKey, client: &http.Client{}}
}

func (p *anthropicProvider) Name() string { return "anthropic" }

func (p *anthropicProvider) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"model":      anthropicModel,
		"max_tokens": 500,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://api.anthropic.com/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anthropic returned status %d", resp.StatusCode)
	}

	var parsed struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("anthropic returned malformed response: %w", err)
	}
	if len(parsed.Content) == 0 {
		return "", fmt.Errorf("anthropic returned no content")
	}
	return parsed.Content[0].Text, nil
}

// googleProvider uses the Gemini API via the official genai SDK.
// The client is created lazily on first call since construction needs a
// context and can fail.
type googleProvider struct {
	apiKey string

	once   sync.Once
	client *genai.Client
	err    error
}

// NewGoogle creates the Google Gemini provider.
func NewGoogle(apiKey string) Provider {
	return &googleProvider{apiKey: apiKey}
}

func (p *googleProvider) Name() string { return "google" }

func (p *googleProvider) Generate(ctx context.Context, prompt string) (string, error) {
	p.once.Do(func() {
		p.client, p.err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey: p.apiKey,
		})
	})
	if p.err != nil {
		return "", fmt.Errorf("failed to create genai client: %w", p.err)
	}

	result, err := p.client.Models.GenerateContent(ctx, googleModel, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("google request failed: %w", err)
	}
	return result.Text(), nil
}
