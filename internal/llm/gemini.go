package llm

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/colinbendell/bank-statement-processor/internal/metrics"
)

const defaultGeminiModel = "gemini-2.5-flash"

// Gemini completes prompts with the Gemini API.
type Gemini struct {
	config    *genai.ClientConfig
	model     string
	maxTokens int32
	timeout   time.Duration
}

// NewGemini creates a Gemini completer. The client itself is created per
// request since genai binds it to a context.
func NewGemini(cfg Config, apiKey string) *Gemini {
	cfg = cfg.withDefaults()
	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	return &Gemini{
		config:    clientCfg,
		model:     model,
		maxTokens: int32(cfg.MaxTokens),
		timeout:   cfg.Timeout,
	}
}

// Complete implements classifier.Completer.
func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	client, err := genai.NewClient(ctx, g.config)
	if err != nil {
		return "", fmt.Errorf("create genai client: %w", err)
	}

	start := time.Now()
	resp, err := client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		MaxOutputTokens: g.maxTokens,
	})
	metrics.ModelRequestDuration.WithLabelValues(ProviderGemini).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ModelRequestsTotal.WithLabelValues(ProviderGemini, "error").Inc()
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		metrics.ModelRequestsTotal.WithLabelValues(ProviderGemini, "error").Inc()
		return "", ErrEmptyResponse
	}

	metrics.ModelRequestsTotal.WithLabelValues(ProviderGemini, "success").Inc()
	return cleanResponse(text), nil
}
