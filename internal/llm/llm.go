// Package llm adapts hosted language models to the classifier's Completer.
package llm

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/colinbendell/bank-statement-processor/internal/classifier"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	DefaultTimeout   = 60 * time.Second
	DefaultMaxTokens = 1024
)

var (
	ErrMissingCredential = errors.New("llm: missing API key")
	ErrUnknownProvider   = errors.New("llm: unknown provider")
	ErrEmptyResponse     = errors.New("llm: empty response")
)

// Config selects and configures a provider.
type Config struct {
	Provider  string
	Model     string
	BaseURL   string
	APIKeyEnv string // environment variable holding the key
	APIKey    string // takes precedence over APIKeyEnv
	Timeout   time.Duration
	MaxTokens int
}

func (c Config) key() (string, error) {
	if c.APIKey != "" {
		return c.APIKey, nil
	}
	env := c.APIKeyEnv
	if env == "" {
		env = defaultKeyEnv(c.Provider)
	}
	if k := os.Getenv(env); k != "" {
		return k, nil
	}
	return "", fmt.Errorf("%w: set %s", ErrMissingCredential, env)
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	return c
}

func defaultKeyEnv(provider string) string {
	if provider == ProviderGemini {
		return "GEMINI_API_KEY"
	}
	return "OPENAI_API_KEY"
}

// New returns the Completer for cfg.Provider.
func New(cfg Config) (classifier.Completer, error) {
	cfg = cfg.withDefaults()
	key, err := cfg.key()
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI, "":
		return NewOpenAI(cfg, key), nil
	case ProviderGemini:
		return NewGemini(cfg, key), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

// cleanResponse strips Markdown fences some models wrap their answer in.
func cleanResponse(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return ""
		}
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
