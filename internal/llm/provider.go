package llm

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/quantmind-br/docstranslate/internal/config"
	"github.com/quantmind-br/docstranslate/internal/domain"
	"github.com/quantmind-br/docstranslate/internal/utils"
)

// Provider names
const (
	ProviderTogether  = "together"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// defaultBaseURLs are used when llm.base_url is empty
var defaultBaseURLs = map[string]string{
	ProviderTogether:  "https://api.together.xyz/v1",
	ProviderOpenAI:    "https://api.openai.com/v1",
	ProviderAnthropic: "https://api.anthropic.com",
	ProviderOllama:    "http://localhost:11434",
}

type ProviderConfig struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	HTTPClient  *http.Client
}

// NewProviderFromConfig builds the configured provider wrapped with rate
// limiting, retries and a circuit breaker
func NewProviderFromConfig(cfg config.LLMConfig, logger *utils.Logger) (domain.LLMProvider, error) {
	provider, err := NewProvider(ProviderConfig{
		Provider:    cfg.Provider,
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Timeout:     cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}

	if !cfg.RateLimit.Enabled {
		return provider, nil
	}
	return NewResilientProvider(provider, ResilienceConfigFrom(cfg.RateLimit), logger), nil
}

// NewProvider builds a bare provider client
func NewProvider(cfg ProviderConfig) (domain.LLMProvider, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if name == "" {
		return nil, domain.ErrLLMNotConfigured
	}

	defaultURL, known := defaultBaseURLs[name]
	if !known {
		return nil, fmt.Errorf("%w: %s", domain.ErrLLMInvalidProvider, cfg.Provider)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	if cfg.Model == "" {
		return nil, domain.ErrLLMMissingModel
	}
	if cfg.APIKey == "" && name != ProviderOllama {
		return nil, domain.ErrLLMMissingAPIKey
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	switch name {
	case ProviderTogether, ProviderOpenAI:
		return NewOpenAIProvider(name, cfg, httpClient), nil
	case ProviderAnthropic:
		return NewAnthropicProvider(cfg, httpClient), nil
	default:
		return NewOllamaProvider(cfg, httpClient), nil
	}
}
