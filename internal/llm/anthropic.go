package llm

import (
	"context"
	"net/http"
	"strings"

	"github.com/quantmind-br/docstranslate/internal/domain"
)

const anthropicVersion = "2023-06-01"

type anthropicRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	System      string        `json:"system,omitempty"`
	Messages    []chatMessage `json:"messages"`
}

type anthropicResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// AnthropicProvider talks to the Anthropic messages API
type AnthropicProvider struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
}

func NewAnthropicProvider(cfg ProviderConfig, httpClient *http.Client) *AnthropicProvider {
	return &AnthropicProvider{
		httpClient:  httpClient,
		apiKey:      cfg.APIKey,
		baseURL:     cfg.BaseURL,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

func (p *AnthropicProvider) Name() string {
	return ProviderAnthropic
}

func (p *AnthropicProvider) Complete(ctx context.Context, req *domain.LLMRequest) (*domain.LLMResponse, error) {
	payload := anthropicRequest{
		Model:       p.model,
		MaxTokens:   resolveMaxTokens(req, p.maxTokens),
		Temperature: resolveTemperature(req, p.temperature),
	}

	// system prompts travel in their own field
	var system []string
	for _, msg := range req.Messages {
		if msg.Role == domain.RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		payload.Messages = append(payload.Messages, chatMessage{Role: string(msg.Role), Content: msg.Content})
	}
	payload.System = strings.Join(system, "\n\n")

	headers := map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": anthropicVersion,
	}

	var resp anthropicResponse
	if err := postJSON(ctx, p.httpClient, ProviderAnthropic, p.baseURL+"/v1/messages", headers, payload, &resp); err != nil {
		return nil, err
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, domain.NewLLMError(ProviderAnthropic, 0, "no text content in response", domain.ErrLLMEmptyResponse)
	}

	return &domain.LLMResponse{
		Content:      text.String(),
		Model:        resp.Model,
		FinishReason: resp.StopReason,
		Usage: domain.LLMUsage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}, nil
}

func (p *AnthropicProvider) Close() error {
	return nil
}
