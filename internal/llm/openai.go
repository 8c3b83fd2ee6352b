package llm

import (
	"context"
	"net/http"

	"github.com/quantmind-br/docstranslate/internal/domain"
)

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// OpenAIProvider talks to any OpenAI-compatible chat completions API.
// Together AI is served by this client under the name "together".
type OpenAIProvider struct {
	name        string
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
}

func NewOpenAIProvider(name string, cfg ProviderConfig, httpClient *http.Client) *OpenAIProvider {
	return &OpenAIProvider{
		name:        name,
		httpClient:  httpClient,
		apiKey:      cfg.APIKey,
		baseURL:     cfg.BaseURL,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

func (p *OpenAIProvider) Name() string {
	return p.name
}

func (p *OpenAIProvider) Complete(ctx context.Context, req *domain.LLMRequest) (*domain.LLMResponse, error) {
	payload := chatRequest{
		Model:       p.model,
		Messages:    make([]chatMessage, len(req.Messages)),
		MaxTokens:   resolveMaxTokens(req, p.maxTokens),
		Temperature: resolveTemperature(req, p.temperature),
	}
	for i, msg := range req.Messages {
		payload.Messages[i] = chatMessage{Role: string(msg.Role), Content: msg.Content}
	}

	var resp chatResponse
	headers := map[string]string{"Authorization": "Bearer " + p.apiKey}
	if err := postJSON(ctx, p.httpClient, p.name, p.baseURL+"/chat/completions", headers, payload, &resp); err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, domain.NewLLMError(p.name, 0, "no choices in response", domain.ErrLLMEmptyResponse)
	}
	choice := resp.Choices[0]

	return &domain.LLMResponse{
		Content:      choice.Message.Content,
		Model:        resp.Model,
		FinishReason: choice.FinishReason,
		Usage: domain.LLMUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func (p *OpenAIProvider) Close() error {
	return nil
}
