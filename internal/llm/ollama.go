package llm

import (
	"context"
	"net/http"

	"github.com/quantmind-br/docstranslate/internal/domain"
)

type ollamaRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Model           string      `json:"model"`
	Message         chatMessage `json:"message"`
	Done            bool        `json:"done"`
	DoneReason      string      `json:"done_reason"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	EvalCount       int         `json:"eval_count"`
	Error           string      `json:"error,omitempty"`
}

// OllamaProvider talks to a local Ollama server. No API key is needed.
type OllamaProvider struct {
	httpClient  *http.Client
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
}

func NewOllamaProvider(cfg ProviderConfig, httpClient *http.Client) *OllamaProvider {
	return &OllamaProvider{
		httpClient:  httpClient,
		baseURL:     cfg.BaseURL,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

func (p *OllamaProvider) Name() string {
	return ProviderOllama
}

func (p *OllamaProvider) Complete(ctx context.Context, req *domain.LLMRequest) (*domain.LLMResponse, error) {
	payload := ollamaRequest{
		Model:    p.model,
		Messages: make([]chatMessage, len(req.Messages)),
		Options: ollamaOptions{
			Temperature: resolveTemperature(req, p.temperature),
			NumPredict:  resolveMaxTokens(req, p.maxTokens),
		},
	}
	for i, msg := range req.Messages {
		payload.Messages[i] = chatMessage{Role: string(msg.Role), Content: msg.Content}
	}

	var resp ollamaResponse
	if err := postJSON(ctx, p.httpClient, ProviderOllama, p.baseURL+"/api/chat", nil, payload, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, domain.NewLLMError(ProviderOllama, 0, resp.Error, nil)
	}
	if resp.Message.Content == "" {
		return nil, domain.NewLLMError(ProviderOllama, 0, "empty message in response", domain.ErrLLMEmptyResponse)
	}

	return &domain.LLMResponse{
		Content:      resp.Message.Content,
		Model:        resp.Model,
		FinishReason: resp.DoneReason,
		Usage: domain.LLMUsage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
			TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
		},
	}, nil
}

func (p *OllamaProvider) Close() error {
	return nil
}
