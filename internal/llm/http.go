package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/quantmind-br/docstranslate/internal/domain"
	"github.com/quantmind-br/docstranslate/pkg/version"
)

// maxErrorBody bounds how much of a failed response ends up in an error message
const maxErrorBody = 2048

// postJSON sends payload as JSON and decodes a 200 response into out.
// Non-200 responses become *domain.LLMError with the raw body attached.
func postJSON(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return domain.NewLLMError(provider, 0, fmt.Sprintf("request failed: %v", err), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return statusError(provider, resp.StatusCode, raw)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", provider, err)
	}
	return nil
}

func statusError(provider string, statusCode int, body []byte) error {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.NewLLMError(provider, statusCode, "authentication failed", domain.ErrLLMAuthFailed)
	case http.StatusTooManyRequests:
		return domain.NewLLMError(provider, statusCode, "rate limit exceeded", domain.ErrLLMRateLimited)
	default:
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return domain.NewLLMError(provider, statusCode, string(body), nil)
	}
}

func resolveMaxTokens(req *domain.LLMRequest, fallback int) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return fallback
}

func resolveTemperature(req *domain.LLMRequest, fallback float64) float64 {
	if req.Temperature != nil {
		return *req.Temperature
	}
	return fallback
}
