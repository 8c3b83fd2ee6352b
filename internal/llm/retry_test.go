package llm

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/quantmind-br/docstranslate/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(maxRetries int) RetryConfig {
	return RetryConfig{
		MaxRetries:      maxRetries,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2,
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestRetrier_SucceedsAfterRetries(t *testing.T) {
	retrier := NewRetrier(fastRetry(3), nil)

	calls := 0
	err := retrier.Execute(context.Background(), func() error {
		calls++
		if calls < 3 {
			return domain.NewLLMError("openai", http.StatusServiceUnavailable, "busy", nil)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetrier_ExhaustsRetries(t *testing.T) {
	retrier := NewRetrier(fastRetry(2), nil)

	calls := 0
	err := retrier.Execute(context.Background(), func() error {
		calls++
		return domain.NewLLMError("openai", http.StatusTooManyRequests, "slow down", domain.ErrLLMRateLimited)
	})

	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, domain.ErrLLMMaxRetriesExceeded)
	assert.ErrorIs(t, err, domain.ErrLLMRateLimited)
}

func TestRetrier_StopsOnPermanentError(t *testing.T) {
	retrier := NewRetrier(fastRetry(5), nil)

	calls := 0
	err := retrier.Execute(context.Background(), func() error {
		calls++
		return domain.NewLLMError("openai", http.StatusUnauthorized, "nope", domain.ErrLLMAuthFailed)
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, domain.ErrLLMAuthFailed)
	assert.NotErrorIs(t, err, domain.ErrLLMMaxRetriesExceeded)
}

func TestRetrier_ZeroRetries(t *testing.T) {
	retrier := NewRetrier(fastRetry(0), nil)

	calls := 0
	err := retrier.Execute(context.Background(), func() error {
		calls++
		return domain.NewLLMError("openai", http.StatusBadGateway, "bad gateway", nil)
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, domain.ErrLLMMaxRetriesExceeded)
}

func TestRetrier_ContextCancelled(t *testing.T) {
	retrier := NewRetrier(RetryConfig{MaxRetries: 10, InitialInterval: time.Hour, MaxInterval: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := retrier.Execute(ctx, func() error {
		calls++
		cancel()
		return domain.NewLLMError("openai", http.StatusServiceUnavailable, "busy", nil)
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limited sentinel", domain.ErrLLMRateLimited, true},
		{"503", domain.NewLLMError("p", 503, "", nil), true},
		{"500", domain.NewLLMError("p", 500, "", nil), true},
		{"400", domain.NewLLMError("p", 400, "", nil), false},
		{"auth", domain.NewLLMError("p", 401, "", domain.ErrLLMAuthFailed), false},
		{"transport failure", domain.NewLLMError("p", 0, "refused", errors.New("connection refused")), true},
		{"empty response", domain.NewLLMError("p", 0, "", domain.ErrLLMEmptyResponse), false},
		{"client timeout", domain.NewLLMError("p", 0, "", &url.Error{Op: "Post", URL: "x", Err: timeoutErr{}}), true},
		{"canceled", context.Canceled, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryableError(tt.err))
		})
	}
}

func TestShouldRetryStatusCode(t *testing.T) {
	for _, code := range []int{429, 500, 502, 503, 504} {
		assert.True(t, ShouldRetryStatusCode(code), code)
	}
	for _, code := range []int{200, 400, 401, 403, 404, 422} {
		assert.False(t, ShouldRetryStatusCode(code), code)
	}
}
