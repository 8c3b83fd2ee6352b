package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/quantmind-br/docstranslate/internal/domain"
	"github.com/quantmind-br/docstranslate/internal/utils"
)

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	JitterFactor    float64
}

// DefaultRetryConfig returns the retry settings used when none are configured
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: time.Second,
		MaxInterval:     60 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.1,
	}
}

// Retrier re-runs failed LLM calls with exponential backoff
type Retrier struct {
	config RetryConfig
	logger *utils.Logger
}

// NewRetrier creates a new Retrier
func NewRetrier(config RetryConfig, logger *utils.Logger) *Retrier {
	defaults := DefaultRetryConfig()
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.InitialInterval <= 0 {
		config.InitialInterval = defaults.InitialInterval
	}
	if config.MaxInterval <= 0 {
		config.MaxInterval = defaults.MaxInterval
	}
	if config.Multiplier <= 0 {
		config.Multiplier = defaults.Multiplier
	}
	if config.JitterFactor < 0 {
		config.JitterFactor = 0
	}
	return &Retrier{config: config, logger: logger}
}

func (r *Retrier) newBackOff(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.config.InitialInterval
	b.MaxInterval = r.config.MaxInterval
	b.Multiplier = r.config.Multiplier
	b.RandomizationFactor = r.config.JitterFactor
	b.MaxElapsedTime = 0
	b.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.config.MaxRetries)), ctx)
}

// Execute runs operation until it succeeds, fails permanently or runs out of
// retries. Exhausted retries are reported as ErrLLMMaxRetriesExceeded.
func (r *Retrier) Execute(ctx context.Context, operation func() error) error {
	attempts := 0

	err := backoff.RetryNotify(func() error {
		attempts++
		err := operation()
		if err != nil && !IsRetryableError(err) {
			return backoff.Permanent(err)
		}
		return err
	}, r.newBackOff(ctx), func(err error, wait time.Duration) {
		if r.logger != nil {
			r.logger.Warn().
				Int("attempt", attempts).
				Int("max_retries", r.config.MaxRetries).
				Dur("backoff", wait).
				Err(err).
				Msg("Retrying LLM request after error")
		}
	})

	switch {
	case err == nil:
		if attempts > 1 && r.logger != nil {
			r.logger.Info().Int("attempts", attempts).Msg("LLM request succeeded after retries")
		}
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case attempts > r.config.MaxRetries && IsRetryableError(err):
		return fmt.Errorf("%w: %w", domain.ErrLLMMaxRetriesExceeded, err)
	default:
		return err
	}
}

// IsRetryableError reports whether err is worth another attempt
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// http.Client timeouts wrap context.DeadlineExceeded, check them first
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if errors.Is(err, domain.ErrLLMRateLimited) {
		return true
	}

	var llmErr *domain.LLMError
	if errors.As(err, &llmErr) {
		// transport failures carry no status code
		if llmErr.StatusCode == 0 && llmErr.Err != nil && !errors.Is(llmErr.Err, domain.ErrLLMEmptyResponse) {
			return true
		}
		return ShouldRetryStatusCode(llmErr.StatusCode)
	}

	return false
}

// ShouldRetryStatusCode checks if an HTTP status code is retryable
func ShouldRetryStatusCode(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
