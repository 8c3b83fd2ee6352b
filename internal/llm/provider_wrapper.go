package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/quantmind-br/docstranslate/internal/config"
	"github.com/quantmind-br/docstranslate/internal/domain"
	"github.com/quantmind-br/docstranslate/internal/utils"
)

// ResilienceConfig configures the ResilientProvider wrapper
type ResilienceConfig struct {
	RequestsPerMinute     int
	BurstSize             int
	Retry                 RetryConfig
	CircuitBreakerEnabled bool
	CircuitBreaker        CircuitBreakerConfig
}

// ResilienceConfigFrom maps the llm.rate_limit config section
func ResilienceConfigFrom(rl config.RateLimitConfig) ResilienceConfig {
	return ResilienceConfig{
		RequestsPerMinute: rl.RequestsPerMinute,
		BurstSize:         rl.BurstSize,
		Retry: RetryConfig{
			MaxRetries:      rl.MaxRetries,
			InitialInterval: rl.InitialDelay,
			MaxInterval:     rl.MaxDelay,
			Multiplier:      rl.Multiplier,
			JitterFactor:    DefaultRetryConfig().JitterFactor,
		},
		CircuitBreakerEnabled: rl.CircuitBreaker.Enabled,
		CircuitBreaker: CircuitBreakerConfig{
			FailureThreshold:         rl.CircuitBreaker.FailureThreshold,
			SuccessThresholdHalfOpen: rl.CircuitBreaker.SuccessThresholdHalfOpen,
			ResetTimeout:             rl.CircuitBreaker.ResetTimeout,
		},
	}
}

// ResilientProvider wraps an LLMProvider with rate limiting, retries and a
// circuit breaker. One logical call counts once against the breaker no
// matter how many retries it took.
type ResilientProvider struct {
	provider    domain.LLMProvider
	rateLimiter RateLimiter
	retrier     *Retrier
	breaker     *CircuitBreaker
	logger      *utils.Logger
}

var _ domain.LLMProvider = (*ResilientProvider)(nil)

// NewResilientProvider creates the wrapper
func NewResilientProvider(provider domain.LLMProvider, cfg ResilienceConfig, logger *utils.Logger) *ResilientProvider {
	p := &ResilientProvider{
		provider:    provider,
		rateLimiter: NewRateLimiter(cfg.RequestsPerMinute, cfg.BurstSize),
		retrier:     NewRetrier(cfg.Retry, logger),
		logger:      logger,
	}

	if cfg.CircuitBreakerEnabled {
		p.breaker = NewCircuitBreaker(cfg.CircuitBreaker)
		p.breaker.OnStateChange = func(from, to CircuitState) {
			if logger != nil {
				logger.Warn().
					Str("provider", provider.Name()).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("LLM circuit breaker state changed")
			}
		}
	}
	return p
}

// Name returns the wrapped provider's name
func (p *ResilientProvider) Name() string {
	return p.provider.Name()
}

// Complete sends req once the rate limiter and circuit breaker allow it
func (p *ResilientProvider) Complete(ctx context.Context, req *domain.LLMRequest) (*domain.LLMResponse, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	if p.breaker != nil {
		if err := p.breaker.Allow(); err != nil {
			if p.logger != nil {
				p.logger.Warn().Str("provider", p.provider.Name()).Msg("Circuit breaker is open, rejecting request")
			}
			return nil, err
		}
	}

	start := time.Now()
	var response *domain.LLMResponse
	err := p.retrier.Execute(ctx, func() error {
		var err error
		response, err = p.provider.Complete(ctx, req)
		return err
	})

	if p.breaker != nil {
		p.breaker.Record(err)
	}

	if err != nil {
		if p.logger != nil {
			p.logger.Error().Err(err).Str("provider", p.provider.Name()).Msg("LLM request failed")
		}
		return nil, err
	}

	if p.logger != nil {
		p.logger.Debug().
			Str("provider", p.provider.Name()).
			Int("total_tokens", response.Usage.TotalTokens).
			Dur("duration", time.Since(start)).
			Msg("LLM request completed")
	}
	return response, nil
}

// Close closes the wrapped provider
func (p *ResilientProvider) Close() error {
	return p.provider.Close()
}
