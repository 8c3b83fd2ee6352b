package config

import (
	"os"
	"path/filepath"
	"time"
)

// Archive formats
const (
	ArchiveFormatZip   = "zip"
	ArchiveFormatTarGz = "tar.gz"
)

// Fine-tune store backends
const (
	FineTuneBackendMemory = "memory"
	FineTuneBackendBadger = "badger"
	FineTuneBackendRedis  = "redis"
)

// Default values
const (
	// Server defaults
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 8000
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 5 * time.Minute
	DefaultShutdownTimeout = 10 * time.Second

	// Archive defaults
	DefaultArchiveBaseURL = "https://github.com"
	DefaultArchiveFormat  = ArchiveFormatZip
	DefaultArchiveTimeout = 5 * time.Minute

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "pretty"

	// LLM defaults
	DefaultLLMProvider    = "together"
	DefaultLLMModel       = "meta-llama/Llama-3.2-11B-Vision-Instruct-Turbo"
	DefaultLLMMaxTokens   = 4096
	DefaultLLMTemperature = 0.7
	DefaultLLMTimeout     = 2 * time.Minute

	// Rate limit defaults
	DefaultRateLimitEnabled           = true
	DefaultRateLimitRequestsPerMinute = 60
	DefaultRateLimitBurstSize         = 10
	DefaultRateLimitMaxRetries        = 3
	DefaultRateLimitInitialDelay      = 1 * time.Second
	DefaultRateLimitMaxDelay          = 60 * time.Second
	DefaultRateLimitMultiplier        = 2.0

	// Circuit breaker defaults
	DefaultCircuitBreakerEnabled                  = true
	DefaultCircuitBreakerFailureThreshold         = 5
	DefaultCircuitBreakerSuccessThresholdHalfOpen = 1
	DefaultCircuitBreakerResetTimeout             = 30 * time.Second

	// Fine-tune defaults
	DefaultFineTuneBackend = FineTuneBackendMemory
	DefaultRedisKeyPrefix  = "docstranslate:finetune:"

	// Telemetry defaults
	DefaultServiceName = "docstranslate"
)

// ConfigDir returns the config directory path
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".docstranslate"
	}
	return filepath.Join(home, ".docstranslate")
}

// FineTuneDir returns the default badger directory for fine-tune examples
func FineTuneDir() string {
	return filepath.Join(ConfigDir(), "finetune")
}

// ConfigFilePath returns the config file path
func ConfigFilePath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             DefaultHost,
			Port:             DefaultPort,
			ReadTimeout:      DefaultReadTimeout,
			WriteTimeout:     DefaultWriteTimeout,
			ShutdownTimeout:  DefaultShutdownTimeout,
			ValidateRequests: true,
		},
		Archive: ArchiveConfig{
			BaseURL: DefaultArchiveBaseURL,
			Format:  DefaultArchiveFormat,
			Timeout: DefaultArchiveTimeout,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		LLM: LLMConfig{
			Provider:    DefaultLLMProvider,
			Model:       DefaultLLMModel,
			MaxTokens:   DefaultLLMMaxTokens,
			Temperature: DefaultLLMTemperature,
			Timeout:     DefaultLLMTimeout,
			RateLimit: RateLimitConfig{
				Enabled:           DefaultRateLimitEnabled,
				RequestsPerMinute: DefaultRateLimitRequestsPerMinute,
				BurstSize:         DefaultRateLimitBurstSize,
				MaxRetries:        DefaultRateLimitMaxRetries,
				InitialDelay:      DefaultRateLimitInitialDelay,
				MaxDelay:          DefaultRateLimitMaxDelay,
				Multiplier:        DefaultRateLimitMultiplier,
				CircuitBreaker: CircuitBreakerConfig{
					Enabled:                  DefaultCircuitBreakerEnabled,
					FailureThreshold:         DefaultCircuitBreakerFailureThreshold,
					SuccessThresholdHalfOpen: DefaultCircuitBreakerSuccessThresholdHalfOpen,
					ResetTimeout:             DefaultCircuitBreakerResetTimeout,
				},
			},
		},
		FineTune: FineTuneConfig{
			Backend:   DefaultFineTuneBackend,
			Directory: FineTuneDir(),
			Redis: RedisConfig{
				KeyPrefix: DefaultRedisKeyPrefix,
			},
		},
		Telemetry: TelemetryConfig{
			ServiceName: DefaultServiceName,
		},
	}
}
