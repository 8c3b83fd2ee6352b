package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Archive   ArchiveConfig   `mapstructure:"archive" yaml:"archive"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	LLM       LLMConfig       `mapstructure:"llm" yaml:"llm"`
	FineTune  FineTuneConfig  `mapstructure:"finetune" yaml:"finetune"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host             string        `mapstructure:"host" yaml:"host"`
	Port             int           `mapstructure:"port" yaml:"port"`
	ReadTimeout      time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout  time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	ValidateRequests bool          `mapstructure:"validate_requests" yaml:"validate_requests"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ArchiveConfig contains branch snapshot download settings
type ArchiveConfig struct {
	BaseURL       string        `mapstructure:"base_url" yaml:"base_url"`
	Format        string        `mapstructure:"format" yaml:"format"`
	MaxSize       string        `mapstructure:"max_size" yaml:"max_size"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	TempDir       string        `mapstructure:"temp_dir" yaml:"temp_dir"`
	KeepExtracted bool          `mapstructure:"keep_extracted" yaml:"keep_extracted"`
}

// MaxSizeBytes returns the parsed archive size limit, 0 meaning unlimited
func (a ArchiveConfig) MaxSizeBytes() int64 {
	if a.MaxSize == "" {
		return 0
	}
	n, err := ParseSize(a.MaxSize)
	if err != nil {
		return 0
	}
	return n
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// LLMConfig contains LLM provider settings
type LLMConfig struct {
	Provider    string          `mapstructure:"provider" yaml:"provider"`
	APIKey      string          `mapstructure:"api_key" yaml:"api_key"`
	BaseURL     string          `mapstructure:"base_url" yaml:"base_url"`
	Model       string          `mapstructure:"model" yaml:"model"`
	MaxTokens   int             `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float64         `mapstructure:"temperature" yaml:"temperature"`
	Timeout     time.Duration   `mapstructure:"timeout" yaml:"timeout"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// RateLimitConfig contains rate limiting settings for LLM requests
type RateLimitConfig struct {
	Enabled           bool                 `mapstructure:"enabled" yaml:"enabled"`
	RequestsPerMinute int                  `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	BurstSize         int                  `mapstructure:"burst_size" yaml:"burst_size"`
	MaxRetries        int                  `mapstructure:"max_retries" yaml:"max_retries"`
	InitialDelay      time.Duration        `mapstructure:"initial_delay" yaml:"initial_delay"`
	MaxDelay          time.Duration        `mapstructure:"max_delay" yaml:"max_delay"`
	Multiplier        float64              `mapstructure:"multiplier" yaml:"multiplier"`
	CircuitBreaker    CircuitBreakerConfig `mapstructure:"circuit_breaker" yaml:"circuit_breaker"`
}

// CircuitBreakerConfig contains circuit breaker settings
type CircuitBreakerConfig struct {
	Enabled                  bool          `mapstructure:"enabled" yaml:"enabled"`
	FailureThreshold         int           `mapstructure:"failure_threshold" yaml:"failure_threshold"`
	SuccessThresholdHalfOpen int           `mapstructure:"success_threshold_half_open" yaml:"success_threshold_half_open"`
	ResetTimeout             time.Duration `mapstructure:"reset_timeout" yaml:"reset_timeout"`
}

// FineTuneConfig selects and configures the fine-tune example store
type FineTuneConfig struct {
	Backend   string      `mapstructure:"backend" yaml:"backend"`
	Directory string      `mapstructure:"directory" yaml:"directory"`
	Redis     RedisConfig `mapstructure:"redis" yaml:"redis"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Addr      string `mapstructure:"addr" yaml:"addr"`
	Password  string `mapstructure:"password" yaml:"password"`
	DB        int    `mapstructure:"db" yaml:"db"`
	KeyPrefix string `mapstructure:"key_prefix" yaml:"key_prefix"`
}

// TelemetryConfig contains OpenTelemetry exporter settings
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	Endpoint    string `mapstructure:"endpoint" yaml:"endpoint"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	Insecure    bool   `mapstructure:"insecure" yaml:"insecure"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		c.Server.Port = DefaultPort
	}
	if c.Server.ReadTimeout < time.Second {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.WriteTimeout < time.Second {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.ShutdownTimeout < time.Second {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if c.Archive.BaseURL == "" {
		c.Archive.BaseURL = DefaultArchiveBaseURL
	}
	switch c.Archive.Format {
	case "":
		c.Archive.Format = DefaultArchiveFormat
	case ArchiveFormatZip, ArchiveFormatTarGz:
	default:
		return fmt.Errorf("invalid archive.format %q: must be %s or %s",
			c.Archive.Format, ArchiveFormatZip, ArchiveFormatTarGz)
	}
	if c.Archive.Timeout < time.Second {
		c.Archive.Timeout = DefaultArchiveTimeout
	}
	if c.Archive.MaxSize != "" {
		if _, err := ParseSize(c.Archive.MaxSize); err != nil {
			return fmt.Errorf("invalid archive.max_size: %w", err)
		}
	}

	if c.LLM.Timeout < time.Second {
		c.LLM.Timeout = DefaultLLMTimeout
	}
	if c.LLM.MaxTokens < 1 {
		c.LLM.MaxTokens = DefaultLLMMaxTokens
	}

	switch c.FineTune.Backend {
	case "":
		c.FineTune.Backend = FineTuneBackendMemory
	case FineTuneBackendMemory, FineTuneBackendBadger, FineTuneBackendRedis:
	default:
		return fmt.Errorf("invalid finetune.backend %q", c.FineTune.Backend)
	}
	if c.FineTune.Backend == FineTuneBackendRedis && c.FineTune.Redis.Addr == "" {
		return fmt.Errorf("finetune.redis.addr is required for the redis backend")
	}
	if c.FineTune.Redis.KeyPrefix == "" {
		c.FineTune.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = DefaultServiceName
	}
	return nil
}

// ParseSize parses a human size such as "100MB" into bytes
func ParseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	var multiplier int64 = 1
	if strings.HasSuffix(s, "GB") {
		multiplier = 1024 * 1024 * 1024
		s = strings.TrimSuffix(s, "GB")
	} else if strings.HasSuffix(s, "MB") {
		multiplier = 1024 * 1024
		s = strings.TrimSuffix(s, "MB")
	} else if strings.HasSuffix(s, "KB") {
		multiplier = 1024
		s = strings.TrimSuffix(s, "KB")
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("no numeric value in size string")
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric value: %w", err)
	}

	if n < 0 {
		return 0, fmt.Errorf("negative size not allowed")
	}

	return n * multiplier, nil
}
