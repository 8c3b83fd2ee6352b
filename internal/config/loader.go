package config

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides (DOCSTRANSLATE_SERVER_PORT, ...)
const EnvPrefix = "DOCSTRANSLATE"

// providerKeyEnv lists the conventional API key variable of each provider,
// read when llm.api_key is not set
var providerKeyEnv = map[string]string{
	"together":  "TOGETHER_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
}

// Load loads configuration from file, environment, and defaults.
// Uses the global viper instance to access CLI flag bindings.
func Load() (*Config, error) {
	return load(viper.GetViper(), "")
}

// LoadFile loads configuration from an explicit file path into a fresh viper instance
func LoadFile(path string) (*Config, *viper.Viper, error) {
	v := viper.New()
	cfg, err := load(v, path)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

func load(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath(".")
	}

	// Missing config file is fine, a broken one is not
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv(providerKeyEnv[strings.ToLower(cfg.LLM.Provider)])
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	d := Default()

	// Server defaults
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.validate_requests", d.Server.ValidateRequests)

	// Archive defaults
	v.SetDefault("archive.base_url", d.Archive.BaseURL)
	v.SetDefault("archive.format", d.Archive.Format)
	v.SetDefault("archive.max_size", "")
	v.SetDefault("archive.timeout", d.Archive.Timeout)
	v.SetDefault("archive.temp_dir", "")
	v.SetDefault("archive.keep_extracted", false)

	// Logging defaults
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)

	// LLM defaults
	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	v.SetDefault("llm.temperature", d.LLM.Temperature)
	v.SetDefault("llm.timeout", d.LLM.Timeout)

	rl := d.LLM.RateLimit
	v.SetDefault("llm.rate_limit.enabled", rl.Enabled)
	v.SetDefault("llm.rate_limit.requests_per_minute", rl.RequestsPerMinute)
	v.SetDefault("llm.rate_limit.burst_size", rl.BurstSize)
	v.SetDefault("llm.rate_limit.max_retries", rl.MaxRetries)
	v.SetDefault("llm.rate_limit.initial_delay", rl.InitialDelay)
	v.SetDefault("llm.rate_limit.max_delay", rl.MaxDelay)
	v.SetDefault("llm.rate_limit.multiplier", rl.Multiplier)
	v.SetDefault("llm.rate_limit.circuit_breaker.enabled", rl.CircuitBreaker.Enabled)
	v.SetDefault("llm.rate_limit.circuit_breaker.failure_threshold", rl.CircuitBreaker.FailureThreshold)
	v.SetDefault("llm.rate_limit.circuit_breaker.success_threshold_half_open", rl.CircuitBreaker.SuccessThresholdHalfOpen)
	v.SetDefault("llm.rate_limit.circuit_breaker.reset_timeout", rl.CircuitBreaker.ResetTimeout)

	// Fine-tune defaults
	v.SetDefault("finetune.backend", d.FineTune.Backend)
	v.SetDefault("finetune.directory", d.FineTune.Directory)
	v.SetDefault("finetune.redis.addr", "")
	v.SetDefault("finetune.redis.password", "")
	v.SetDefault("finetune.redis.db", 0)
	v.SetDefault("finetune.redis.key_prefix", d.FineTune.Redis.KeyPrefix)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.service_name", d.Telemetry.ServiceName)
	v.SetDefault("telemetry.insecure", false)
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	return os.MkdirAll(ConfigDir(), 0755)
}
