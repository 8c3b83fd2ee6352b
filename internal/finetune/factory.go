package finetune

import (
	"fmt"

	"github.com/quantmind-br/docstranslate/internal/config"
	"github.com/redis/go-redis/v9"
)

// New opens the store selected by cfg.Backend
func New(cfg config.FineTuneConfig) (Store, error) {
	switch cfg.Backend {
	case "", config.FineTuneBackendMemory:
		return NewMemoryStore(), nil
	case config.FineTuneBackendBadger:
		return NewBadgerStore(BadgerOptions{Directory: cfg.Directory})
	case config.FineTuneBackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return NewRedisStore(rdb, cfg.Redis.KeyPrefix), nil
	default:
		return nil, fmt.Errorf("unknown finetune backend %q", cfg.Backend)
	}
}
