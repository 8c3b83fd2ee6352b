package finetune

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps examples in Redis so several server replicas share them.
//
// Layout per token:
//
//	{prefix}{token hash}:pairs          set of "from\x1fto"
//	{prefix}{token hash}:ex:{pair hash} list of JSON examples
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a RedisStore. The client is owned by the store.
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) pairsKey(token string) string {
	return s.prefix + TokenKey(token) + ":pairs"
}

func (s *RedisStore) examplesKey(token, from, to string) string {
	return s.prefix + TokenKey(token) + ":ex:" + pairKey(from, to)
}

func (s *RedisStore) Examples(ctx context.Context, token, from, to string) ([]Example, error) {
	vals, err := s.rdb.LRange(ctx, s.examplesKey(token, from, to), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read examples: %w", err)
	}
	return decodeExamples(vals)
}

func (s *RedisStore) Append(ctx context.Context, token, from, to string, ex Example) (UserExamples, error) {
	if err := validateAppend(token, from, to); err != nil {
		return nil, err
	}

	data, err := json.Marshal(ex)
	if err != nil {
		return nil, fmt.Errorf("marshal example: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, s.examplesKey(token, from, to), data)
		// SADD is idempotent
		pipe.SAdd(ctx, s.pairsKey(token), pairID(from, to))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("append example: %w", err)
	}

	return s.User(ctx, token)
}

func (s *RedisStore) User(ctx context.Context, token string) (UserExamples, error) {
	pairs, err := s.rdb.SMembers(ctx, s.pairsKey(token)).Result()
	if err != nil {
		return nil, fmt.Errorf("list language pairs: %w", err)
	}

	user := make(UserExamples)
	for _, id := range pairs {
		from, to, ok := splitPairID(id)
		if !ok {
			continue
		}
		examples, err := s.Examples(ctx, token, from, to)
		if err != nil {
			return nil, err
		}
		for _, ex := range examples {
			user.Add(from, to, ex)
		}
	}
	return user, nil
}

// Close closes the underlying client
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func decodeExamples(vals []string) ([]Example, error) {
	examples := make([]Example, 0, len(vals))
	for _, v := range vals {
		var ex Example
		if err := json.Unmarshal([]byte(v), &ex); err != nil {
			return nil, fmt.Errorf("unmarshal example: %w", err)
		}
		examples = append(examples, ex)
	}
	return examples, nil
}
