package finetune

import (
	"context"
	"sync"
)

// MemoryStore keeps examples in process memory
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]UserExamples
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]UserExamples)}
}

func (s *MemoryStore) Examples(ctx context.Context, token, from, to string) ([]Example, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	examples := s.users[token][from][to]
	return append([]Example(nil), examples...), nil
}

func (s *MemoryStore) Append(ctx context.Context, token, from, to string, ex Example) (UserExamples, error) {
	if err := validateAppend(token, from, to); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[token]
	if !ok {
		user = make(UserExamples)
		s.users[token] = user
	}
	user.Add(from, to, ex)
	return user.Clone(), nil
}

func (s *MemoryStore) User(ctx context.Context, token string) (UserExamples, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[token]
	if !ok {
		return UserExamples{}, nil
	}
	return user.Clone(), nil
}

func (s *MemoryStore) Close() error {
	return nil
}
