package finetune

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const badgerKeyPrefix = "ft:"

// BadgerOptions contains options for opening a BadgerStore
type BadgerOptions struct {
	Directory string
	InMemory  bool
	// Logger enables badger's internal logging
	Logger bool
}

// BadgerStore persists examples in an embedded BadgerDB.
// Keys are ft:{token hash}:{from}\x1f{to}, values are JSON example lists.
type BadgerStore struct {
	db   *badger.DB
	mu   sync.Mutex
	stop chan struct{}
}

var _ Store = (*BadgerStore)(nil)

// NewBadgerStore opens (or creates) a badger database
func NewBadgerStore(opts BadgerOptions) (*BadgerStore, error) {
	var badgerOpts badger.Options

	if opts.InMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Directory == "" {
			return nil, fmt.Errorf("badger directory is required")
		}
		if err := os.MkdirAll(opts.Directory, 0755); err != nil {
			return nil, err
		}
		badgerOpts = badger.DefaultOptions(opts.Directory)
	}

	if !opts.Logger {
		badgerOpts = badgerOpts.WithLogger(nil)
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	s := &BadgerStore{db: db, stop: make(chan struct{})}
	if !opts.InMemory {
		go s.runGC()
	}
	return s, nil
}

func (s *BadgerStore) runGC() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			_ = s.db.RunValueLogGC(0.5)
		}
	}
}

func userPrefix(token string) []byte {
	return []byte(badgerKeyPrefix + TokenKey(token) + ":")
}

func exampleKey(token, from, to string) []byte {
	return append(userPrefix(token), pairID(from, to)...)
}

func (s *BadgerStore) Examples(ctx context.Context, token, from, to string) ([]Example, error) {
	var examples []Example
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		examples, err = readExamples(txn, exampleKey(token, from, to))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read examples: %w", err)
	}
	return examples, nil
}

func (s *BadgerStore) Append(ctx context.Context, token, from, to string, ex Example) (UserExamples, error) {
	if err := validateAppend(token, from, to); err != nil {
		return nil, err
	}

	key := exampleKey(token, from, to)

	// appends are read-modify-write, serialize them instead of retrying conflicts
	s.mu.Lock()
	err := s.db.Update(func(txn *badger.Txn) error {
		examples, err := readExamples(txn, key)
		if err != nil {
			return err
		}
		data, err := json.Marshal(append(examples, ex))
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("append example: %w", err)
	}

	return s.User(ctx, token)
}

func (s *BadgerStore) User(ctx context.Context, token string) (UserExamples, error) {
	user := make(UserExamples)
	prefix := userPrefix(token)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			from, to, ok := splitPairID(string(item.Key()[len(prefix):]))
			if !ok {
				continue
			}
			var examples []Example
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &examples)
			}); err != nil {
				return err
			}
			for _, ex := range examples {
				user.Add(from, to, ex)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read user examples: %w", err)
	}
	return user, nil
}

// Close stops background GC and closes the database
func (s *BadgerStore) Close() error {
	close(s.stop)
	return s.db.Close()
}

func readExamples(txn *badger.Txn, key []byte) ([]Example, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var examples []Example
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &examples)
	})
	return examples, err
}
