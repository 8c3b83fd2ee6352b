// Package finetune stores caller-submitted translation examples.
//
// Examples are grouped by an opaque bearer token, then by source and target
// language. Collections are append-only.
package finetune

//go:generate mockgen -source=store.go -destination=../mocks/finetune.go -package=mocks

import (
	"context"
	"fmt"
	"strings"

	"github.com/quantmind-br/docstranslate/internal/domain"
)

// Example is one source/target translation pair
type Example struct {
	SourceText string `json:"source_text"`
	OutputText string `json:"output_text"`
}

// UserExamples maps source language to target language to examples
type UserExamples map[string]map[string][]Example

// Store is an append-only keyed collection of fine-tune examples
type Store interface {
	// Examples returns the examples of token for one language pair, oldest first
	Examples(ctx context.Context, token, from, to string) ([]Example, error)
	// Append adds ex and returns every example stored for token
	Append(ctx context.Context, token, from, to string, ex Example) (UserExamples, error)
	// User returns every example stored for token
	User(ctx context.Context, token string) (UserExamples, error)
	Close() error
}

// Add appends ex under (from, to)
func (u UserExamples) Add(from, to string, ex Example) {
	if u[from] == nil {
		u[from] = make(map[string][]Example)
	}
	u[from][to] = append(u[from][to], ex)
}

// Count returns the number of examples across all language pairs
func (u UserExamples) Count() int {
	n := 0
	for _, targets := range u {
		for _, examples := range targets {
			n += len(examples)
		}
	}
	return n
}

// Clone returns a deep copy
func (u UserExamples) Clone() UserExamples {
	out := make(UserExamples, len(u))
	for from, targets := range u {
		out[from] = make(map[string][]Example, len(targets))
		for to, examples := range targets {
			out[from][to] = append([]Example(nil), examples...)
		}
	}
	return out
}

// validateAppend rejects appends without a token and language names that
// would break the stored pair encoding
func validateAppend(token, from, to string) error {
	if strings.TrimSpace(token) == "" {
		return domain.ErrMissingToken
	}
	for _, lang := range []string{from, to} {
		if strings.Contains(lang, pairSeparator) {
			return fmt.Errorf("%w: %q", domain.ErrInvalidLanguage, lang)
		}
	}
	return nil
}
