package domain

//go:generate mockgen -source=interfaces.go -destination=../mocks/domain.go -package=mocks

import "context"

// RepositoryParser indexes the markdown documents of a GitHub repository
type RepositoryParser interface {
	// Parse downloads, extracts and indexes the repository behind rawURL
	Parse(ctx context.Context, rawURL string) (*ParseResult, error)
}

// Translator translates markdown between two languages
type Translator interface {
	// Translate returns source translated from one language to another,
	// biased by the fine-tune examples stored under token
	Translate(ctx context.Context, req TranslationRequest) (string, error)
}

// TranslationRequest carries one translation call
type TranslationRequest struct {
	Token        string
	LanguageFrom string
	LanguageTo   string
	Source       string
}

// LLMProvider defines the interface for LLM interactions
type LLMProvider interface {
	// Name returns the provider name (together, openai, anthropic, ollama)
	Name() string
	// Complete sends a request and returns the response
	Complete(ctx context.Context, req *LLMRequest) (*LLMResponse, error)
	// Close releases resources
	Close() error
}
