// Package ai generates customer-service replies through one of the supported
// completion providers.
package ai

import (
	"fmt"
	"strings"
	"time"

	"github.com/imrishuroy/go-support-chatbot/internal/apperr"
)

// Provider names a completion backend.
type Provider string

const (
	Gemini Provider = "gemini"
	Claude Provider = "claude"
)

// Providers lists every supported backend.
var Providers = []Provider{Gemini, Claude}

// ParseProvider maps a configured name onto a Provider.
func ParseProvider(name string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(name)))
	switch p {
	case Gemini, Claude:
		return p, nil
	}
	return "", apperr.Validation("ai.parse_provider", fmt.Sprintf("unsupported AI provider %q", name))
}

// DefaultMaxTokens is used when a request does not set MaxTokens.
const DefaultMaxTokens = 500

// Request is one generation.
type Request struct {
	UserQuery string
	Context   string
	MaxTokens int
	// Timeout bounds the provider call when positive.
	Timeout time.Duration
	// Company names the business in the system instruction when set.
	Company string
}

// Result is the outcome of a generation.
type Result struct {
	Success   bool      `json:"success"`
	Content   string    `json:"content,omitempty"`
	Provider  Provider  `json:"provider"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}
