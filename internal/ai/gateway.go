package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/imrishuroy/go-support-chatbot/internal/apperr"
)

// Completer issues a single completion call.
type Completer interface {
	Complete(ctx context.Context, system, user string, maxTokens int) (string, error)
}

// ProviderConfig holds the credentials and model of one backend.
type ProviderConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Config configures a Gateway.
type Config struct {
	Gemini     ProviderConfig
	Claude     ProviderConfig
	HTTPClient *http.Client
}

// Gateway routes a generation to the requested provider.
type Gateway struct {
	completers map[Provider]Completer
	nowFunc    func() time.Time
	log        zerolog.Logger
}

// NewGateway builds a Gateway. Providers without an API key are left
// unregistered and fail with a configuration error when requested.
func NewGateway(cfg Config, log zerolog.Logger) *Gateway {
	completers := map[Provider]Completer{}
	if cfg.Gemini.APIKey != "" {
		completers[Gemini] = newGemini(cfg.Gemini, cfg.HTTPClient)
	}
	if cfg.Claude.APIKey != "" {
		completers[Claude] = newClaude(cfg.Claude, cfg.HTTPClient)
	}
	return NewGatewayWith(completers, log)
}

// NewGatewayWith builds a Gateway over explicit completers.
func NewGatewayWith(completers map[Provider]Completer, log zerolog.Logger) *Gateway {
	return &Gateway{
		completers: completers,
		nowFunc:    time.Now,
		log:        log,
	}
}

// Configured reports whether p has credentials.
func (g *Gateway) Configured(p Provider) bool {
	_, ok := g.completers[p]
	return ok
}

// Generate runs req against provider. The returned Result is always
// populated; err is non-nil exactly when Result.Success is false.
func (g *Gateway) Generate(ctx context.Context, provider Provider, req Request) (Result, error) {
	const op = "ai.generate"
	res := Result{Provider: provider, Timestamp: g.nowFunc()}

	fail := func(err error) (Result, error) {
		res.Error = apperr.Message(err)
		g.log.Warn().Err(err).Str("provider", string(provider)).Msg("ai generation failed")
		return res, err
	}

	if _, err := ParseProvider(string(provider)); err != nil {
		return fail(err)
	}
	c, ok := g.completers[provider]
	if !ok {
		return fail(apperr.Configuration(op, fmt.Sprintf("missing API key for %s", provider)))
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	system, user := BuildPrompt(req)
	text, err := c.Complete(ctx, system, user, maxTokens)
	if err != nil {
		if apperr.KindOf(err) == "" {
			err = apperr.Upstream(op, fmt.Sprintf("%s request failed", provider), err)
		}
		return fail(err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return fail(apperr.Upstream(op, fmt.Sprintf("%s returned an empty response", provider), nil))
	}

	res.Success = true
	res.Content = text
	return res, nil
}
