package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// geminiCompleter calls the Gemini API through the genai SDK. The client is
// created on first use.
type geminiCompleter struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client

	once    sync.Once
	client  *genai.Client
	initErr error
}

func newGemini(cfg ProviderConfig, httpClient *http.Client) *geminiCompleter {
	return &geminiCompleter{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    cfg.BaseURL,
		httpClient: httpClient,
	}
}

func (g *geminiCompleter) init(ctx context.Context) error {
	g.once.Do(func() {
		config := &genai.ClientConfig{
			APIKey:     g.apiKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: g.httpClient,
		}
		if g.baseURL != "" {
			config.HTTPOptions = genai.HTTPOptions{BaseURL: g.baseURL}
		}
		g.client, g.initErr = genai.NewClient(ctx, config)
	})
	if g.initErr != nil {
		return fmt.Errorf("failed to create Gemini client: %w", g.initErr)
	}
	return nil
}

func (g *geminiCompleter) Complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	if err := g.init(ctx); err != nil {
		return "", err
	}
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		},
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(user), config)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return b.String(), nil
}
