package ai

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imrishuroy/go-support-chatbot/internal/apperr"
)

type fakeCompleter struct {
	text      string
	err       error
	calls     int
	maxTokens int
	user      string
	deadline  bool
}

func (f *fakeCompleter) Complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	f.calls++
	f.maxTokens = maxTokens
	f.user = user
	_, f.deadline = ctx.Deadline()
	return f.text, f.err
}

func TestGenerate_Success(t *testing.T) {
	fc := &fakeCompleter{text: "  Tu pedido llega mañana.  "}
	g := NewGatewayWith(map[Provider]Completer{Gemini: fc}, zerolog.Nop())

	res, err := g.Generate(context.Background(), Gemini, Request{UserQuery: "¿Dónde está mi pedido?", Context: "envíos"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Tu pedido llega mañana.", res.Content)
	assert.Equal(t, Gemini, res.Provider)
	assert.Equal(t, DefaultMaxTokens, fc.maxTokens)
	assert.Contains(t, fc.user, "Contexto: envíos")
	assert.False(t, fc.deadline)
}

func TestGenerate_UnsupportedProviderMakesNoCall(t *testing.T) {
	fc := &fakeCompleter{text: "x"}
	g := NewGatewayWith(map[Provider]Completer{Gemini: fc, "openai": fc}, zerolog.Nop())

	res, err := g.Generate(context.Background(), "openai", Request{UserQuery: "hola"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
	assert.Equal(t, 0, fc.calls)
}

func TestGenerate_MissingKeyDoesNotFallBack(t *testing.T) {
	fc := &fakeCompleter{text: "respuesta"}
	g := NewGatewayWith(map[Provider]Completer{Gemini: fc}, zerolog.Nop())

	_, err := g.Generate(context.Background(), Claude, Request{UserQuery: "hola"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConfiguration))
	assert.Equal(t, 0, fc.calls)
}

func TestGenerate_EmptyTextIsFailure(t *testing.T) {
	fc := &fakeCompleter{text: "   "}
	g := NewGatewayWith(map[Provider]Completer{Claude: fc}, zerolog.Nop())

	res, err := g.Generate(context.Background(), Claude, Request{UserQuery: "hola", MaxTokens: 120, Timeout: time.Second})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUpstream))
	assert.False(t, res.Success)
	assert.Equal(t, 120, fc.maxTokens)
	assert.True(t, fc.deadline)
}

func TestGenerate_UpstreamErrorIsWrapped(t *testing.T) {
	cause := errors.New("503 service unavailable")
	g := NewGatewayWith(map[Provider]Completer{Gemini: &fakeCompleter{err: cause}}, zerolog.Nop())

	_, err := g.Generate(context.Background(), Gemini, Request{UserQuery: "hola"})
	assert.ErrorIs(t, err, cause)
	assert.True(t, apperr.Is(err, apperr.KindUpstream))
}

func TestParseProvider(t *testing.T) {
	p, err := ParseProvider(" Claude ")
	require.NoError(t, err)
	assert.Equal(t, Claude, p)

	_, err = ParseProvider("bard")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestClaudeCompleter_OverHTTP(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		body, _ := io.ReadAll(r.Body)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"))
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		assert.Contains(t, string(body), "max_tokens")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-5-haiku-latest",
			"content":[{"type":"text","text":"Hola, ¿en qué puedo ayudarte?"}],
			"stop_reason":"end_turn","usage":{"input_tokens":10,"output_tokens":8}}`)
	}))
	defer srv.Close()

	g := NewGateway(Config{Claude: ProviderConfig{APIKey: "test-key", Model: "claude-3-5-haiku-latest", BaseURL: srv.URL}}, zerolog.Nop())
	res, err := g.Generate(context.Background(), Claude, Request{UserQuery: "hola"})
	require.NoError(t, err)
	assert.Equal(t, "Hola, ¿en qué puedo ayudarte?", res.Content)
	assert.Equal(t, 1, hits)
}

func TestClaudeCompleter_ServerErrorIsNotRetried(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"type":"error","error":{"type":"api_error","message":"overloaded"}}`)
	}))
	defer srv.Close()

	g := NewGateway(Config{Claude: ProviderConfig{APIKey: "k", Model: "claude-3-5-haiku-latest", BaseURL: srv.URL}}, zerolog.Nop())
	res, err := g.Generate(context.Background(), Claude, Request{UserQuery: "hola"})
	require.Error(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 1, hits)
}

func TestGeminiCompleter_OverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "gemini-1.5-flash:generateContent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Nuestro horario es de 9 a 18."}]}}]}`)
	}))
	defer srv.Close()

	g := NewGateway(Config{Gemini: ProviderConfig{APIKey: "k", Model: "gemini-1.5-flash", BaseURL: srv.URL}}, zerolog.Nop())
	res, err := g.Generate(context.Background(), Gemini, Request{UserQuery: "horario"})
	require.NoError(t, err)
	assert.Equal(t, "Nuestro horario es de 9 a 18.", res.Content)
}

func TestGeminiCompleter_NoCandidatesIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[]}`)
	}))
	defer srv.Close()

	g := NewGateway(Config{Gemini: ProviderConfig{APIKey: "k", Model: "gemini-1.5-flash", BaseURL: srv.URL}}, zerolog.Nop())
	res, err := g.Generate(context.Background(), Gemini, Request{UserQuery: "horario"})
	require.Error(t, err)
	assert.False(t, res.Success)
}
