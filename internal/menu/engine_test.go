package menu

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imrishuroy/go-support-chatbot/internal/ai"
	"github.com/imrishuroy/go-support-chatbot/internal/envelope"
	"github.com/imrishuroy/go-support-chatbot/internal/escalation"
	"github.com/imrishuroy/go-support-chatbot/internal/logs"
	"github.com/imrishuroy/go-support-chatbot/internal/settings"
)

// Monday
var (
	inHours    = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	afterHours = time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC)
)

type sliceSource struct {
	opts []Option
	err  error
}

func (s sliceSource) Active(ctx context.Context) ([]Option, error) { return s.opts, s.err }

type fakeConfig struct{}

func (fakeConfig) BusinessHours(ctx context.Context) settings.BusinessHours {
	return settings.NewBusinessHours("09:00", "18:00", "Mon,Tue,Wed,Thu,Fri", "lunes a viernes de 9 a 18", "UTC")
}
func (fakeConfig) Greetings(ctx context.Context) settings.Greetings {
	return settings.Greetings{BusinessHours: "¡Hola! ¿En qué podemos ayudarte?", AfterHours: "Hola, estamos fuera de horario."}
}
func (fakeConfig) FooterMessage(ctx context.Context) string { return "Escribí el número de la opción." }
func (fakeConfig) AIConfig(ctx context.Context) settings.AIConfig {
	return settings.AIConfig{DefaultProvider: "gemini", MaxTokens: 300, Timeout: 30 * time.Second}
}

type fakeAI struct {
	content string
	err     error
	calls   []ai.Request
	used    []ai.Provider
}

func (f *fakeAI) Generate(ctx context.Context, p ai.Provider, req ai.Request) (ai.Result, error) {
	f.calls = append(f.calls, req)
	f.used = append(f.used, p)
	if f.err != nil {
		return ai.Result{Provider: p, Error: f.err.Error()}, f.err
	}
	return ai.Result{Success: true, Content: f.content, Provider: p}, nil
}

type memSink struct{ entries []logs.Entry }

func (m *memSink) Append(ctx context.Context, e logs.Entry) error {
	m.entries = append(m.entries, e)
	return nil
}

func (m *memSink) ofType(typ string) []logs.Entry {
	var out []logs.Entry
	for _, e := range m.entries {
		if e.InteractionType == typ {
			out = append(out, e)
		}
	}
	return out
}

func no() *bool { b := false; return &b }

func sampleMenu() []Option {
	return []Option{
		{Number: 1, Title: "Horarios de atención", ResponseType: ResponseStatic, StaticResponse: "Atendemos de lunes a viernes de 9 a 18."},
		{Number: 2, Title: "Políticas de envío", ResponseType: ResponseAI, AIContext: "Envíos a todo el país", FallbackResponse: "Los envíos demoran de 3 a 5 días.", MaxTokens: 500},
		{Number: 3, Title: "Medios de pago", ResponseType: ResponseStatic, StaticResponse: "Aceptamos tarjetas.", ReturnToMenu: no()},
		{Number: 4, Title: "Hablar con un agente", ResponseType: ResponseEscalate, EscalationMessage: "Te derivamos con un agente."},
		{Number: 5, Title: "Garantía", ResponseType: ResponseAI, AIProvider: "claude", MaxTokens: 200},
	}
}

type fixture struct {
	engine *Engine
	sink   *memSink
	ai     *fakeAI
}

func newFixture(at time.Time) fixture {
	sink := &memSink{}
	rec := logs.NewRecorder(sink, nil, zerolog.Nop())
	gen := &fakeAI{content: "Enviamos en 48 horas."}
	esc := escalation.NewService(fakeConfig{}, nil, nil, rec, zerolog.Nop())
	e := NewEngine(sliceSource{opts: sampleMenu()}, fakeConfig{}, gen, esc, rec, zerolog.Nop())
	e.nowFunc = func() time.Time { return at }
	return fixture{engine: e, sink: sink, ai: gen}
}

func TestGetMenu(t *testing.T) {
	f := newFixture(inHours)
	resp := f.engine.GetMenu(context.Background(), "s1")

	m, ok := resp.Payload.(envelope.Menu)
	require.True(t, ok)
	assert.True(t, m.BusinessHours)
	assert.Equal(t, "¡Hola! ¿En qué podemos ayudarte?", m.Greeting)
	assert.Len(t, m.Options, 5)
	assert.Equal(t, "Escribí el número de la opción.", m.Footer)
	require.Len(t, f.sink.entries, 1)
	assert.Equal(t, logs.TypeMenuDisplay, f.sink.entries[0].InteractionType)

	f = newFixture(afterHours)
	m = f.engine.GetMenu(context.Background(), "s1").Payload.(envelope.Menu)
	assert.False(t, m.BusinessHours)
	assert.Equal(t, "Hola, estamos fuera de horario.", m.Greeting)
}

func TestProcessSelection_Static(t *testing.T) {
	f := newFixture(inHours)
	r := f.engine.ProcessSelection(context.Background(), "1", "s1").Payload.(envelope.Reply)
	assert.Equal(t, envelope.KindStatic, r.Kind)
	assert.Equal(t, "Horarios de atención", r.Title)
	assert.True(t, r.ShowMenu)

	r = f.engine.ProcessSelection(context.Background(), "3", "s1").Payload.(envelope.Reply)
	assert.False(t, r.ShowMenu)
	assert.Len(t, f.sink.ofType(logs.TypeMenuSelection), 2)
}

func TestProcessSelection_AI(t *testing.T) {
	f := newFixture(inHours)
	r := f.engine.ProcessSelection(context.Background(), "2", "s1").Payload.(envelope.Reply)

	assert.Equal(t, envelope.KindAI, r.Kind)
	assert.Equal(t, "Enviamos en 48 horas.", r.Message)
	assert.Equal(t, "gemini", r.Provider)
	require.Len(t, f.ai.calls, 1)
	assert.Equal(t, ai.Request{UserQuery: "Políticas de envío", Context: "Envíos a todo el país", MaxTokens: 500, Timeout: 30 * time.Second}, f.ai.calls[0])

	f.engine.ProcessSelection(context.Background(), "5", "s1")
	assert.Equal(t, ai.Claude, f.ai.used[1])
	assert.Equal(t, 200, f.ai.calls[1].MaxTokens)
}

func TestProcessSelection_AIFallbackLoggedAsStatic(t *testing.T) {
	f := newFixture(inHours)
	f.ai.err = errors.New("upstream down")

	r := f.engine.ProcessSelection(context.Background(), "2", "s1").Payload.(envelope.Reply)
	assert.Equal(t, envelope.KindStatic, r.Kind)
	assert.Equal(t, "Los envíos demoran de 3 a 5 días.", r.Message)
	assert.Len(t, f.sink.ofType(logs.TypeStaticResponse), 1)
	assert.Empty(t, f.sink.ofType(logs.TypeAIResponse))
	assert.Empty(t, f.sink.ofType(logs.TypeError))

	r = f.engine.ProcessSelection(context.Background(), "5", "s1").Payload.(envelope.Reply)
	assert.Equal(t, GenericFallbackMessage, r.Message)
}

func TestProcessSelection_EscalationAfterHours(t *testing.T) {
	f := newFixture(afterHours)
	resp := f.engine.ProcessSelection(context.Background(), "4", "s1")

	assert.Equal(t, envelope.KindEscalation, resp.Type())
	esc := resp.Payload.(envelope.Escalation)
	assert.False(t, esc.BusinessHours)
	assert.False(t, esc.ShowMenu)
	assert.Contains(t, esc.Message, "lunes a viernes de 9 a 18")

	escalations := f.sink.ofType(logs.TypeEscalation)
	require.Len(t, escalations, 1)
	assert.Equal(t, logs.StatusAfterHours, escalations[0].Status)
}

func TestProcessSelection_EscalationInHours(t *testing.T) {
	f := newFixture(inHours)
	esc := f.engine.ProcessSelection(context.Background(), "4", "s1").Payload.(envelope.Escalation)
	assert.True(t, esc.BusinessHours)
	assert.Equal(t, "Te derivamos con un agente.", esc.Message)
	assert.Equal(t, logs.StatusPending, f.sink.ofType(logs.TypeEscalation)[0].Status)
}

func TestProcessSelection_InvalidIsNotLogged(t *testing.T) {
	f := newFixture(inHours)
	resp := f.engine.ProcessSelection(context.Background(), "99", "s1")

	assert.False(t, resp.Success())
	fail := resp.Payload.(envelope.Failure)
	assert.True(t, fail.ShowMenu)
	assert.Empty(t, f.sink.entries)

	for _, sel := range []string{"01", " 4", "4 ", "+4"} {
		resp = f.engine.ProcessSelection(context.Background(), sel, "s1")
		assert.False(t, resp.Success(), "selection %q", sel)
	}
	assert.Empty(t, f.sink.entries)
}

func TestProcessSelection_Exit(t *testing.T) {
	f := newFixture(inHours)
	r := f.engine.ProcessSelection(context.Background(), "0", "s1").Payload.(envelope.Reply)
	assert.Equal(t, envelope.KindFarewell, r.Kind)
	assert.False(t, r.ShowMenu)
}

func TestProcessSelection_Idempotent(t *testing.T) {
	for _, sel := range []string{"1", "2", "4", "99"} {
		f := newFixture(afterHours)
		a := f.engine.ProcessSelection(context.Background(), sel, "s1")
		b := f.engine.ProcessSelection(context.Background(), sel, "s1")
		assert.Equal(t, a.Type(), b.Type(), sel)
		assert.Equal(t, a.Payload, b.Payload, sel)
	}
}

func TestProcessSelection_SourceErrorIsCaught(t *testing.T) {
	sink := &memSink{}
	rec := logs.NewRecorder(sink, nil, zerolog.Nop())
	e := NewEngine(sliceSource{err: errors.New("table missing")}, fakeConfig{}, &fakeAI{}, nil, rec, zerolog.Nop())

	resp := e.ProcessSelection(context.Background(), "1", "s1")
	assert.False(t, resp.Success())
	fail := resp.Payload.(envelope.Failure)
	assert.Equal(t, UnavailableCode, fail.Error)
	assert.NotContains(t, fail.Error, "table missing")

	errs := sink.ofType(logs.TypeError)
	require.Len(t, errs, 1)
	assert.Equal(t, "table missing", errs[0].BotResponse)

	fail = e.GetMenu(context.Background(), "s1").Payload.(envelope.Failure)
	assert.Equal(t, UnavailableCode, fail.Error)
}
