// Package menu serves the configurable option menu and answers selections
// with a static reply, an AI-generated reply or a hand-off to a human.
package menu

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/imrishuroy/go-support-chatbot/internal/ai"
	"github.com/imrishuroy/go-support-chatbot/internal/envelope"
	"github.com/imrishuroy/go-support-chatbot/internal/escalation"
	"github.com/imrishuroy/go-support-chatbot/internal/logs"
	"github.com/imrishuroy/go-support-chatbot/internal/settings"
)

// Messages shown by the engine itself.
const (
	InvalidSelectionMessage = "Selección inválida. Por favor elegí una de las opciones del menú."
	GenericFallbackMessage  = "En este momento no podemos generar una respuesta. Por favor intentá nuevamente o elegí otra opción del menú."
	FarewellMessage         = "¡Gracias por comunicarte con nosotros! Que tengas un buen día."
	UnavailableMessage      = "El menú no está disponible en este momento. Por favor intentá más tarde."
)

// UnavailableCode is the public error code for a menu that could not be
// loaded. The cause is kept in the error log entry.
const UnavailableCode = "menu_unavailable"

// OptionSource loads the active options.
type OptionSource interface {
	Active(ctx context.Context) ([]Option, error)
}

// Config is the subset of the settings store the engine reads.
type Config interface {
	BusinessHours(ctx context.Context) settings.BusinessHours
	Greetings(ctx context.Context) settings.Greetings
	FooterMessage(ctx context.Context) string
	AIConfig(ctx context.Context) settings.AIConfig
}

// Generator produces AI replies.
type Generator interface {
	Generate(ctx context.Context, provider ai.Provider, req ai.Request) (ai.Result, error)
}

// Escalator hands a session over to a human.
type Escalator interface {
	Escalate(ctx context.Context, req escalation.Request) envelope.Escalation
}

// Engine runs the menu state machine for one request at a time.
type Engine struct {
	options   OptionSource
	config    Config
	ai        Generator
	escalator Escalator
	recorder  *logs.Recorder
	nowFunc   func() time.Time
	log       zerolog.Logger
}

// NewEngine wires an Engine.
func NewEngine(options OptionSource, config Config, gen Generator, esc Escalator, recorder *logs.Recorder, log zerolog.Logger) *Engine {
	return &Engine{
		options:   options,
		config:    config,
		ai:        gen,
		escalator: esc,
		recorder:  recorder,
		nowFunc:   time.Now,
		log:       log,
	}
}

// GetMenu lists the active options with the greeting for the current hours.
func (e *Engine) GetMenu(ctx context.Context, sessionID string) envelope.Response {
	now := e.nowFunc()
	opts, err := e.options.Active(ctx)
	if err != nil {
		e.recorder.Error(ctx, "menu.get_menu", err, sessionID, nil)
		return envelope.New(envelope.Failure{Message: UnavailableMessage, Error: UnavailableCode}, now)
	}

	open := e.config.BusinessHours(ctx).IsOpen(now)
	greetings := e.config.Greetings(ctx)
	greeting := greetings.AfterHours
	if open {
		greeting = greetings.BusinessHours
	}

	items := make([]envelope.MenuItem, 0, len(opts))
	for _, o := range opts {
		if o.Number == ExitNumber {
			continue
		}
		items = append(items, envelope.MenuItem{Number: o.Number, Title: o.Title})
	}

	e.recorder.Interaction(ctx, logs.Interaction{
		SessionID:    sessionID,
		Type:         logs.TypeMenuDisplay,
		BotResponse:  greeting,
		ResponseTime: e.nowFunc().Sub(now),
		Metadata:     map[string]any{"options": len(items), "businessHours": open},
	})

	return envelope.New(envelope.Menu{
		BusinessHours: open,
		Greeting:      greeting,
		Options:       items,
		Footer:        e.config.FooterMessage(ctx),
	}, now)
}

// ProcessSelection answers a menu selection. The selection must equal an
// option number exactly. Unknown selections return a failure with the menu
// offered again and are not logged.
func (e *Engine) ProcessSelection(ctx context.Context, selection, sessionID string) envelope.Response {
	now := e.nowFunc()

	if selection == strconv.Itoa(ExitNumber) {
		e.recordSelection(ctx, sessionID, selection, "exit")
		return envelope.New(envelope.Reply{Kind: envelope.KindFarewell, Message: FarewellMessage}, now)
	}

	opts, err := e.options.Active(ctx)
	if err != nil {
		e.recorder.Error(ctx, "menu.process_selection", err, sessionID, map[string]any{"selection": selection})
		return envelope.New(envelope.Failure{Message: UnavailableMessage, Error: UnavailableCode, ShowMenu: true}, now)
	}

	option, ok := find(opts, selection)
	if !ok {
		return envelope.New(envelope.Failure{Message: InvalidSelectionMessage, ShowMenu: true}, now)
	}
	e.recordSelection(ctx, sessionID, selection, option.Title)

	switch option.ResponseType {
	case ResponseStatic:
		return envelope.New(envelope.Reply{
			Kind:     envelope.KindStatic,
			Title:    option.Title,
			Message:  option.StaticResponse,
			ShowMenu: option.ShowsMenu(),
		}, now)
	case ResponseAI:
		return envelope.New(e.aiReply(ctx, option, sessionID), now)
	case ResponseEscalate:
		return envelope.New(e.escalator.Escalate(ctx, escalation.Request{
			SessionID:         sessionID,
			Reason:            escalation.ReasonMenu,
			UserMessage:       option.Title,
			Message:           option.EscalationMessage,
			AfterHoursMessage: option.AfterHoursMessage,
			Details:           map[string]any{"option": option.Number},
			At:                now,
		}), now)
	}
	// validated at load, unreachable for repository rows
	return envelope.New(envelope.Failure{Message: InvalidSelectionMessage, ShowMenu: true}, now)
}

func (e *Engine) aiReply(ctx context.Context, option Option, sessionID string) envelope.Reply {
	cfg := e.config.AIConfig(ctx)
	name := option.AIProvider
	if name == "" {
		name = cfg.DefaultProvider
	}
	maxTokens := option.MaxTokens
	if maxTokens <= 0 {
		maxTokens = cfg.MaxTokens
	}

	start := e.nowFunc()
	provider, err := ai.ParseProvider(name)
	var res ai.Result
	if err == nil {
		res, err = e.ai.Generate(ctx, provider, ai.Request{
			UserQuery: option.Title,
			Context:   option.AIContext,
			MaxTokens: maxTokens,
			Timeout:   cfg.Timeout,
			Company:   cfg.Company,
		})
	}
	took := e.nowFunc().Sub(start)

	if err == nil {
		e.recorder.AICall(ctx, sessionID, string(provider), option.Title, res.Content, true, took)
		return envelope.Reply{
			Kind:     envelope.KindAI,
			Title:    option.Title,
			Message:  res.Content,
			ShowMenu: option.ShowsMenu(),
			Provider: string(provider),
		}
	}

	message := option.FallbackResponse
	if strings.TrimSpace(message) == "" {
		message = GenericFallbackMessage
	}
	e.recorder.Interaction(ctx, logs.Interaction{
		SessionID:    sessionID,
		Type:         logs.TypeStaticResponse,
		UserMessage:  option.Title,
		BotResponse:  message,
		ResponseTime: took,
		Metadata:     map[string]any{"fallback": true, "provider": name, "option": option.Number},
	})
	return envelope.Reply{
		Kind:     envelope.KindStatic,
		Title:    option.Title,
		Message:  message,
		ShowMenu: option.ShowsMenu(),
	}
}

func (e *Engine) recordSelection(ctx context.Context, sessionID, selection, title string) {
	e.recorder.Interaction(ctx, logs.Interaction{
		SessionID:   sessionID,
		Type:        logs.TypeMenuSelection,
		UserMessage: selection,
		BotResponse: title,
	})
}

func find(opts []Option, selection string) (Option, bool) {
	for _, o := range opts {
		if strconv.Itoa(o.Number) == selection {
			return o, true
		}
	}
	return Option{}, false
}
