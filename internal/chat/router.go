// Package chat answers free-text messages by classifying the intent and
// delegating to the menu, the commerce API, an escalation or the AI gateway.
package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/imrishuroy/go-support-chatbot/internal/ai"
	"github.com/imrishuroy/go-support-chatbot/internal/commerce"
	"github.com/imrishuroy/go-support-chatbot/internal/envelope"
	"github.com/imrishuroy/go-support-chatbot/internal/escalation"
	"github.com/imrishuroy/go-support-chatbot/internal/logs"
	"github.com/imrishuroy/go-support-chatbot/internal/session"
	"github.com/imrishuroy/go-support-chatbot/internal/settings"
)

// Messages and AI contexts used by the router.
const (
	ApologyMessage = "Disculpá, tuvimos un problema procesando tu mensaje. Escribí \"menú\" para ver las opciones disponibles."
	DefaultMessage = "No pude procesar tu consulta en este momento. Escribí \"menú\" para ver las opciones o \"agente\" para hablar con una persona."
	orderContext   = "El cliente consulta por un pedido. Explicá cómo consultar el estado y pedile el número de pedido (12 dígitos o más) si no lo indicó."
	productContext = "El cliente consulta por un producto. Explicá cómo consultar precio y disponibilidad y pedile el código del artículo (por ejemplo MLA123456) si no lo indicó."
	generalContext = "Atención general al cliente de una tienda online."
)

const defaultSessionTTL = 30 * time.Minute

// MenuSource renders the menu.
type MenuSource interface {
	GetMenu(ctx context.Context, sessionID string) envelope.Response
}

// Commerce looks up orders and listings.
type Commerce interface {
	GetOrderDetails(ctx context.Context, orderID string) (*commerce.Order, error)
	GetProductInfo(ctx context.Context, itemID string) (*commerce.Product, error)
}

// Generator produces AI replies.
type Generator interface {
	Generate(ctx context.Context, provider ai.Provider, req ai.Request) (ai.Result, error)
}

// Escalator hands a session over to a human.
type Escalator interface {
	Escalate(ctx context.Context, req escalation.Request) envelope.Escalation
}

// Config is the subset of settings the router reads.
type Config interface {
	AIConfig(ctx context.Context) settings.AIConfig
	SessionTimeout(ctx context.Context) time.Duration
}

// Router routes one message at a time.
type Router struct {
	menu      MenuSource
	commerce  Commerce
	ai        Generator
	escalator Escalator
	config    Config
	sessions  session.Store
	recorder  *logs.Recorder
	nowFunc   func() time.Time
	log       zerolog.Logger
}

// Deps groups the Router collaborators. Commerce and Sessions may be nil.
type Deps struct {
	Menu      MenuSource
	Commerce  Commerce
	AI        Generator
	Escalator Escalator
	Config    Config
	Sessions  session.Store
	Recorder  *logs.Recorder
	Log       zerolog.Logger
}

// NewRouter wires a Router.
func NewRouter(d Deps) *Router {
	return &Router{
		menu:      d.Menu,
		commerce:  d.Commerce,
		ai:        d.AI,
		escalator: d.Escalator,
		config:    d.Config,
		sessions:  d.Sessions,
		recorder:  d.Recorder,
		nowFunc:   time.Now,
		log:       d.Log,
	}
}

type outcome struct {
	payload envelope.Payload
	source  string
}

// Route answers message. It never panics and always returns an envelope.
func (r *Router) Route(ctx context.Context, message, sessionID string) (resp envelope.Response) {
	start := r.nowFunc()
	strategy := Classify(message)

	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("panic: %v", p)
			r.recorder.Error(ctx, "chat.route", err, sessionID, map[string]any{"message": message, "strategy": string(strategy)})
			resp = envelope.New(envelope.Failure{Message: ApologyMessage, Error: "internal error", ShowMenu: true}, start)
		}
	}()

	var out outcome
	switch strategy {
	case StrategyMenu:
		resp = r.menu.GetMenu(ctx, sessionID)
		out = outcome{payload: resp.Payload}
	case StrategyOrder:
		out = r.handleOrder(ctx, message, sessionID)
	case StrategyProduct:
		out = r.handleProduct(ctx, message, sessionID)
	case StrategyEscalation:
		out = outcome{payload: r.escalator.Escalate(ctx, escalation.Request{
			SessionID:   sessionID,
			Reason:      escalation.ReasonChat,
			UserMessage: message,
			At:          start,
		})}
	default:
		out = r.generate(ctx, message, sessionID, generalContext, envelope.KindAIChat)
	}
	if strategy != StrategyMenu {
		resp = envelope.New(out.payload, start)
	}

	reply := replyText(out.payload)
	r.remember(ctx, sessionID, message, reply, strategy)

	meta := map[string]any{"strategy": string(strategy)}
	if out.source != "" {
		meta["source"] = out.source
	}
	r.recorder.Interaction(ctx, logs.Interaction{
		SessionID:    sessionID,
		Type:         logs.TypeChatMessage,
		UserMessage:  message,
		BotResponse:  reply,
		ResponseTime: r.nowFunc().Sub(start),
		Metadata:     meta,
	})
	return resp
}

func (r *Router) handleOrder(ctx context.Context, message, sessionID string) outcome {
	if id, ok := ExtractOrderID(message); ok && r.commerce != nil {
		o, err := r.commerce.GetOrderDetails(ctx, id)
		if err == nil {
			return outcome{
				payload: envelope.Reply{Kind: envelope.KindOrderInfo, Title: "Pedido #" + id, Message: FormatOrder(*o), ShowMenu: true},
				source:  "commerce",
			}
		}
		r.log.Warn().Err(err).Str("order_id", id).Msg("order lookup failed, answering with AI")
	}
	return r.generate(ctx, message, sessionID, orderContext, envelope.KindAIChat)
}

func (r *Router) handleProduct(ctx context.Context, message, sessionID string) outcome {
	if id, ok := ExtractItemID(message); ok && r.commerce != nil {
		p, err := r.commerce.GetProductInfo(ctx, id)
		if err == nil {
			return outcome{
				payload: envelope.Reply{Kind: envelope.KindProductInfo, Title: p.Title, Message: FormatProduct(*p), ShowMenu: true},
				source:  "commerce",
			}
		}
		r.log.Warn().Err(err).Str("item_id", id).Msg("product lookup failed, answering with AI")
	}
	return r.generate(ctx, message, sessionID, productContext, envelope.KindAIChat)
}

// generate logs every attempted AI call as an ai_response entry. The
// chat_message entry written by Route carries no provider.
func (r *Router) generate(ctx context.Context, message, sessionID, aiContext string, kind envelope.Kind) outcome {
	cfg := r.config.AIConfig(ctx)
	provider, err := ai.ParseProvider(cfg.DefaultProvider)
	if err == nil {
		start := r.nowFunc()
		var res ai.Result
		res, err = r.ai.Generate(ctx, provider, ai.Request{
			UserQuery: message,
			Context:   aiContext,
			MaxTokens: cfg.MaxTokens,
			Timeout:   cfg.Timeout,
			Company:   cfg.Company,
		})
		took := r.nowFunc().Sub(start)
		if err == nil {
			r.recorder.AICall(ctx, sessionID, string(provider), message, res.Content, true, took)
			return outcome{
				payload: envelope.Reply{Kind: kind, Message: res.Content, ShowMenu: true, Provider: string(provider)},
				source:  "ai",
			}
		}
		r.recorder.AICall(ctx, sessionID, string(provider), message, err.Error(), false, took)
	}
	r.log.Warn().Err(err).Msg("ai reply unavailable, using default message")
	return outcome{payload: envelope.Reply{Kind: envelope.KindDefault, Message: DefaultMessage, ShowMenu: true}}
}

func (r *Router) remember(ctx context.Context, sessionID, message, reply string, strategy Strategy) {
	if r.sessions == nil || sessionID == "" {
		return
	}
	ttl := r.config.SessionTimeout(ctx)
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	if err := session.Record(ctx, r.sessions, sessionID, message, reply, string(strategy), ttl, r.nowFunc()); err != nil {
		r.recorder.Error(ctx, "chat.update_session", err, sessionID, map[string]any{"message": message})
	}
}

func replyText(p envelope.Payload) string {
	switch v := p.(type) {
	case envelope.Reply:
		return v.Message
	case envelope.Escalation:
		return v.Message
	case envelope.Menu:
		return v.Greeting
	case envelope.Failure:
		return v.Message
	}
	return ""
}
