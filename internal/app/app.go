// Package app assembles the chatbot components from process configuration
// and AWS clients. Every binary builds its dependencies through New.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/imrishuroy/go-support-chatbot/internal/ai"
	"github.com/imrishuroy/go-support-chatbot/internal/aws"
	"github.com/imrishuroy/go-support-chatbot/internal/chat"
	"github.com/imrishuroy/go-support-chatbot/internal/commerce"
	"github.com/imrishuroy/go-support-chatbot/internal/config"
	"github.com/imrishuroy/go-support-chatbot/internal/escalation"
	"github.com/imrishuroy/go-support-chatbot/internal/handlers"
	"github.com/imrishuroy/go-support-chatbot/internal/idempotency"
	"github.com/imrishuroy/go-support-chatbot/internal/logger"
	"github.com/imrishuroy/go-support-chatbot/internal/logs"
	"github.com/imrishuroy/go-support-chatbot/internal/menu"
	"github.com/imrishuroy/go-support-chatbot/internal/session"
	"github.com/imrishuroy/go-support-chatbot/internal/settings"
	"github.com/imrishuroy/go-support-chatbot/internal/validation"
)

// App holds the wired components.
type App struct {
	Config      *config.Config
	Log         zerolog.Logger
	Validator   *validatorv10.Validate
	Settings    *settings.Store
	Logs        *logs.Sink
	Recorder    *logs.Recorder
	AI          *ai.Gateway
	Commerce    *commerce.Client
	Sessions    session.Store
	Tickets     *escalation.Store
	Escalations *escalation.Service
	Options     *menu.Repository
	Menu        *menu.Engine
	Chat        *chat.Router
	Idempotency *idempotency.Store

	redis redis.UniversalClient
}

// ClientOptions requests the optional AWS clients cfg makes use of.
func ClientOptions(cfg *config.Config) aws.ClientOptions {
	return aws.ClientOptions{
		Queue:   cfg.Queue.Escalations != "",
		Metrics: cfg.Metrics.Namespace != "",
	}
}

// New wires every component. clients must carry a DynamoDB client; SQS and
// CloudWatch are used when the queue URL and metrics namespace are set.
func New(cfg *config.Config, clients *aws.AWSClients, log zerolog.Logger) (*App, error) {
	if clients == nil || clients.DynamoDB == nil {
		return nil, fmt.Errorf("dynamodb client is required")
	}
	a := &App{Config: cfg, Log: log, Validator: validation.New()}

	a.Settings = settings.NewStore(clients.DynamoDB, cfg.Tables.Settings,
		settings.NewCache(settings.DefaultCacheTTL, nil), logger.Component(log, "settings"))

	a.Logs = logs.NewSink(clients.DynamoDB, cfg.Tables.Logs)
	var metrics logs.MetricsRecorder
	if cfg.Metrics.Namespace != "" && clients.CloudWatch != nil {
		metrics = aws.NewMetricsPublisher(clients.CloudWatch, cfg.Metrics.Namespace)
	}
	a.Recorder = logs.NewRecorder(a.Logs, metrics, logger.Component(log, "recorder"))

	a.AI = ai.NewGateway(ai.Config{
		Gemini:     ai.ProviderConfig{APIKey: cfg.Gemini.APIKey, Model: cfg.Gemini.Model, BaseURL: cfg.Gemini.BaseURL},
		Claude:     ai.ProviderConfig{APIKey: cfg.Claude.APIKey, Model: cfg.Claude.Model, BaseURL: cfg.Claude.BaseURL},
		HTTPClient: http.DefaultClient,
	}, logger.Component(log, "ai"))
	for _, p := range ai.Providers {
		if !a.AI.Configured(p) {
			log.Warn().Str("provider", string(p)).Msg("ai provider has no api key")
		}
	}

	a.Commerce = commerce.NewClient(commerce.Config{
		BaseURL:      cfg.Commerce.BaseURL,
		ClientID:     cfg.Commerce.ClientID,
		ClientSecret: cfg.Commerce.ClientSecret,
		Timeout:      cfg.Commerce.Timeout,
	}, commerce.NewDynamoTokenStore(clients.DynamoDB, cfg.Tables.State), a.Recorder, logger.Component(log, "commerce"))

	switch cfg.Sessions.Driver {
	case "redis":
		a.redis = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{cfg.Redis.Addr},
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.Sessions = session.NewRedisStore(a.redis)
	default:
		a.Sessions = session.NewMemoryStore(nil)
	}

	if cfg.Tables.Tickets != "" {
		a.Tickets = escalation.NewStore(clients.DynamoDB, cfg.Tables.Tickets)
	}
	var publisher escalation.Publisher
	if cfg.Queue.Escalations != "" && clients.SQS != nil {
		publisher = aws.NewPublisher(clients.SQS, cfg.Queue.Escalations)
	}
	a.Escalations = escalation.NewService(a.Settings, a.Tickets, publisher, a.Recorder, logger.Component(log, "escalation"))

	a.Options = menu.NewRepository(clients.DynamoDB, cfg.Tables.Menu, a.Validator, logger.Component(log, "menu"))
	a.Menu = menu.NewEngine(a.Options, a.Settings, a.AI, a.Escalations, a.Recorder, logger.Component(log, "menu"))

	a.Chat = chat.NewRouter(chat.Deps{
		Menu:      a.Menu,
		Commerce:  a.Commerce,
		AI:        a.AI,
		Escalator: a.Escalations,
		Config:    a.Settings,
		Sessions:  a.Sessions,
		Recorder:  a.Recorder,
		Log:       logger.Component(log, "chat"),
	})

	if cfg.Tables.Idempotency != "" {
		a.Idempotency = idempotency.NewStore(clients.DynamoDB, cfg.Tables.Idempotency, cfg.Idempotency.TTL)
	}
	return a, nil
}

// HandlerConfig returns the dependencies of the HTTP handlers.
func (a *App) HandlerConfig() handlers.HandlerConfig {
	hc := handlers.HandlerConfig{
		Menu:      a.Menu,
		Chat:      a.Chat,
		Validator: a.Validator,
		Recorder:  a.Recorder,
		Log:       logger.Component(a.Log, "http"),
	}
	if a.Idempotency != nil {
		hc.Idempotency = a.Idempotency
	}
	return hc
}

// Ping checks the session backend.
func (a *App) Ping(ctx context.Context) error {
	if a.redis == nil {
		return nil
	}
	return a.redis.Ping(ctx).Err()
}

// Close releases network clients.
func (a *App) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}

// PurgeLogs deletes log entries older than the log_retention_days setting
// and records the sweep.
func (a *App) PurgeLogs(ctx context.Context) (int, error) {
	days := a.Settings.LogRetentionDays(ctx)
	start := time.Now()
	deleted, err := a.Logs.Purge(ctx, days)
	if err != nil {
		a.Recorder.Error(ctx, "logs.purge", err, logs.SessionSystem, map[string]any{"retentionDays": days})
		return deleted, err
	}
	a.Recorder.Interaction(ctx, logs.Interaction{
		SessionID:    logs.SessionSystem,
		Type:         logs.TypeRetention,
		BotResponse:  fmt.Sprintf("deleted %d entries", deleted),
		ResponseTime: time.Since(start),
		Metadata:     map[string]any{"retentionDays": days, "deleted": deleted},
	})
	return deleted, nil
}
