package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/imrishuroy/go-support-chatbot/internal/app"
	"github.com/imrishuroy/go-support-chatbot/internal/aws"
	"github.com/imrishuroy/go-support-chatbot/internal/config"
	"github.com/imrishuroy/go-support-chatbot/internal/logger"
)

// PurgeResult is returned to the scheduler.
type PurgeResult struct {
	Deleted int `json:"deleted"`
}

func main() {
	boot := logger.New(logger.Config{Service: "chatbot-retention"})
	cfg, err := config.Load(os.Getenv("CHATBOT_CONFIG_FILE"))
	if err != nil {
		boot.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, Service: "chatbot-retention"})

	clients, err := aws.NewAWSClients(context.Background(), app.ClientOptions(cfg))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init aws clients")
	}
	a, err := app.New(cfg, clients, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to wire application")
	}

	handler := func(ctx context.Context, ev events.CloudWatchEvent) (PurgeResult, error) {
		deleted, err := a.PurgeLogs(ctx)
		log.Info().Str("event_id", ev.ID).Int("deleted", deleted).Err(err).Msg("retention sweep")
		return PurgeResult{Deleted: deleted}, err
	}

	if cfg.RunLocal || os.Getenv("RUN_LOCAL") == "true" {
		if _, err := handler(context.Background(), events.CloudWatchEvent{ID: "local"}); err != nil {
			log.Fatal().Err(err).Msg("local sweep failed")
		}
		return
	}

	lambda.Start(handler)
}
