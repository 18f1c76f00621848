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

func main() {
	boot := logger.New(logger.Config{Service: "chatbot-worker"})
	cfg, err := config.Load(os.Getenv("CHATBOT_CONFIG_FILE"))
	if err != nil {
		boot.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, Service: "chatbot-worker"})

	clients, err := aws.NewAWSClients(context.Background(), app.ClientOptions(cfg))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init aws clients")
	}
	a, err := app.New(cfg, clients, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to wire application")
	}
	if a.Tickets == nil {
		log.Fatal().Msg("tables.tickets is required by the worker")
	}
	p := NewProcessor(a.Tickets, a.Recorder, logger.Component(log, "worker"))

	// If RUN_LOCAL=true, process a single message from LOCAL_SQS_BODY.
	if cfg.RunLocal || os.Getenv("RUN_LOCAL") == "true" {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			log.Fatal().Msg("LOCAL_SQS_BODY is required for a local run")
		}
		resp, _ := p.Handle(context.Background(), events.SQSEvent{
			Records: []events.SQSMessage{{MessageId: "local-1", Body: body}},
		})
		if len(resp.BatchItemFailures) > 0 {
			log.Fatal().Msg("local message failed")
		}
		return
	}

	lambda.Start(p.Handle)
}
