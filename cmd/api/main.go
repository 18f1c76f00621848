package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/imrishuroy/go-support-chatbot/internal/app"
	"github.com/imrishuroy/go-support-chatbot/internal/aws"
	"github.com/imrishuroy/go-support-chatbot/internal/config"
	"github.com/imrishuroy/go-support-chatbot/internal/handlers"
	"github.com/imrishuroy/go-support-chatbot/internal/logger"

	_ "time/tzdata"
)

func setupRouter(cfg handlers.HandlerConfig, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(handlers.CORS(), handlers.RequestID(), handlers.AccessLog(log), handlers.Recovery(cfg.Recorder, log))

	handlers.RegisterChatRoutes(r, cfg)

	return r
}

func main() {
	boot := logger.New(logger.Config{Service: "chatbot-api"})
	cfg, err := config.Load(os.Getenv("CHATBOT_CONFIG_FILE"))
	if err != nil {
		boot.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, Service: "chatbot-api"})

	clients, err := aws.NewAWSClients(context.Background(), app.ClientOptions(cfg))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init aws clients")
	}

	a, err := app.New(cfg, clients, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to wire application")
	}
	defer a.Close()

	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := setupRouter(a.HandlerConfig(), log)

	// RUN_LOCAL=true serves plain HTTP for development instead of the Lambda runtime.
	if cfg.RunLocal || os.Getenv("RUN_LOCAL") == "true" {
		log.Info().Str("addr", cfg.HTTP.Addr).Msg("running local server")
		if err := r.Run(cfg.HTTP.Addr); err != nil {
			log.Fatal().Err(err).Msg("failed to run local server")
		}
		return
	}

	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
