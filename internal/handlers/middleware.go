package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/imrishuroy/go-support-chatbot/internal/envelope"
	"github.com/imrishuroy/go-support-chatbot/internal/logs"
)

const requestIDKey = "request_id"

// CORS allows the chat widget to call the API from any origin and answers
// preflight requests with 204.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Idempotency-Key")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequestID propagates X-Request-Id, generating one when absent.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

// AccessLog writes one line per request.
func AccessLog(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("request_id", c.GetString(requestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}

// Recovery converts a panic into a JSON error envelope and records it.
func Recovery(recorder *logs.Recorder, log zerolog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		err := fmt.Errorf("panic: %v", rec)
		log.Error().Err(err).Str("request_id", c.GetString(requestIDKey)).Msg("recovered from panic")
		recorder.Error(c.Request.Context(), "http", err, "", map[string]any{
			"path":       c.Request.URL.Path,
			"request_id": c.GetString(requestIDKey),
		})
		writeEnvelope(c, http.StatusInternalServerError, envelope.New(envelope.Failure{
			Message:  InternalErrorMessage,
			Error:    "internal error",
			ShowMenu: true,
		}, time.Now()))
		c.Abort()
	})
}
