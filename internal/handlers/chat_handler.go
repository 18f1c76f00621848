package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/imrishuroy/go-support-chatbot/internal/apperr"
	"github.com/imrishuroy/go-support-chatbot/internal/envelope"
	"github.com/imrishuroy/go-support-chatbot/internal/idempotency"
	"github.com/imrishuroy/go-support-chatbot/internal/logs"
	"github.com/imrishuroy/go-support-chatbot/internal/validation"
)

// User-facing messages written by the dispatcher itself.
const (
	InvalidRequestMessage = "Solicitud inválida. Por favor, revisa los datos enviados."
	InternalErrorMessage  = "Lo siento, ocurrió un error. Por favor, intenta nuevamente o selecciona una opción del menú."
	InProgressMessage     = "Tu solicitud anterior todavía se está procesando."
	KeyReuseMessage       = "La clave de idempotencia ya fue usada para otra solicitud."
)

// MenuService serves the option menu.
type MenuService interface {
	GetMenu(ctx context.Context, sessionID string) envelope.Response
	ProcessSelection(ctx context.Context, selection, sessionID string) envelope.Response
}

// ChatService answers free-text messages.
type ChatService interface {
	Route(ctx context.Context, message, sessionID string) envelope.Response
}

// IdempotencyStore deduplicates requests carrying an Idempotency-Key header.
type IdempotencyStore interface {
	Begin(ctx context.Context, key, fingerprint string) (*idempotency.Record, error)
	MarkDone(ctx context.Context, key, responseBody string, responseStatus int) error
	MarkFailed(ctx context.Context, key, note string) error
}

// HandlerConfig groups dependencies for the chat handler.
type HandlerConfig struct {
	Menu        MenuService
	Chat        ChatService
	Idempotency IdempotencyStore // optional
	Validator   *validatorv10.Validate
	Recorder    *logs.Recorder
	Log         zerolog.Logger
}

type chatHandler struct {
	cfg     HandlerConfig
	nowFunc func() time.Time
}

// RegisterChatRoutes registers the single chat endpoint and the health probe.
func RegisterChatRoutes(r *gin.Engine, cfg HandlerConfig) {
	if cfg.Validator == nil {
		cfg.Validator = validation.New()
	}
	h := &chatHandler{cfg: cfg, nowFunc: time.Now}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/", h.handle)
	r.POST("/", h.handle)
}

func (h *chatHandler) handle(c *gin.Context) {
	ctx := c.Request.Context()

	var req validation.ChatRequest
	if err := validation.BindAndValidate(c, &req, h.cfg.Validator); err != nil {
		verr := apperr.Validation("dispatch", "invalid request")
		h.cfg.Log.Info().Err(err).Interface("fields", validation.FieldErrors(err)).Msg("rejected request")
		writeEnvelope(c, http.StatusBadRequest, envelope.New(envelope.Failure{
			Message:  InvalidRequestMessage,
			Error:    verr.Error(),
			ShowMenu: true,
		}, h.nowFunc()))
		return
	}

	key := c.GetHeader("Idempotency-Key")
	if key == "" || h.cfg.Idempotency == nil {
		writeEnvelope(c, http.StatusOK, h.dispatch(ctx, req))
		return
	}
	h.handleOnce(c, key, req)
}

func (h *chatHandler) handleOnce(c *gin.Context, key string, req validation.ChatRequest) {
	ctx := c.Request.Context()
	store := h.cfg.Idempotency

	rec, err := store.Begin(ctx, key, idempotency.Fingerprint(req.Action, req.UserInput, req.SessionID))
	switch {
	case errors.Is(err, idempotency.ErrFingerprintMismatch):
		writeEnvelope(c, http.StatusConflict, envelope.New(envelope.Failure{
			Message: KeyReuseMessage,
			Error:   "idempotency_key_reused",
		}, h.nowFunc()))
		return
	case err != nil:
		// store unavailable: serve without dedupe
		h.cfg.Recorder.Error(ctx, "idempotency", err, req.SessionID, map[string]any{"idempotency_key": key})
		writeEnvelope(c, http.StatusOK, h.dispatch(ctx, req))
		return
	case rec != nil && rec.Status == idempotency.StatusDone:
		c.Header("Idempotent-Replayed", "true")
		c.Data(rec.ResponseStatus, "application/json; charset=utf-8", []byte(rec.ResponseBody))
		return
	case rec != nil:
		writeEnvelope(c, http.StatusAccepted, envelope.New(envelope.Failure{
			Message: InProgressMessage,
			Error:   "request_in_progress",
		}, h.nowFunc()))
		return
	}

	defer func() {
		if p := recover(); p != nil {
			_ = store.MarkFailed(context.WithoutCancel(ctx), key, "panic")
			panic(p)
		}
	}()

	body, err := json.Marshal(h.dispatch(ctx, req))
	if err != nil {
		_ = store.MarkFailed(ctx, key, err.Error())
		h.cfg.Recorder.Error(ctx, "encode_response", err, req.SessionID, map[string]any{"action": req.Action})
		writeEnvelope(c, http.StatusInternalServerError, envelope.New(envelope.Failure{
			Message:  InternalErrorMessage,
			Error:    "encode response",
			ShowMenu: true,
		}, h.nowFunc()))
		return
	}
	if err := store.MarkDone(ctx, key, string(body), http.StatusOK); err != nil {
		h.cfg.Log.Warn().Err(err).Str("idempotency_key", key).Msg("failed to store response")
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (h *chatHandler) dispatch(ctx context.Context, req validation.ChatRequest) envelope.Response {
	switch req.Action {
	case validation.ActionGetMenu:
		return h.cfg.Menu.GetMenu(ctx, req.SessionID)
	case validation.ActionProcessSelection:
		return h.cfg.Menu.ProcessSelection(ctx, req.UserInput, req.SessionID)
	case validation.ActionSendMessage:
		return h.cfg.Chat.Route(ctx, req.UserInput, req.SessionID)
	}
	// unreachable once validated
	return envelope.New(envelope.Failure{Message: InvalidRequestMessage, Error: "unknown action", ShowMenu: true}, h.nowFunc())
}

func writeEnvelope(c *gin.Context, status int, resp envelope.Response) {
	body, err := json.Marshal(resp)
	if err != nil {
		c.Data(http.StatusInternalServerError, "application/json; charset=utf-8",
			[]byte(`{"success":false,"type":"error","error":"encode response"}`))
		return
	}
	c.Data(status, "application/json; charset=utf-8", body)
}
