package logs

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Appender persists a log entry.
type Appender interface {
	Append(ctx context.Context, e Entry) error
}

// MetricsRecorder receives one datapoint per recorded interaction.
type MetricsRecorder interface {
	RecordInteraction(ctx context.Context, interactionType, status string, responseTime time.Duration) error
}

// Recorder is the write facade used by the engines. Recording never fails
// the caller: sink and metrics errors are reported to the process logger only.
type Recorder struct {
	sink    Appender
	metrics MetricsRecorder
	log     zerolog.Logger
}

// NewRecorder returns a Recorder. metrics may be nil.
func NewRecorder(sink Appender, metrics MetricsRecorder, log zerolog.Logger) *Recorder {
	return &Recorder{sink: sink, metrics: metrics, log: log}
}

// Interaction describes one terminal action.
type Interaction struct {
	SessionID    string
	Type         string
	UserMessage  string
	BotResponse  string
	Provider     string
	Status       string
	ResponseTime time.Duration
	Metadata     map[string]any
}

// Interaction records in.
func (r *Recorder) Interaction(ctx context.Context, in Interaction) {
	if r == nil {
		return
	}
	if in.Status == "" {
		in.Status = StatusSuccess
	}
	entry := Entry{
		SessionID:       in.SessionID,
		InteractionType: in.Type,
		UserMessage:     in.UserMessage,
		BotResponse:     in.BotResponse,
		Provider:        in.Provider,
		ResponseTimeMs:  float64(in.ResponseTime.Milliseconds()),
		Status:          in.Status,
		Metadata:        in.Metadata,
	}
	if err := r.sink.Append(ctx, entry); err != nil {
		r.log.Warn().Err(err).Str("interaction_type", in.Type).Msg("failed to record interaction")
	}
	if r.metrics != nil {
		if err := r.metrics.RecordInteraction(ctx, in.Type, in.Status, in.ResponseTime); err != nil {
			r.log.Debug().Err(err).Msg("failed to publish interaction metric")
		}
	}
}

// Error records a caught error with the operation name and sanitized context.
func (r *Recorder) Error(ctx context.Context, op string, err error, sessionID string, details map[string]any) {
	if r == nil || err == nil {
		return
	}
	meta := map[string]any{"operation": op}
	for k, v := range details {
		meta[k] = v
	}
	if sessionID == "" {
		sessionID = SessionSystem
	}
	r.log.Error().Err(err).Str("operation", op).Str("session_id", sessionID).Msg("operation failed")
	r.Interaction(ctx, Interaction{
		SessionID:   sessionID,
		Type:        TypeError,
		UserMessage: op,
		BotResponse: err.Error(),
		Status:      StatusError,
		Metadata:    meta,
	})
}

// Escalation records a hand-off request. status is StatusPending or StatusAfterHours.
func (r *Recorder) Escalation(ctx context.Context, sessionID, userMessage, message, status string, details map[string]any) {
	r.Interaction(ctx, Interaction{
		SessionID:   sessionID,
		Type:        TypeEscalation,
		UserMessage: userMessage,
		BotResponse: message,
		Status:      status,
		Metadata:    details,
	})
}

// AICall records the outcome of one AI generation.
func (r *Recorder) AICall(ctx context.Context, sessionID, provider, query, response string, success bool, took time.Duration) {
	status := StatusSuccess
	if !success {
		status = StatusError
	}
	r.Interaction(ctx, Interaction{
		SessionID:    sessionID,
		Type:         TypeAIResponse,
		UserMessage:  query,
		BotResponse:  response,
		Provider:     provider,
		Status:       status,
		ResponseTime: took,
	})
}

// APICall records one call to the e-commerce API.
func (r *Recorder) APICall(ctx context.Context, sessionID, endpoint string, took time.Duration, err error) {
	in := Interaction{
		SessionID:    sessionID,
		Type:         TypeAPICall,
		UserMessage:  endpoint,
		Status:       StatusSuccess,
		ResponseTime: took,
	}
	if err != nil {
		in.Status = StatusError
		in.BotResponse = err.Error()
	}
	r.Interaction(ctx, in)
}
