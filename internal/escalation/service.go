// Package escalation hands a conversation over to a human agent: it picks
// in-hours or after-hours messaging, records the request, opens a ticket and
// queues a notification.
package escalation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/imrishuroy/go-support-chatbot/internal/envelope"
	"github.com/imrishuroy/go-support-chatbot/internal/logs"
	"github.com/imrishuroy/go-support-chatbot/internal/settings"
)

// Default messages used when the caller supplies none.
const (
	DefaultMessage           = "Te estamos derivando con un agente de atención al cliente. En breve se comunicarán con vos."
	DefaultAfterHoursMessage = "En este momento estamos fuera de nuestro horario de atención (%s). Un agente se comunicará con vos apenas volvamos a estar disponibles."
)

// HoursSource supplies the weekly schedule.
type HoursSource interface {
	BusinessHours(ctx context.Context) settings.BusinessHours
}

// Publisher queues ticket notifications.
type Publisher interface {
	Enabled() bool
	PublishJSON(ctx context.Context, payload any, attributes map[string]string) error
}

// Request describes one hand-off.
type Request struct {
	SessionID   string
	Reason      string
	UserMessage string
	// Message and AfterHoursMessage override the defaults when non-empty.
	Message           string
	AfterHoursMessage string
	Details           map[string]any
	// At is the instant the business-hours check uses. Zero means now.
	At time.Time
}

// Service performs escalations. tickets and publisher may be nil.
type Service struct {
	hours     HoursSource
	tickets   *Store
	publisher Publisher
	recorder  *logs.Recorder
	nowFunc   func() time.Time
	log       zerolog.Logger
}

// NewService wires a Service.
func NewService(hours HoursSource, tickets *Store, publisher Publisher, recorder *logs.Recorder, log zerolog.Logger) *Service {
	return &Service{
		hours:     hours,
		tickets:   tickets,
		publisher: publisher,
		recorder:  recorder,
		nowFunc:   time.Now,
		log:       log,
	}
}

// Escalate records the hand-off and returns the message to show. Ticket and
// queue failures are recorded but never fail the escalation.
func (s *Service) Escalate(ctx context.Context, req Request) envelope.Escalation {
	now := req.At
	if now.IsZero() {
		now = s.nowFunc()
	}
	bh := s.hours.BusinessHours(ctx)
	open := bh.IsOpen(now)

	message := strings.TrimSpace(req.Message)
	status, ticketStatus := logs.StatusPending, StatusPending
	if open {
		if message == "" {
			message = DefaultMessage
		}
	} else {
		message = strings.TrimSpace(req.AfterHoursMessage)
		if message == "" {
			message = fmt.Sprintf(DefaultAfterHoursMessage, bh.Display)
		}
		status, ticketStatus = logs.StatusAfterHours, StatusAfterHours
	}

	ticketID := uuid.NewString()
	details := map[string]any{"reason": req.Reason, "ticketId": ticketID, "businessHours": open}
	for k, v := range req.Details {
		details[k] = v
	}
	s.recorder.Escalation(ctx, req.SessionID, req.UserMessage, message, status, details)

	out := envelope.Escalation{Message: message, BusinessHours: open, ShowMenu: false}
	if s.tickets == nil {
		return out
	}

	err := s.tickets.Create(ctx, Ticket{
		TicketID:      ticketID,
		SessionID:     req.SessionID,
		Reason:        req.Reason,
		UserMessage:   req.UserMessage,
		Status:        ticketStatus,
		BusinessHours: open,
	})
	if err != nil {
		s.recorder.Error(ctx, "escalation.create_ticket", err, req.SessionID, map[string]any{"ticketId": ticketID})
		return out
	}
	out.TicketID = ticketID

	if s.publisher != nil && s.publisher.Enabled() {
		n := Notification{TicketID: ticketID, SessionID: req.SessionID, Status: ticketStatus}
		attrs := map[string]string{"ticket_id": ticketID, "status": ticketStatus}
		if err := s.publisher.PublishJSON(ctx, n, attrs); err != nil {
			s.recorder.Error(ctx, "escalation.publish", err, req.SessionID, map[string]any{"ticketId": ticketID})
		}
	}
	s.log.Info().Str("ticket_id", ticketID).Str("status", ticketStatus).Msg("escalation ticket opened")
	return out
}
