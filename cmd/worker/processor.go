package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"

	"github.com/imrishuroy/go-support-chatbot/internal/escalation"
	"github.com/imrishuroy/go-support-chatbot/internal/logs"
)

// Processor consumes escalation notifications and marks tickets NOTIFIED.
type Processor struct {
	tickets  *escalation.Store
	recorder *logs.Recorder
	log      zerolog.Logger
}

// NewProcessor creates a worker processor.
func NewProcessor(tickets *escalation.Store, recorder *logs.Recorder, log zerolog.Logger) *Processor {
	return &Processor{tickets: tickets, recorder: recorder, log: log}
}

// Handle processes an SQS batch. Failed messages are reported individually so
// only they are redelivered.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			p.log.Error().Err(err).Str("message_id", rec.MessageId).Msg("worker error")
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: rec.MessageId})
		}
	}
	return resp, nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg escalation.Notification
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	if msg.TicketID == "" {
		return errors.New("message has no ticket_id")
	}

	ticket, err := p.tickets.Get(ctx, msg.TicketID)
	if err != nil {
		return fmt.Errorf("failed to fetch ticket: %w", err)
	}
	if ticket == nil {
		return fmt.Errorf("ticket not found: %s", msg.TicketID)
	}

	switch ticket.Status {
	case escalation.StatusNotified:
		p.log.Info().Str("ticket_id", ticket.TicketID).Msg("duplicate notification")
		return nil
	case escalation.StatusPending, escalation.StatusAfterHours:
	default:
		return fmt.Errorf("unexpected status for ticket=%s: %s", ticket.TicketID, ticket.Status)
	}

	err = p.tickets.UpdateStatus(ctx, ticket.TicketID, ticket.Status, escalation.StatusNotified)
	if errors.Is(err, escalation.ErrStatusMismatch) {
		// a concurrent delivery got there first
		t2, getErr := p.tickets.Get(ctx, ticket.TicketID)
		if getErr == nil && t2 != nil && t2.Status == escalation.StatusNotified {
			p.log.Info().Str("ticket_id", ticket.TicketID).Msg("duplicate notification")
			return nil
		}
		return fmt.Errorf("ticket=%s changed while notifying", ticket.TicketID)
	}
	if err != nil {
		return fmt.Errorf("failed to update status to NOTIFIED: %w", err)
	}

	p.recorder.Interaction(ctx, logs.Interaction{
		SessionID:   ticket.SessionID,
		Type:        logs.TypeEscalationNotified,
		UserMessage: ticket.UserMessage,
		BotResponse: "agent notified",
		Status:      logs.StatusSuccess,
		Metadata: map[string]any{
			"ticketId":      ticket.TicketID,
			"previous":      ticket.Status,
			"reason":        ticket.Reason,
			"businessHours": ticket.BusinessHours,
		},
	})
	p.log.Info().Str("ticket_id", ticket.TicketID).Str("previous", ticket.Status).Msg("ticket notified")
	return nil
}
