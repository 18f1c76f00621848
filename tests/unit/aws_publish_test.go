package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	internalaws "github.com/imrishuroy/go-support-chatbot/internal/aws"
	"github.com/imrishuroy/go-support-chatbot/internal/aws/awstest"
)

func TestPublisher_PublishJSON(t *testing.T) {
	q := &awstest.SQS{}
	p := internalaws.NewPublisher(q, "https://sqs.local/escalations")
	if !p.Enabled() {
		t.Fatal("expected publisher with queue to be enabled")
	}

	err := p.PublishJSON(context.Background(), map[string]string{"ticket_id": "t1"}, map[string]string{
		"ticket_id": "t1",
		"empty":     "",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q.Messages) != 1 {
		t.Fatalf("expected one message, got %d", len(q.Messages))
	}
	msg := q.Messages[0]
	if *msg.MessageBody != `{"ticket_id":"t1"}` {
		t.Fatalf("unexpected body %s", *msg.MessageBody)
	}
	if _, ok := msg.MessageAttributes["empty"]; ok {
		t.Fatal("empty attributes must be skipped")
	}
	if *msg.MessageAttributes["ticket_id"].StringValue != "t1" {
		t.Fatalf("unexpected attributes %+v", msg.MessageAttributes)
	}
}

func TestPublisher_DisabledWithoutQueue(t *testing.T) {
	var nilPub *internalaws.Publisher
	if nilPub.Enabled() {
		t.Fatal("nil publisher must be disabled")
	}
	if internalaws.NewPublisher(&awstest.SQS{}, "").Enabled() {
		t.Fatal("publisher without queue URL must be disabled")
	}
}

func TestPublisher_SendError(t *testing.T) {
	q := &awstest.SQS{Err: errors.New("throttled")}
	p := internalaws.NewPublisher(q, "https://sqs.local/escalations")
	if err := p.PublishJSON(context.Background(), "x", nil); err == nil {
		t.Fatal("expected send error")
	}
}

func TestMetricsPublisher_RecordInteraction(t *testing.T) {
	cw := &awstest.CloudWatch{}
	m := internalaws.NewMetricsPublisher(cw, "Chatbot")

	if err := m.RecordInteraction(context.Background(), "menu_selection", "success", 120*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cw.Inputs) != 1 {
		t.Fatalf("expected one PutMetricData call, got %d", len(cw.Inputs))
	}
	in := cw.Inputs[0]
	if *in.Namespace != "Chatbot" || len(in.MetricData) != 2 {
		t.Fatalf("unexpected input %+v", in)
	}
	if *in.MetricData[1].MetricName != "ResponseTime" || *in.MetricData[1].Value != 120 {
		t.Fatalf("unexpected response time datum %+v", in.MetricData[1])
	}

	var nilMetrics *internalaws.MetricsPublisher
	if err := nilMetrics.RecordInteraction(context.Background(), "x", "y", 0); err != nil {
		t.Fatalf("nil publisher should be a no-op, got %v", err)
	}
}
