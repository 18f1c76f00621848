package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// MetricsPublisher emits per-interaction datapoints to CloudWatch.
type MetricsPublisher struct {
	client    CloudWatchAPI
	namespace string
	nowFunc   func() time.Time
}

// NewMetricsPublisher returns a publisher writing under namespace.
func NewMetricsPublisher(client CloudWatchAPI, namespace string) *MetricsPublisher {
	return &MetricsPublisher{
		client:    client,
		namespace: namespace,
		nowFunc:   time.Now,
	}
}

// RecordInteraction publishes an Interactions count and a ResponseTime sample
// dimensioned by interaction type and status.
func (m *MetricsPublisher) RecordInteraction(ctx context.Context, interactionType, status string, responseTime time.Duration) error {
	if m == nil || m.client == nil {
		return nil
	}
	now := m.nowFunc()
	dims := []cwtypes.Dimension{
		{Name: awsString("InteractionType"), Value: awsString(interactionType)},
		{Name: awsString("Status"), Value: awsString(status)},
	}
	one := 1.0
	ms := float64(responseTime.Milliseconds())

	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: &m.namespace,
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: awsString("Interactions"),
				Dimensions: dims,
				Timestamp:  &now,
				Unit:       cwtypes.StandardUnitCount,
				Value:      &one,
			},
			{
				MetricName: awsString("ResponseTime"),
				Dimensions: dims,
				Timestamp:  &now,
				Unit:       cwtypes.StandardUnitMilliseconds,
				Value:      &ms,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}
