package aws

import (
	"context"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// AWSClients holds the service clients the chatbot talks to. SQS and
// CloudWatch are nil unless requested in ClientOptions.
type AWSClients struct {
	DynamoDB   DynamoDBAPI
	SQS        SQSAPI
	CloudWatch CloudWatchAPI
}

// ClientOptions selects the optional clients.
type ClientOptions struct {
	// Queue builds the SQS client used for escalation notifications.
	Queue bool
	// Metrics builds the CloudWatch client used for interaction metrics.
	Metrics bool
}

// NewAWSClients loads the shared AWS config and builds the clients.
func NewAWSClients(ctx context.Context, opts ClientOptions) (*AWSClients, error) {
	cfg, err := LoadAWSConfig(ctx)
	if err != nil {
		return nil, err
	}
	return ClientsFromConfig(cfg, opts), nil
}

// ClientsFromConfig builds the clients from an already loaded config.
func ClientsFromConfig(cfg sdkaws.Config, opts ClientOptions) *AWSClients {
	c := &AWSClients{DynamoDB: dynamodb.NewFromConfig(cfg)}
	if opts.Queue {
		c.SQS = sqs.NewFromConfig(cfg)
	}
	if opts.Metrics {
		c.CloudWatch = cloudwatch.NewFromConfig(cfg)
	}
	return c
}
