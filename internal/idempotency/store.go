// Package idempotency deduplicates chat requests that carry an
// Idempotency-Key header, replaying the stored response envelope.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/imrishuroy/go-support-chatbot/internal/aws"
)

// DefaultTTL is how long a completed response stays replayable.
const DefaultTTL = 24 * time.Hour

var (
	// ErrConditionFailed indicates a status transition lost a race.
	ErrConditionFailed = errors.New("conditional check failed")
	// ErrFingerprintMismatch means the key was reused for a different request.
	ErrFingerprintMismatch = errors.New("idempotency key reused with a different request")
)

// Store encapsulates idempotency operations against DynamoDB.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	ttlWindow time.Duration
	nowFunc   func() time.Time
}

// NewStore returns a configured Store. A non-positive ttlWindow uses DefaultTTL.
func NewStore(client aws.DynamoDBAPI, tableName string, ttlWindow time.Duration) *Store {
	if ttlWindow <= 0 {
		ttlWindow = DefaultTTL
	}
	return &Store{
		client:    client,
		tableName: tableName,
		ttlWindow: ttlWindow,
		nowFunc:   time.Now,
	}
}

// Fingerprint hashes the parts that identify a request.
func Fingerprint(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}

// Begin claims key for a new request. It returns (nil, nil) when the caller
// owns the key and must process the request, or the existing record when the
// key was already seen. Expired and FAILED records are replaced.
func (s *Store) Begin(ctx context.Context, key, fingerprint string) (*Record, error) {
	created, err := s.put(ctx, key, fingerprint, true)
	if err != nil {
		return nil, err
	}
	if created {
		return nil, nil
	}

	rec, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.Expired(s.nowFunc()) {
		return nil, s.reclaim(ctx, key, fingerprint)
	}
	if rec.Fingerprint != fingerprint {
		return rec, ErrFingerprintMismatch
	}
	if rec.Status == StatusFailed {
		return nil, s.reclaim(ctx, key, fingerprint)
	}
	return rec, nil
}

func (s *Store) reclaim(ctx context.Context, key, fingerprint string) error {
	_, err := s.put(ctx, key, fingerprint, false)
	return err
}

func (s *Store) put(ctx context.Context, key, fingerprint string, conditional bool) (bool, error) {
	now := s.nowFunc().UTC()
	rec := Record{
		IdempotencyKey: key,
		Fingerprint:    fingerprint,
		Status:         StatusInProgress,
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpiresAt:      now.Add(s.ttlWindow).Unix(),
	}

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return false, fmt.Errorf("marshal record: %w", err)
	}

	input := &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	}
	if conditional {
		input.ConditionExpression = awsString("attribute_not_exists(idempotency_key)")
	}

	if _, err := s.client.PutItem(ctx, input); err != nil {
		var sc smithy.APIError
		if errors.As(err, &sc) && sc.ErrorCode() == "ConditionalCheckFailedException" {
			return false, nil
		}
		return false, fmt.Errorf("put item: %w", err)
	}
	return true, nil
}

// Get retrieves an idempotency record by key. If not found, returns (nil, nil).
func (s *Store) Get(ctx context.Context, key string) (*Record, error) {
	input := &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"idempotency_key": &types.AttributeValueMemberS{Value: key},
		},
		ConsistentRead: awsBool(true),
	}
	out, err := s.client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return &rec, nil
}

// MarkDone stores the response envelope and moves IN_PROGRESS -> DONE.
func (s *Store) MarkDone(ctx context.Context, key, responseBody string, responseStatus int) error {
	return s.transition(ctx, key, "SET #s = :next, response_body = :rb, response_status = :rs, updated_at = :ua",
		map[string]types.AttributeValue{
			":next": &types.AttributeValueMemberS{Value: StatusDone},
			":rb":   &types.AttributeValueMemberS{Value: responseBody},
			":rs":   &types.AttributeValueMemberN{Value: strconv.Itoa(responseStatus)},
		})
}

// MarkFailed moves IN_PROGRESS -> FAILED so a retry can be told apart from a
// request still being processed.
func (s *Store) MarkFailed(ctx context.Context, key, note string) error {
	return s.transition(ctx, key, "SET #s = :next, note = :n, updated_at = :ua",
		map[string]types.AttributeValue{
			":next": &types.AttributeValueMemberS{Value: StatusFailed},
			":n":    &types.AttributeValueMemberS{Value: note},
		})
}

func (s *Store) transition(ctx context.Context, key, update string, values map[string]types.AttributeValue) error {
	values[":expected"] = &types.AttributeValueMemberS{Value: StatusInProgress}
	values[":ua"] = &types.AttributeValueMemberS{Value: s.nowFunc().UTC().Format(time.RFC3339)}

	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"idempotency_key": &types.AttributeValueMemberS{Value: key},
		},
		UpdateExpression:          awsString(update),
		ConditionExpression:       awsString("attribute_exists(idempotency_key) AND #s = :expected"),
		ExpressionAttributeNames:  map[string]string{"#s": "status"},
		ExpressionAttributeValues: values,
	}
	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		var sc smithy.APIError
		if errors.As(err, &sc) && sc.ErrorCode() == "ConditionalCheckFailedException" {
			return ErrConditionFailed
		}
		return fmt.Errorf("update item %s: %w", key, err)
	}
	return nil
}

func awsString(s string) *string { return &s }
func awsBool(b bool) *bool       { return &b }
