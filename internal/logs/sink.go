// Package logs is the append-only interaction log: storage, filtering,
// analytics and retention.
package logs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/oklog/ulid/v2"

	"github.com/imrishuroy/go-support-chatbot/internal/aws"
	"github.com/imrishuroy/go-support-chatbot/internal/sanitize"
)

// maxTransactItems is the DynamoDB limit on actions per transaction.
const maxTransactItems = 100

// Sink stores log entries in DynamoDB keyed by ULID so lexical key order is
// insertion order.
type Sink struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time

	mu      sync.Mutex
	entropy io.Reader
}

// NewSink creates a Sink over tableName.
func NewSink(client aws.DynamoDBAPI, tableName string) *Sink {
	return &Sink{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
		entropy:   ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

func (s *Sink) newID(t time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}

// Append sanitizes and writes e. Missing id, timestamp, session and status are filled in.
func (s *Sink) Append(ctx context.Context, e Entry) error {
	now := s.nowFunc()
	if e.Timestamp == "" {
		e.Timestamp = now.UTC().Format(time.RFC3339Nano)
	}
	if e.ID == "" {
		e.ID = s.newID(now)
	}
	if e.SessionID == "" {
		e.SessionID = SessionAnonymous
	}
	if e.Status == "" {
		e.Status = StatusSuccess
	}

	meta := ""
	if len(e.Metadata) > 0 {
		b, err := json.Marshal(sanitize.Metadata(e.Metadata))
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		meta = string(b)
	}

	item, err := attributevalue.MarshalMap(row{
		LogID:           e.ID,
		Timestamp:       e.Timestamp,
		SessionID:       e.SessionID,
		InteractionType: e.InteractionType,
		UserMessage:     sanitize.Text(e.UserMessage),
		BotResponse:     sanitize.Text(e.BotResponse),
		Provider:        e.Provider,
		ResponseTimeMs:  e.ResponseTimeMs,
		Status:          e.Status,
		Metadata:        meta,
	})
	if err != nil {
		return fmt.Errorf("marshal log entry: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(log_id)"),
	})
	if err != nil {
		return fmt.Errorf("put log entry: %w", err)
	}
	return nil
}

// All returns every entry in insertion order.
func (s *Sink) All(ctx context.Context) ([]Entry, error) {
	var (
		rows  []row
		start map[string]types.AttributeValue
	)
	for {
		out, err := s.client.Scan(ctx, &dyn.ScanInput{
			TableName:         &s.tableName,
			ExclusiveStartKey: start,
		})
		if err != nil {
			return nil, fmt.Errorf("scan logs: %w", err)
		}
		var page []row
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal logs: %w", err)
		}
		rows = append(rows, page...)
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		start = out.LastEvaluatedKey
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].LogID < rows[j].LogID })

	entries := make([]Entry, 0, len(rows))
	for _, r := range rows {
		e := Entry{
			ID:              r.LogID,
			Timestamp:       r.Timestamp,
			SessionID:       r.SessionID,
			InteractionType: r.InteractionType,
			UserMessage:     r.UserMessage,
			BotResponse:     r.BotResponse,
			Provider:        r.Provider,
			ResponseTimeMs:  r.ResponseTimeMs,
			Status:          r.Status,
		}
		if r.Metadata != "" {
			_ = json.Unmarshal([]byte(r.Metadata), &e.Metadata)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Query returns the entries matching every filter, in insertion order.
func (s *Sink) Query(ctx context.Context, f Filters) ([]Entry, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(all, f), nil
}

// Filter applies f in order: date range (inclusive), interaction type,
// session id, status, then limit.
func Filter(entries []Entry, f Filters) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if f.StartDate != nil || f.EndDate != nil {
			t, ok := e.Time()
			if !ok {
				continue
			}
			if f.StartDate != nil && t.Before(*f.StartDate) {
				continue
			}
			if f.EndDate != nil && t.After(*f.EndDate) {
				continue
			}
		}
		if f.InteractionType != "" && e.InteractionType != f.InteractionType {
			continue
		}
		if f.SessionID != "" && e.SessionID != f.SessionID {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		out = append(out, e)
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

// Summarize computes Analytics over the entries between start and end.
// Hours and days are bucketed in loc.
func (s *Sink) Summarize(ctx context.Context, start, end *time.Time, loc *time.Location) (Analytics, error) {
	entries, err := s.Query(ctx, Filters{StartDate: start, EndDate: end})
	if err != nil {
		return Analytics{}, err
	}
	return Summarize(entries, loc), nil
}

// Purge deletes entries older than retentionDays and returns how many were
// removed. Deletes are issued as transactions of up to 100 rows, so a failed
// sweep may leave earlier chunks deleted. Running it again finishes the job.
func (s *Sink) Purge(ctx context.Context, retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, fmt.Errorf("retention days must be positive, got %d", retentionDays)
	}
	all, err := s.All(ctx)
	if err != nil {
		return 0, err
	}
	cutoff := s.nowFunc().Add(-time.Duration(retentionDays) * 24 * time.Hour)

	var stale []string
	for _, e := range all {
		if t, ok := e.Time(); ok && !t.Before(cutoff) {
			continue
		}
		stale = append(stale, e.ID)
	}

	deleted := 0
	for i := 0; i < len(stale); i += maxTransactItems {
		end := i + maxTransactItems
		if end > len(stale) {
			end = len(stale)
		}
		items := make([]types.TransactWriteItem, 0, end-i)
		for _, id := range stale[i:end] {
			items = append(items, types.TransactWriteItem{
				Delete: &types.Delete{
					TableName: &s.tableName,
					Key: map[string]types.AttributeValue{
						"log_id": &types.AttributeValueMemberS{Value: id},
					},
				},
			})
		}
		if _, err := s.client.TransactWriteItems(ctx, &dyn.TransactWriteItemsInput{TransactItems: items}); err != nil {
			return deleted, fmt.Errorf("delete stale logs: %w", err)
		}
		deleted += len(items)
	}
	return deleted, nil
}

func awsString(s string) *string { return &s }
