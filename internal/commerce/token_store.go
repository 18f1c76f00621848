package commerce

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/go-support-chatbot/internal/aws"
)

// TokenStateKey is the row of the system state table holding the token.
const TokenStateKey = "commerce_oauth_token"

// ErrTokenConflict means another writer replaced the token first.
var ErrTokenConflict = errors.New("token was updated concurrently")

// TokenStore persists the OAuth token.
type TokenStore interface {
	Load(ctx context.Context) (*Token, error)
	// Swap replaces the token only if the stored refresh token still equals prevRefresh.
	Swap(ctx context.Context, prevRefresh string, next Token) error
}

// DynamoTokenStore keeps the token as one item of the system state table.
type DynamoTokenStore struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewDynamoTokenStore returns a store over tableName, keyed by "state_key".
func NewDynamoTokenStore(client aws.DynamoDBAPI, tableName string) *DynamoTokenStore {
	return &DynamoTokenStore{client: client, tableName: tableName, nowFunc: time.Now}
}

func (s *DynamoTokenStore) key() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"state_key": &types.AttributeValueMemberS{Value: TokenStateKey},
	}
}

// Load returns the stored token, or nil if none was ever saved.
func (s *DynamoTokenStore) Load(ctx context.Context) (*Token, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName:      &s.tableName,
		Key:            s.key(),
		ConsistentRead: awsBool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var t Token
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, fmt.Errorf("unmarshal token: %w", err)
	}
	return &t, nil
}

// Swap writes access token, expiry and refresh token in a single conditional update.
func (s *DynamoTokenStore) Swap(ctx context.Context, prevRefresh string, next Token) error {
	values := map[string]types.AttributeValue{
		":a":  &types.AttributeValueMemberS{Value: next.AccessToken},
		":r":  &types.AttributeValueMemberS{Value: next.RefreshToken},
		":e":  &types.AttributeValueMemberS{Value: next.ExpiresAt.UTC().Format(time.RFC3339Nano)},
		":ua": &types.AttributeValueMemberS{Value: s.nowFunc().UTC().Format(time.RFC3339)},
	}
	cond := "attribute_not_exists(state_key)"
	if prevRefresh != "" {
		cond = "refresh_token = :prev"
		values[":prev"] = &types.AttributeValueMemberS{Value: prevRefresh}
	}

	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:                 &s.tableName,
		Key:                       s.key(),
		UpdateExpression:          awsString("SET access_token = :a, refresh_token = :r, expires_at = :e, updated_at = :ua"),
		ConditionExpression:       &cond,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrTokenConflict
		}
		return fmt.Errorf("update token: %w", err)
	}
	return nil
}

func awsString(s string) *string { return &s }
func awsBool(b bool) *bool       { return &b }
