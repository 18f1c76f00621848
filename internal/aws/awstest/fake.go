// Package awstest provides in-memory fakes of the narrow AWS client interfaces
// for unit tests. Expression support covers only the forms the stores issue:
// "SET a = :x, #b = :y" updates and conditions built from attribute_exists,
// attribute_not_exists and equality joined by AND.
package awstest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type item = map[string]types.AttributeValue

type table struct {
	pk    string
	order []string
	items map[string]item
}

// DynamoDB is a map-backed fake of aws.DynamoDBAPI.
type DynamoDB struct {
	mu     sync.Mutex
	tables map[string]*table

	// Errs forces an operation ("PutItem", "GetItem", "UpdateItem", "Scan",
	// "TransactWriteItems") to fail.
	Errs  map[string]error
	Calls map[string]int
}

// NewDynamoDB returns an empty fake.
func NewDynamoDB() *DynamoDB {
	return &DynamoDB{
		tables: map[string]*table{},
		Errs:   map[string]error{},
		Calls:  map[string]int{},
	}
}

// CreateTable registers a table with a single string or number partition key.
func (d *DynamoDB) CreateTable(name, pk string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tables[name] = &table{pk: pk, items: map[string]item{}}
}

// Items returns a snapshot of a table in insertion order.
func (d *DynamoDB) Items(name string) []map[string]types.AttributeValue {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.tables[name]
	if !ok {
		return nil
	}
	out := make([]map[string]types.AttributeValue, 0, len(t.items))
	for _, k := range t.order {
		if it, ok := t.items[k]; ok {
			out = append(out, copyItem(it))
		}
	}
	return out
}

// Raw returns the stored item for a key, or nil.
func (d *DynamoDB) Raw(name, key string) map[string]types.AttributeValue {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.tables[name]
	if !ok {
		return nil
	}
	return t.items[key]
}

func (d *DynamoDB) begin(op string) error {
	d.Calls[op]++
	return d.Errs[op]
}

func (d *DynamoDB) table(name *string) (*table, error) {
	if name == nil {
		return nil, errors.New("missing table name")
	}
	t, ok := d.tables[*name]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: name}
	}
	return t, nil
}

func (t *table) keyOf(it item) (string, error) {
	v, ok := it[t.pk]
	if !ok {
		return "", fmt.Errorf("missing key attribute %q", t.pk)
	}
	s, ok := scalar(v)
	if !ok {
		return "", fmt.Errorf("unsupported key type for %q", t.pk)
	}
	return s, nil
}

func (t *table) put(k string, it item) {
	if _, exists := t.items[k]; !exists {
		t.order = append(t.order, k)
	}
	t.items[k] = it
}

func (t *table) remove(k string) {
	delete(t.items, k)
	for i, o := range t.order {
		if o == k {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// PutItem implements aws.DynamoDBAPI.
func (d *DynamoDB) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.begin("PutItem"); err != nil {
		return nil, err
	}
	t, err := d.table(params.TableName)
	if err != nil {
		return nil, err
	}
	k, err := t.keyOf(params.Item)
	if err != nil {
		return nil, err
	}
	if !conditionHolds(params.ConditionExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues, t.items[k]) {
		return nil, &types.ConditionalCheckFailedException{}
	}
	t.put(k, copyItem(params.Item))
	return &dyn.PutItemOutput{}, nil
}

// GetItem implements aws.DynamoDBAPI.
func (d *DynamoDB) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.begin("GetItem"); err != nil {
		return nil, err
	}
	t, err := d.table(params.TableName)
	if err != nil {
		return nil, err
	}
	k, err := t.keyOf(params.Key)
	if err != nil {
		return nil, err
	}
	it, ok := t.items[k]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: copyItem(it)}, nil
}

// UpdateItem implements aws.DynamoDBAPI. Missing items are created, as DynamoDB does.
func (d *DynamoDB) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.begin("UpdateItem"); err != nil {
		return nil, err
	}
	t, err := d.table(params.TableName)
	if err != nil {
		return nil, err
	}
	k, err := t.keyOf(params.Key)
	if err != nil {
		return nil, err
	}
	existing := t.items[k]
	if !conditionHolds(params.ConditionExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues, existing) {
		return nil, &types.ConditionalCheckFailedException{}
	}
	next := copyItem(existing)
	if next == nil {
		next = copyItem(params.Key)
	}
	if err := applySet(params.UpdateExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues, next); err != nil {
		return nil, err
	}
	t.put(k, next)
	return &dyn.UpdateItemOutput{Attributes: copyItem(next)}, nil
}

// Scan implements aws.DynamoDBAPI. Everything is returned in a single page.
func (d *DynamoDB) Scan(ctx context.Context, params *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.begin("Scan"); err != nil {
		return nil, err
	}
	t, err := d.table(params.TableName)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]types.AttributeValue, 0, len(t.items))
	// reverse insertion order so callers cannot rely on scan order
	for i := len(t.order) - 1; i >= 0; i-- {
		out = append(out, copyItem(t.items[t.order[i]]))
	}
	return &dyn.ScanOutput{Items: out, Count: int32(len(out))}, nil
}

// TransactWriteItems implements aws.DynamoDBAPI for Put and Delete actions.
func (d *DynamoDB) TransactWriteItems(ctx context.Context, params *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.begin("TransactWriteItems"); err != nil {
		return nil, err
	}
	if len(params.TransactItems) > 100 {
		return nil, errors.New("too many transact items")
	}
	for _, it := range params.TransactItems {
		switch {
		case it.Put != nil:
			t, err := d.table(it.Put.TableName)
			if err != nil {
				return nil, err
			}
			k, err := t.keyOf(it.Put.Item)
			if err != nil {
				return nil, err
			}
			if !conditionHolds(it.Put.ConditionExpression, it.Put.ExpressionAttributeNames, it.Put.ExpressionAttributeValues, t.items[k]) {
				return nil, &types.TransactionCanceledException{}
			}
		case it.Delete != nil:
			t, err := d.table(it.Delete.TableName)
			if err != nil {
				return nil, err
			}
			k, err := t.keyOf(it.Delete.Key)
			if err != nil {
				return nil, err
			}
			if !conditionHolds(it.Delete.ConditionExpression, it.Delete.ExpressionAttributeNames, it.Delete.ExpressionAttributeValues, t.items[k]) {
				return nil, &types.TransactionCanceledException{}
			}
		default:
			return nil, errors.New("unsupported transact action")
		}
	}
	for _, it := range params.TransactItems {
		if it.Put != nil {
			t, _ := d.table(it.Put.TableName)
			k, _ := t.keyOf(it.Put.Item)
			t.put(k, copyItem(it.Put.Item))
		}
		if it.Delete != nil {
			t, _ := d.table(it.Delete.TableName)
			k, _ := t.keyOf(it.Delete.Key)
			t.remove(k)
		}
	}
	return &dyn.TransactWriteItemsOutput{}, nil
}

func resolveName(tok string, names map[string]string) string {
	tok = strings.TrimSpace(tok)
	if strings.HasPrefix(tok, "#") {
		if n, ok := names[tok]; ok {
			return n
		}
	}
	return tok
}

func applySet(expr *string, names map[string]string, values map[string]types.AttributeValue, it item) error {
	if expr == nil {
		return nil
	}
	e := strings.TrimSpace(*expr)
	if !strings.HasPrefix(e, "SET ") {
		return fmt.Errorf("unsupported update expression %q", e)
	}
	for _, clause := range strings.Split(strings.TrimPrefix(e, "SET "), ",") {
		parts := strings.SplitN(clause, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("unsupported set clause %q", clause)
		}
		name := resolveName(parts[0], names)
		ref := strings.TrimSpace(parts[1])
		v, ok := values[ref]
		if !ok {
			return fmt.Errorf("missing value %s", ref)
		}
		it[name] = v
	}
	return nil
}

func conditionHolds(expr *string, names map[string]string, values map[string]types.AttributeValue, existing item) bool {
	if expr == nil || strings.TrimSpace(*expr) == "" {
		return true
	}
	for _, term := range strings.Split(*expr, " AND ") {
		term = strings.TrimSpace(term)
		switch {
		case strings.HasPrefix(term, "attribute_not_exists(") && strings.HasSuffix(term, ")"):
			name := resolveName(term[len("attribute_not_exists("):len(term)-1], names)
			if _, ok := existing[name]; ok {
				return false
			}
		case strings.HasPrefix(term, "attribute_exists(") && strings.HasSuffix(term, ")"):
			name := resolveName(term[len("attribute_exists("):len(term)-1], names)
			if _, ok := existing[name]; !ok {
				return false
			}
		case strings.Contains(term, "="):
			parts := strings.SplitN(term, "=", 2)
			name := resolveName(parts[0], names)
			want, ok := values[strings.TrimSpace(parts[1])]
			if !ok {
				return false
			}
			got, ok := existing[name]
			if !ok || !equal(got, want) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func scalar(v types.AttributeValue) (string, bool) {
	switch tv := v.(type) {
	case *types.AttributeValueMemberS:
		return tv.Value, true
	case *types.AttributeValueMemberN:
		return tv.Value, true
	case *types.AttributeValueMemberBOOL:
		if tv.Value {
			return "true", true
		}
		return "false", true
	}
	return "", false
}

func equal(a, b types.AttributeValue) bool {
	as, aok := scalar(a)
	bs, bok := scalar(b)
	return aok && bok && as == bs
}

func copyItem(it item) item {
	if it == nil {
		return nil
	}
	out := make(item, len(it))
	for k, v := range it {
		out[k] = v
	}
	return out
}

// SQS records sent messages.
type SQS struct {
	mu       sync.Mutex
	Err      error
	Messages []*sqs.SendMessageInput
}

// SendMessage implements aws.SQSAPI.
func (s *SQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	s.Messages = append(s.Messages, params)
	id := fmt.Sprintf("msg-%d", len(s.Messages))
	return &sqs.SendMessageOutput{MessageId: &id}, nil
}

// CloudWatch records metric batches.
type CloudWatch struct {
	mu     sync.Mutex
	Err    error
	Inputs []*cloudwatch.PutMetricDataInput
}

// PutMetricData implements aws.CloudWatchAPI.
func (c *CloudWatch) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	c.Inputs = append(c.Inputs, params)
	return &cloudwatch.PutMetricDataOutput{}, nil
}
