package menu

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/imrishuroy/go-support-chatbot/internal/aws"
)

// Repository reads menu options from DynamoDB.
type Repository struct {
	client    aws.DynamoDBAPI
	tableName string
	validate  *validatorv10.Validate
	log       zerolog.Logger
}

// NewRepository returns a Repository over tableName.
func NewRepository(client aws.DynamoDBAPI, tableName string, v *validatorv10.Validate, log zerolog.Logger) *Repository {
	if v == nil {
		v = validatorv10.New()
	}
	return &Repository{client: client, tableName: tableName, validate: v, log: log}
}

// All returns every well-formed option ordered by number. Rows without a
// number or title are skipped silently; rows failing validation are skipped
// with a warning.
func (r *Repository) All(ctx context.Context) ([]Option, error) {
	var (
		items []map[string]types.AttributeValue
		start map[string]types.AttributeValue
	)
	for {
		out, err := r.client.Scan(ctx, &dyn.ScanInput{TableName: &r.tableName, ExclusiveStartKey: start})
		if err != nil {
			return nil, fmt.Errorf("scan menu: %w", err)
		}
		items = append(items, out.Items...)
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		start = out.LastEvaluatedKey
	}

	options := make([]Option, 0, len(items))
	for _, it := range items {
		if _, ok := it["number"]; !ok {
			continue
		}
		if t, ok := it["title"].(*types.AttributeValueMemberS); !ok || t.Value == "" {
			continue
		}
		var o Option
		if err := attributevalue.UnmarshalMap(it, &o); err != nil {
			r.log.Warn().Err(err).Msg("skipping unreadable menu row")
			continue
		}
		if err := r.validate.Struct(o); err != nil {
			r.log.Warn().Err(err).Int("number", o.Number).Msg("skipping invalid menu row")
			continue
		}
		if o.MaxTokens == 0 {
			o.MaxTokens = DefaultMaxTokens
		}
		options = append(options, o)
	}
	sort.SliceStable(options, func(i, j int) bool { return options[i].Number < options[j].Number })
	return options, nil
}

// Active returns the options currently shown in the menu.
func (r *Repository) Active(ctx context.Context) ([]Option, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	active := all[:0]
	for _, o := range all {
		if o.IsActive() {
			active = append(active, o)
		}
	}
	return active, nil
}
