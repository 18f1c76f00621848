package menu

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imrishuroy/go-support-chatbot/internal/aws/awstest"
)

func put(t *testing.T, db *awstest.DynamoDB, item map[string]types.AttributeValue) {
	t.Helper()
	table := "menu"
	_, err := db.PutItem(context.Background(), &dyn.PutItemInput{TableName: &table, Item: item})
	require.NoError(t, err)
}

func TestRepository_LoadsValidRowsInOrder(t *testing.T) {
	db := awstest.NewDynamoDB()
	db.CreateTable("menu", "number")

	for _, o := range []Option{
		{Number: 3, Title: "Pagos", ResponseType: ResponseStatic, StaticResponse: "Tarjetas"},
		{Number: 1, Title: "Horarios", ResponseType: ResponseStatic, StaticResponse: "9 a 18"},
		{Number: 2, Title: "Envíos", ResponseType: ResponseAI},
		{Number: 4, Title: "Oculta", ResponseType: ResponseStatic, Active: no()},
		{Number: 5, Title: "Rara", ResponseType: "webhook"},
		{Number: 6, Title: "Proveedor", ResponseType: ResponseAI, AIProvider: "openai"},
	} {
		item, err := attributevalue.MarshalMap(o)
		require.NoError(t, err)
		put(t, db, item)
	}
	put(t, db, map[string]types.AttributeValue{
		"number":        &types.AttributeValueMemberN{Value: "7"},
		"response_type": &types.AttributeValueMemberS{Value: "static"},
	})

	r := NewRepository(db, "menu", nil, zerolog.Nop())

	all, err := r.All(context.Background())
	require.NoError(t, err)
	numbers := []int{}
	for _, o := range all {
		numbers = append(numbers, o.Number)
	}
	assert.Equal(t, []int{1, 2, 3, 4}, numbers)
	assert.Equal(t, DefaultMaxTokens, all[1].MaxTokens)

	active, err := r.Active(context.Background())
	require.NoError(t, err)
	assert.Len(t, active, 3)
}
