package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imrishuroy/go-support-chatbot/internal/aws/awstest"
)

const table = "settings"

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func putSetting(t *testing.T, db *awstest.DynamoDB, key, value string) {
	t.Helper()
	tbl := table
	_, err := db.PutItem(context.Background(), &dyn.PutItemInput{
		TableName: &tbl,
		Item: map[string]types.AttributeValue{
			"key":   &types.AttributeValueMemberS{Value: key},
			"value": &types.AttributeValueMemberS{Value: value},
		},
	})
	require.NoError(t, err)
}

func newTestStore(t *testing.T) (*Store, *awstest.DynamoDB, *clock) {
	t.Helper()
	db := awstest.NewDynamoDB()
	db.CreateTable(table, "key")
	clk := &clock{now: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)}
	return NewStore(db, table, NewCache(DefaultCacheTTL, clk.Now), zerolog.Nop()), db, clk
}

func TestCoerce(t *testing.T) {
	assert.Equal(t, 500.0, Coerce("500"))
	assert.Equal(t, 1.5, Coerce(" 1.5 "))
	assert.Equal(t, true, Coerce("TRUE"))
	assert.Equal(t, false, Coerce("false"))
	assert.Equal(t, "09:00", Coerce("09:00"))
	assert.Equal(t, "NaN", Coerce("NaN"))
	assert.Equal(t, "hola", Coerce("hola"))
}

func TestSetThenGet_BypassesCache(t *testing.T) {
	s, db, _ := newTestStore(t)
	ctx := context.Background()

	putSetting(t, db, "k", "old")
	assert.Equal(t, "old", s.Get(ctx, "k", nil))

	require.NoError(t, s.Set(ctx, "k", "v"))
	assert.Equal(t, "v", s.Get(ctx, "k", nil))
	assert.Equal(t, 2, db.Calls["Scan"], "write must invalidate the cache")
}

func TestCachedValueSurvivesOutOfBandWrite(t *testing.T) {
	s, db, clk := newTestStore(t)
	ctx := context.Background()

	putSetting(t, db, "k", "first")
	assert.Equal(t, "first", s.Get(ctx, "k", nil))

	putSetting(t, db, "k", "second")
	clk.now = clk.now.Add(4*time.Minute + 59*time.Second)
	assert.Equal(t, "first", s.Get(ctx, "k", nil))

	clk.now = clk.now.Add(time.Second)
	assert.Equal(t, "second", s.Get(ctx, "k", nil))
}

func TestSet_InvalidatesEvenOnError(t *testing.T) {
	s, db, _ := newTestStore(t)
	ctx := context.Background()

	putSetting(t, db, "k", "v")
	_ = s.Get(ctx, "k", nil)

	db.Errs["UpdateItem"] = errors.New("throttled")
	require.Error(t, s.Set(ctx, "k", "x"))
	_, cached := s.Cache().Get()
	assert.False(t, cached)
}

func TestGet_FallsBackToDefaults(t *testing.T) {
	s, db, _ := newTestStore(t)
	ctx := context.Background()

	assert.Equal(t, "fallback", s.Get(ctx, "missing", "fallback"))

	s.Cache().Invalidate()
	db.Errs["Scan"] = errors.New("table unavailable")
	cfg := s.AIConfig(ctx)
	assert.Equal(t, "gemini", cfg.DefaultProvider)
	assert.Equal(t, 500, cfg.MaxTokens)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, Defaults[KeyCompanyName], cfg.Company)
	assert.Equal(t, Defaults[KeyFooterMessage], s.FooterMessage(ctx))
}

func TestTypedGetters(t *testing.T) {
	s, db, _ := newTestStore(t)
	ctx := context.Background()

	putSetting(t, db, KeyDefaultAIProvider, "Claude")
	putSetting(t, db, KeyAIMaxTokens, "800")
	putSetting(t, db, KeySessionTimeout, "15")
	putSetting(t, db, "feature_flag", "True")
	putSetting(t, db, KeyGreetingBusiness, "Buen día")

	assert.Equal(t, "claude", s.AIConfig(ctx).DefaultProvider)
	assert.Equal(t, 800, s.AIConfig(ctx).MaxTokens)
	assert.Equal(t, 15*time.Minute, s.SessionTimeout(ctx))
	assert.True(t, s.GetBool(ctx, "feature_flag", false))
	assert.Equal(t, "Buen día", s.Greetings(ctx).BusinessHours)
	assert.Equal(t, Defaults[KeyGreetingAfterHours], s.Greetings(ctx).AfterHours)
	assert.Equal(t, 90, s.LogRetentionDays(ctx))
}

func TestBusinessHoursSchedule(t *testing.T) {
	s, db, _ := newTestStore(t)
	ctx := context.Background()

	putSetting(t, db, KeyBusinessDays, "Mon, Wed,sat")
	putSetting(t, db, KeyBusinessHoursStart, "08:30")

	bh := s.BusinessHours(ctx)
	assert.True(t, bh.Schedule[time.Monday].Open)
	assert.True(t, bh.Schedule[time.Wednesday].Open)
	assert.True(t, bh.Schedule[time.Saturday].Open)
	assert.False(t, bh.Schedule[time.Sunday].Open)
	assert.False(t, bh.Schedule[time.Tuesday].Open)
	assert.Equal(t, "08:30", bh.Schedule[time.Monday].Start)
	assert.Equal(t, "18:00", bh.Schedule[time.Monday].End)
}

func TestValidate(t *testing.T) {
	s, db, _ := newTestStore(t)
	ctx := context.Background()

	res := s.Validate(ctx)
	assert.True(t, res.Valid, "defaults must validate: %v", res.Errors)

	putSetting(t, db, KeyBusinessHoursStart, "19:00")
	putSetting(t, db, KeyBusinessDays, "Mon,Funday")
	putSetting(t, db, KeyDefaultAIProvider, "openai")
	putSetting(t, db, KeyAIMaxTokens, "-1")
	s.Cache().Invalidate()

	res = s.Validate(ctx)
	assert.False(t, res.Valid)
	assert.Len(t, res.Errors, 4)
}
