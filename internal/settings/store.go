// Package settings is the key/value configuration store backed by the
// settings table, read through an expiring in-process cache.
package settings

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"

	"github.com/imrishuroy/go-support-chatbot/internal/aws"
)

// Store reads and writes the settings table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	cache     *Cache
	log       zerolog.Logger
	nowFunc   func() time.Time
}

// NewStore creates a settings Store. The cache is owned by the caller so it
// can be shared or invalidated explicitly.
func NewStore(client aws.DynamoDBAPI, tableName string, cache *Cache, log zerolog.Logger) *Store {
	if cache == nil {
		cache = NewCache(DefaultCacheTTL, nil)
	}
	return &Store{
		client:    client,
		tableName: tableName,
		cache:     cache,
		log:       log,
		nowFunc:   time.Now,
	}
}

// Cache returns the cache backing this store.
func (s *Store) Cache() *Cache { return s.cache }

// List returns every stored row sorted by key, bypassing the cache.
func (s *Store) List(ctx context.Context) ([]Setting, error) {
	rows, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })
	return rows, nil
}

func (s *Store) scan(ctx context.Context) ([]Setting, error) {
	var (
		rows  []Setting
		start map[string]types.AttributeValue
	)
	for {
		out, err := s.client.Scan(ctx, &dyn.ScanInput{
			TableName:         &s.tableName,
			ExclusiveStartKey: start,
		})
		if err != nil {
			return nil, fmt.Errorf("scan settings: %w", err)
		}
		for _, item := range out.Items {
			key := attrString(item["key"])
			if key == "" {
				continue
			}
			rows = append(rows, Setting{
				Key:         key,
				Value:       attrString(item["value"]),
				Description: attrString(item["description"]),
			})
		}
		if len(out.LastEvaluatedKey) == 0 {
			return rows, nil
		}
		start = out.LastEvaluatedKey
	}
}

// values returns all settings, loading the table when the cache is empty or expired.
func (s *Store) values(ctx context.Context) (map[string]string, error) {
	if v, ok := s.cache.Get(); ok {
		return v, nil
	}
	rows, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}
	v := make(map[string]string, len(rows))
	for _, r := range rows {
		v[r.Key] = r.Value
	}
	s.cache.Put(v)
	return v, nil
}

// snapshot never fails: read errors fall back to Defaults.
func (s *Store) snapshot(ctx context.Context) map[string]string {
	v, err := s.values(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("settings unavailable, using defaults")
		return Defaults
	}
	return v
}

func lookup(v map[string]string, key string) (string, bool) {
	if raw, ok := v[key]; ok && raw != "" {
		return raw, true
	}
	raw, ok := Defaults[key]
	return raw, ok
}

// Coerce converts a stored text value: number first, then "true"/"false"
// (case-insensitive), otherwise the string itself.
func Coerce(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	switch strings.ToLower(trimmed) {
	case "true":
		return true
	case "false":
		return false
	}
	return raw
}

// Get returns the coerced value for key, or def when the key is absent.
func (s *Store) Get(ctx context.Context, key string, def any) any {
	raw, ok := s.snapshot(ctx)[key]
	if !ok || raw == "" {
		return def
	}
	return Coerce(raw)
}

// GetString returns the raw value for key, falling back to Defaults and then def.
func (s *Store) GetString(ctx context.Context, key, def string) string {
	if raw, ok := lookup(s.snapshot(ctx), key); ok {
		return raw
	}
	return def
}

// GetInt returns the numeric value for key truncated to an int.
func (s *Store) GetInt(ctx context.Context, key string, def int) int {
	return intOf(s.snapshot(ctx), key, def)
}

func intOf(v map[string]string, key string, def int) int {
	raw, ok := lookup(v, key)
	if !ok {
		return def
	}
	if f, ok := Coerce(raw).(float64); ok {
		return int(f)
	}
	return def
}

// GetBool returns the boolean value for key.
func (s *Store) GetBool(ctx context.Context, key string, def bool) bool {
	raw, ok := lookup(s.snapshot(ctx), key)
	if !ok {
		return def
	}
	if b, ok := Coerce(raw).(bool); ok {
		return b
	}
	return def
}

// Set upserts key and invalidates the cache whether or not the write succeeds.
func (s *Store) Set(ctx context.Context, key, value string) error {
	defer s.cache.Invalidate()

	now := s.nowFunc().UTC()
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"key": &types.AttributeValueMemberS{Value: key},
		},
		UpdateExpression:         awsString("SET #v = :v, updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{"#v": "value"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v":  &types.AttributeValueMemberS{Value: value},
			":ua": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	}
	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		return fmt.Errorf("update setting %s: %w", key, err)
	}
	return nil
}

// BusinessHours returns the weekly schedule.
func (s *Store) BusinessHours(ctx context.Context) BusinessHours {
	v := s.snapshot(ctx)
	get := func(k string) string { raw, _ := lookup(v, k); return raw }
	return NewBusinessHours(
		get(KeyBusinessHoursStart),
		get(KeyBusinessHoursEnd),
		get(KeyBusinessDays),
		get(KeyBusinessHoursDisplay),
		get(KeyTimezone),
	)
}

// Greetings returns the open and closed menu greetings.
func (s *Store) Greetings(ctx context.Context) Greetings {
	v := s.snapshot(ctx)
	bh, _ := lookup(v, KeyGreetingBusiness)
	ah, _ := lookup(v, KeyGreetingAfterHours)
	return Greetings{BusinessHours: bh, AfterHours: ah}
}

// FooterMessage returns the text shown under the menu.
func (s *Store) FooterMessage(ctx context.Context) string {
	return s.GetString(ctx, KeyFooterMessage, "")
}

// AIConfig returns provider, token and timeout defaults and the company name
// used in prompts.
func (s *Store) AIConfig(ctx context.Context) AIConfig {
	v := s.snapshot(ctx)
	provider, _ := lookup(v, KeyDefaultAIProvider)
	company, _ := lookup(v, KeyCompanyName)
	return AIConfig{
		DefaultProvider: strings.ToLower(strings.TrimSpace(provider)),
		MaxTokens:       intOf(v, KeyAIMaxTokens, 500),
		Timeout:         time.Duration(intOf(v, KeyAITimeout, 30)) * time.Second,
		Company:         company,
	}
}

// SessionTimeout is how long an idle session context is kept.
func (s *Store) SessionTimeout(ctx context.Context) time.Duration {
	return time.Duration(s.GetInt(ctx, KeySessionTimeout, 30)) * time.Minute
}

// LogRetentionDays is the age after which log entries are purged.
func (s *Store) LogRetentionDays(ctx context.Context) int {
	return s.GetInt(ctx, KeyLogRetentionDays, 90)
}

// Validate checks the stored configuration.
func (s *Store) Validate(ctx context.Context) ValidationResult {
	var errs []string

	v, err := s.values(ctx)
	if err != nil {
		errs = append(errs, fmt.Sprintf("settings table unavailable: %v", err))
		v = Defaults
	}
	get := func(k string) string { raw, _ := lookup(v, k); return raw }

	start, startErr := ParseClock(get(KeyBusinessHoursStart))
	if startErr != nil {
		errs = append(errs, fmt.Sprintf("%s: %v", KeyBusinessHoursStart, startErr))
	}
	end, endErr := ParseClock(get(KeyBusinessHoursEnd))
	if endErr != nil {
		errs = append(errs, fmt.Sprintf("%s: %v", KeyBusinessHoursEnd, endErr))
	}
	if startErr == nil && endErr == nil && start >= end {
		errs = append(errs, fmt.Sprintf("%s must be earlier than %s", KeyBusinessHoursStart, KeyBusinessHoursEnd))
	}

	days, unknown := ParseBusinessDays(get(KeyBusinessDays))
	if len(unknown) > 0 {
		errs = append(errs, fmt.Sprintf("%s: unknown days %s", KeyBusinessDays, strings.Join(unknown, ", ")))
	}
	if len(days) == 0 {
		errs = append(errs, fmt.Sprintf("%s: no business days configured", KeyBusinessDays))
	}

	if tz := get(KeyTimezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", KeyTimezone, err))
		}
	}

	switch strings.ToLower(get(KeyDefaultAIProvider)) {
	case "gemini", "claude":
	default:
		errs = append(errs, fmt.Sprintf("%s: unsupported provider %q", KeyDefaultAIProvider, get(KeyDefaultAIProvider)))
	}

	for _, k := range []string{KeyAIMaxTokens, KeyAITimeout, KeySessionTimeout, KeyLogRetentionDays} {
		if f, ok := Coerce(get(k)).(float64); !ok || f <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be a positive number", k))
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func attrString(v types.AttributeValue) string {
	switch tv := v.(type) {
	case *types.AttributeValueMemberS:
		return tv.Value
	case *types.AttributeValueMemberN:
		return tv.Value
	case *types.AttributeValueMemberBOOL:
		return strconv.FormatBool(tv.Value)
	}
	return ""
}

func awsString(s string) *string { return &s }
