package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imrishuroy/go-support-chatbot/internal/app"
	"github.com/imrishuroy/go-support-chatbot/internal/aws"
	"github.com/imrishuroy/go-support-chatbot/internal/aws/awstest"
	"github.com/imrishuroy/go-support-chatbot/internal/config"
	"github.com/imrishuroy/go-support-chatbot/internal/logs"
	"github.com/imrishuroy/go-support-chatbot/internal/menu"
	"github.com/imrishuroy/go-support-chatbot/internal/settings"

	_ "time/tzdata"
)

func fakeOpener(t *testing.T) Opener {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)

	db := awstest.NewDynamoDB()
	db.CreateTable(cfg.Tables.Settings, "key")
	db.CreateTable(cfg.Tables.Menu, "number")
	db.CreateTable(cfg.Tables.Logs, "log_id")
	db.CreateTable(cfg.Tables.State, "state_key")
	db.CreateTable(cfg.Tables.Tickets, "ticket_id")
	db.CreateTable(cfg.Tables.Idempotency, "idempotency_key")

	for _, o := range []menu.Option{
		{Number: 1, Title: "Horarios", ResponseType: menu.ResponseStatic, StaticResponse: "9 a 18"},
		{Number: 2, Title: "Oculta", ResponseType: menu.ResponseStatic, Active: new(bool)},
	} {
		item, err := attributevalue.MarshalMap(o)
		require.NoError(t, err)
		_, err = db.PutItem(context.Background(), &dyn.PutItemInput{TableName: &cfg.Tables.Menu, Item: item})
		require.NoError(t, err)
	}

	// one App shared across runs so writes are visible to later commands
	a, err := app.New(cfg, &aws.AWSClients{DynamoDB: db}, zerolog.Nop())
	require.NoError(t, err)
	return func(ctx context.Context, configPath string) (*app.App, error) { return a, nil }
}

func run(t *testing.T, open Opener, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(open)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSettings_SetThenGet(t *testing.T) {
	open := fakeOpener(t)

	_, err := run(t, open, "settings", "set", "company_name", "Tienda Sol")
	require.NoError(t, err)

	out, err := run(t, open, "settings", "get", "company_name")
	require.NoError(t, err)
	assert.Equal(t, "Tienda Sol\n", out)

	out, err = run(t, open, "settings", "get")
	require.NoError(t, err)
	var rows []settings.Setting
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "company_name", rows[0].Key)
}

func TestSettings_Validate(t *testing.T) {
	open := fakeOpener(t)

	out, err := run(t, open, "settings", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, `"valid": true`)

	_, err = run(t, open, "settings", "set", "business_hours_start", "19:00")
	require.NoError(t, err)

	out, err = run(t, open, "settings", "validate")
	require.Error(t, err)
	assert.Contains(t, out, `"valid": false`)
}

func TestMenu_List(t *testing.T) {
	open := fakeOpener(t)

	out, err := run(t, open, "menu", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Horarios")
	assert.NotContains(t, out, "Oculta")

	out, err = run(t, open, "menu", "list", "--all", "--json")
	require.NoError(t, err)
	var opts []menu.Option
	require.NoError(t, json.Unmarshal([]byte(out), &opts))
	assert.Len(t, opts, 2)
}

func TestLogs_QueryAnalyticsPurge(t *testing.T) {
	open := fakeOpener(t)
	a, err := open(context.Background(), "")
	require.NoError(t, err)
	a.Recorder.Interaction(context.Background(), logs.Interaction{SessionID: "s1", Type: logs.TypeMenuDisplay})

	out, err := run(t, open, "logs", "query", "--session", "s1")
	require.NoError(t, err)
	var entries []logs.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, logs.TypeMenuDisplay, entries[0].InteractionType)

	out, err = run(t, open, "logs", "analytics", "--tz", "UTC")
	require.NoError(t, err)
	var summary logs.Analytics
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 1, summary.TotalInteractions)
	assert.Equal(t, 100, summary.SuccessRate)

	out, err = run(t, open, "logs", "purge", "--days", "30")
	require.NoError(t, err)
	assert.Equal(t, "deleted 0 entries\n", out)
}

func TestLogs_RejectsBadDate(t *testing.T) {
	_, err := run(t, fakeOpener(t), "logs", "query", "--start", "ayer")
	assert.Error(t, err)
}

func TestCommerce_ProductAndPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/items/MLA42" {
			_, _ = io.WriteString(w, `{"id":"MLA42","title":"Mate","price":1500,"currency_id":"ARS","available_quantity":2,"condition":"new"}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()
	t.Setenv("CHATBOT_COMMERCE_BASE_URL", srv.URL)
	open := fakeOpener(t)

	out, err := run(t, open, "commerce", "product", "mla42")
	require.NoError(t, err)
	assert.Contains(t, out, "Mate")

	// no stored token: the authenticated call fails before reaching the API
	_, err = run(t, open, "commerce", "ping")
	assert.Error(t, err)
}
