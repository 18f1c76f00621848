package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Tables.Menu != "Menu_Config" || cfg.Tables.Logs != "Chat_Logs" || cfg.Tables.Settings != "Settings" {
		t.Fatalf("unexpected default tables: %+v", cfg.Tables)
	}
	if cfg.Commerce.Timeout != 15*time.Second {
		t.Fatalf("expected 15s commerce timeout, got %s", cfg.Commerce.Timeout)
	}
	if cfg.Idempotency.TTL != 48*time.Hour {
		t.Fatalf("expected 48h idempotency ttl, got %s", cfg.Idempotency.TTL)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CHATBOT_TABLES_LOGS", "logs-dev")
	t.Setenv("CHATBOT_GEMINI_API_KEY", "g-key")
	t.Setenv("CHATBOT_RUN_LOCAL", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Tables.Logs != "logs-dev" {
		t.Fatalf("env override not applied: %q", cfg.Tables.Logs)
	}
	if cfg.Gemini.APIKey != "g-key" {
		t.Fatalf("gemini key not loaded")
	}
	if !cfg.RunLocal {
		t.Fatalf("run_local not loaded")
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatbot.json")
	body := `{"sessions":{"driver":"redis"},"redis":{"addr":"localhost:6379"},"metrics":{"namespace":"Chatbot"}}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Sessions.Driver != "redis" || cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("file values not loaded: %+v %+v", cfg.Sessions, cfg.Redis)
	}
	if cfg.Metrics.Namespace != "Chatbot" {
		t.Fatalf("metrics namespace not loaded")
	}
}

func TestLoad_RedisDriverRequiresAddr(t *testing.T) {
	t.Setenv("CHATBOT_SESSIONS_DRIVER", "redis")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for redis driver without address")
	}
}
