// Package config loads process configuration from the environment (prefix
// CHATBOT_) and an optional config file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "CHATBOT"

// Config is the resolved process configuration.
type Config struct {
	Env      string `mapstructure:"env"`
	RunLocal bool   `mapstructure:"run_local"`

	Log struct {
		Level  string `mapstructure:"level"`
		Pretty bool   `mapstructure:"pretty"`
	} `mapstructure:"log"`

	HTTP struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"http"`

	Tables struct {
		Settings    string `mapstructure:"settings"`
		Menu        string `mapstructure:"menu"`
		Logs        string `mapstructure:"logs"`
		State       string `mapstructure:"state"`
		Tickets     string `mapstructure:"tickets"`
		Idempotency string `mapstructure:"idempotency"`
	} `mapstructure:"tables"`

	Queue struct {
		Escalations string `mapstructure:"escalations"`
	} `mapstructure:"queue"`

	Sessions struct {
		Driver string `mapstructure:"driver"`
	} `mapstructure:"sessions"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Gemini   ProviderConfig `mapstructure:"gemini"`
	Claude   ProviderConfig `mapstructure:"claude"`
	Commerce CommerceConfig `mapstructure:"commerce"`

	Metrics struct {
		Namespace string `mapstructure:"namespace"`
	} `mapstructure:"metrics"`

	Idempotency struct {
		TTL time.Duration `mapstructure:"ttl"`
	} `mapstructure:"idempotency"`
}

// ProviderConfig configures one AI completion backend.
type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// CommerceConfig configures the e-commerce REST API client.
type CommerceConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "production")
	v.SetDefault("run_local", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("http.addr", ":8080")

	v.SetDefault("tables.settings", "Settings")
	v.SetDefault("tables.menu", "Menu_Config")
	v.SetDefault("tables.logs", "Chat_Logs")
	v.SetDefault("tables.state", "System_State")
	v.SetDefault("tables.tickets", "Escalation_Tickets")
	v.SetDefault("tables.idempotency", "Request_Idempotency")

	v.SetDefault("queue.escalations", "")

	v.SetDefault("sessions.driver", "memory")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-1.5-flash")
	v.SetDefault("gemini.base_url", "")
	v.SetDefault("claude.api_key", "")
	v.SetDefault("claude.model", "claude-3-5-haiku-latest")
	v.SetDefault("claude.base_url", "")

	v.SetDefault("commerce.base_url", "https://api.mercadolibre.com")
	v.SetDefault("commerce.client_id", "")
	v.SetDefault("commerce.client_secret", "")
	v.SetDefault("commerce.timeout", "15s")

	v.SetDefault("metrics.namespace", "")
	v.SetDefault("idempotency.ttl", "48h")
}

// Load resolves configuration. path is an optional config file; the
// environment always takes precedence.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail at first use.
func (c *Config) Validate() error {
	var errs []error
	if c.Tables.Settings == "" || c.Tables.Menu == "" || c.Tables.Logs == "" {
		errs = append(errs, errors.New("tables.settings, tables.menu and tables.logs are required"))
	}
	switch c.Sessions.Driver {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis.addr is required for the redis session driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown sessions.driver %q", c.Sessions.Driver))
	}
	if c.Commerce.Timeout <= 0 {
		errs = append(errs, errors.New("commerce.timeout must be positive"))
	}
	return errors.Join(errs...)
}
