package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides. Nested keys are
// separated by a double underscore: SUPPORTROUTER_SESSION__TTL -> session.ttl.
const EnvPrefix = "SUPPORTROUTER_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (SUPPORTROUTER_*). A .env file in the
// working directory, if present, is loaded into the environment first.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	k := koanf.New(".")
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ToLower(strings.ReplaceAll(s, "__", "."))
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validProviders = map[ProviderType]bool{
	ProviderOpenAI: true,
	ProviderNone:   true,
}

var validBackends = map[SessionBackend]bool{
	SessionMemory: true,
	SessionRedis:  true,
}

var validSeverities = map[string]bool{
	"":         true,
	"info":     true,
	"warning":  true,
	"critical": true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if !validProviders[c.LLM.Provider] {
		return fmt.Errorf("invalid llm.provider %q: must be one of openai, none", c.LLM.Provider)
	}
	if c.LLM.Provider != ProviderNone && c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if !validProviders[c.Embedding.Provider] {
		return fmt.Errorf("invalid embedding.provider %q: must be one of openai, none", c.Embedding.Provider)
	}
	if c.LLM.RequestsPerMinute < 0 {
		return fmt.Errorf("llm.requests_per_minute must be non-negative")
	}

	if !validBackends[c.Session.Backend] {
		return fmt.Errorf("invalid session.backend %q: must be one of memory, redis", c.Session.Backend)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}
	// A sweep slower than the TTL would let expired sessions pile up.
	if c.Session.SweepInterval <= 0 || c.Session.SweepInterval > c.Session.TTL {
		return fmt.Errorf("session.sweep_interval must be positive and no longer than session.ttl")
	}
	if c.Session.HistoryLimit <= 0 {
		return fmt.Errorf("session.history_limit must be positive")
	}
	if c.Session.Backend == SessionRedis && c.Session.Redis.Addr == "" {
		return fmt.Errorf("session.redis.addr is required for the redis backend")
	}

	if c.Verification.MaxAttempts <= 0 {
		return fmt.Errorf("verification.max_attempts must be positive")
	}
	if c.Router.CallTimeout <= 0 {
		return fmt.Errorf("router.call_timeout must be positive")
	}
	if c.Router.MaxMessageLength <= 0 {
		return fmt.Errorf("router.max_message_length must be positive")
	}

	if c.Orders.DBPath == "" {
		return fmt.Errorf("orders.db_path is required")
	}
	if c.Orders.ReturnWindowDays < 0 {
		return fmt.Errorf("orders.return_window_days must be non-negative")
	}
	if c.Policies.TopK <= 0 {
		return fmt.Errorf("policies.top_k must be positive")
	}
	if c.Policies.GapThreshold < 0 || c.Policies.GapThreshold > 1 {
		return fmt.Errorf("policies.gap_threshold must be between 0 and 1")
	}
	if c.Audit.Retention < 0 {
		return fmt.Errorf("audit.retention must be non-negative")
	}
	if !validSeverities[c.Notifications.MinSeverity] {
		return fmt.Errorf("invalid notifications.min_severity %q: must be one of info, warning, critical", c.Notifications.MinSeverity)
	}
	for _, u := range c.Notifications.Webhooks {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return fmt.Errorf("notifications.webhooks entry %q must be an http(s) URL", u)
		}
	}

	return nil
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}
