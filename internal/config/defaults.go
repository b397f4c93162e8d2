package config

import "time"

// DefaultConfigFile is the config path used when --config is not given.
const DefaultConfigFile = "supportrouter.yml"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:          ProviderOpenAI,
			Model:             "gpt-4o-mini",
			AnswerTemperature: 0.4,
			RequestsPerMinute: 120,
		},
		Embedding: EmbeddingConfig{
			Provider: ProviderOpenAI,
			Model:    "text-embedding-3-small",
		},
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
			RequestTimeout: 60 * time.Second,
		},
		Session: SessionConfig{
			Backend:       SessionMemory,
			TTL:           30 * time.Minute,
			SweepInterval: 5 * time.Minute,
			HistoryLimit:  12,
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "supportrouter:session:",
			},
		},
		Verification: VerificationConfig{
			MaxAttempts: 3,
		},
		Router: RouterConfig{
			CallTimeout:      20 * time.Second,
			MaxMessageLength: 1000,
		},
		Orders: OrdersConfig{
			DBPath:           "data/orders.db",
			ReturnWindowDays: 30,
		},
		Policies: PoliciesConfig{
			Dir:          "policies",
			Include:      []string{"**/*.md"},
			VectorDir:    "data/vectordb",
			TopK:         3,
			GapThreshold: 0.35,
		},
		Audit: AuditConfig{
			Enabled:   true,
			Retention: 30 * 24 * time.Hour,
		},
		Notifications: NotificationsConfig{
			MinSeverity: "critical",
		},
		Log: LogConfig{
			Mode:  "development",
			Level: "info",
		},
	}
}
