package config

import "time"

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	// ProviderNone disables remote model calls. Intents fall back to the
	// keyword classifier and policy answers to the best retrieved passage.
	ProviderNone ProviderType = "none"
)

// SessionBackend selects where conversational state is kept.
type SessionBackend string

const (
	SessionMemory SessionBackend = "memory"
	SessionRedis  SessionBackend = "redis"
)

// Config is the top-level support-router configuration, corresponding to supportrouter.yml.
type Config struct {
	LLM           LLMConfig           `yaml:"llm" koanf:"llm"`
	Embedding     EmbeddingConfig     `yaml:"embedding" koanf:"embedding"`
	Server        ServerConfig        `yaml:"server" koanf:"server"`
	Session       SessionConfig       `yaml:"session" koanf:"session"`
	Verification  VerificationConfig  `yaml:"verification" koanf:"verification"`
	Router        RouterConfig        `yaml:"router" koanf:"router"`
	Orders        OrdersConfig        `yaml:"orders" koanf:"orders"`
	Policies      PoliciesConfig      `yaml:"policies" koanf:"policies"`
	Audit         AuditConfig         `yaml:"audit" koanf:"audit"`
	Notifications NotificationsConfig `yaml:"notifications" koanf:"notifications"`
	Log           LogConfig           `yaml:"log" koanf:"log"`
}

// LLMConfig configures the completion model used for intent classification
// and policy answers.
type LLMConfig struct {
	Provider ProviderType `yaml:"provider" koanf:"provider"`
	Model    string       `yaml:"model" koanf:"model"`
	// BaseURL points the OpenAI client at a compatible server (Ollama, OpenRouter, vLLM).
	BaseURL           string  `yaml:"base_url" koanf:"base_url"`
	AnswerTemperature float32 `yaml:"answer_temperature" koanf:"answer_temperature"`
	RequestsPerMinute int     `yaml:"requests_per_minute" koanf:"requests_per_minute"`
}

// EmbeddingConfig configures the embedder backing policy retrieval.
type EmbeddingConfig struct {
	Provider ProviderType `yaml:"provider" koanf:"provider"`
	Model    string       `yaml:"model" koanf:"model"`
	BaseURL  string       `yaml:"base_url" koanf:"base_url"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr           string        `yaml:"addr" koanf:"addr"`
	AllowedOrigins []string      `yaml:"allowed_origins" koanf:"allowed_origins"`
	RequestTimeout time.Duration `yaml:"request_timeout" koanf:"request_timeout"`
	SlackSecret    string        `yaml:"slack_signing_secret" koanf:"slack_signing_secret"`
}

// SessionConfig controls session lifetime and storage.
type SessionConfig struct {
	Backend       SessionBackend `yaml:"backend" koanf:"backend"`
	TTL           time.Duration  `yaml:"ttl" koanf:"ttl"`
	SweepInterval time.Duration  `yaml:"sweep_interval" koanf:"sweep_interval"`
	HistoryLimit  int            `yaml:"history_limit" koanf:"history_limit"`
	Redis         RedisConfig    `yaml:"redis" koanf:"redis"`
}

// RedisConfig is used when Session.Backend is "redis".
type RedisConfig struct {
	Addr      string `yaml:"addr" koanf:"addr"`
	Password  string `yaml:"password" koanf:"password"`
	DB        int    `yaml:"db" koanf:"db"`
	KeyPrefix string `yaml:"key_prefix" koanf:"key_prefix"`
}

// VerificationConfig tunes the identity gate.
type VerificationConfig struct {
	MaxAttempts int `yaml:"max_attempts" koanf:"max_attempts"`
}

// RouterConfig tunes per-turn orchestration.
type RouterConfig struct {
	CallTimeout             time.Duration `yaml:"call_timeout" koanf:"call_timeout"`
	MaxMessageLength        int           `yaml:"max_message_length" koanf:"max_message_length"`
	ReplayAfterVerification bool          `yaml:"replay_after_verification" koanf:"replay_after_verification"`
}

// OrdersConfig locates the order database and its business rules.
type OrdersConfig struct {
	DBPath           string `yaml:"db_path" koanf:"db_path"`
	ReturnWindowDays int    `yaml:"return_window_days" koanf:"return_window_days"`
}

// PoliciesConfig locates the policy documents and their vector index.
type PoliciesConfig struct {
	Dir       string   `yaml:"dir" koanf:"dir"`
	Include   []string `yaml:"include" koanf:"include"`
	VectorDir string   `yaml:"vector_dir" koanf:"vector_dir"`
	TopK      int      `yaml:"top_k" koanf:"top_k"`
	// GapThreshold is the similarity below which a customer question is
	// added to the knowledge backlog. Zero disables the backlog.
	GapThreshold float32 `yaml:"gap_threshold" koanf:"gap_threshold"`
}

// AuditConfig controls the verification audit trail.
type AuditConfig struct {
	Enabled bool `yaml:"enabled" koanf:"enabled"`
	// Retention is how long entries are kept. Zero keeps them forever.
	Retention time.Duration `yaml:"retention" koanf:"retention"`
}

// NotificationsConfig lists the webhooks that receive escalated audit
// events. No webhooks means no notifications are sent.
type NotificationsConfig struct {
	Webhooks    []string `yaml:"webhooks" koanf:"webhooks"`
	MinSeverity string   `yaml:"min_severity" koanf:"min_severity"`
}

// LogConfig selects the logger encoding and level.
type LogConfig struct {
	Mode  string `yaml:"mode" koanf:"mode"`
	Level string `yaml:"level" koanf:"level"`
}
