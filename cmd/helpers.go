package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ziadkadry99/support-router/internal/audit"
	"github.com/ziadkadry99/support-router/internal/backlog"
	"github.com/ziadkadry99/support-router/internal/config"
	"github.com/ziadkadry99/support-router/internal/db"
	"github.com/ziadkadry99/support-router/internal/embeddings"
	"github.com/ziadkadry99/support-router/internal/intent"
	"github.com/ziadkadry99/support-router/internal/llm"
	"github.com/ziadkadry99/support-router/internal/logger"
	"github.com/ziadkadry99/support-router/internal/notifications"
	"github.com/ziadkadry99/support-router/internal/orchestrator"
	"github.com/ziadkadry99/support-router/internal/orders"
	"github.com/ziadkadry99/support-router/internal/responder"
	"github.com/ziadkadry99/support-router/internal/session"
	"github.com/ziadkadry99/support-router/internal/vectordb"
	"github.com/ziadkadry99/support-router/internal/verify"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `supportrouter init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newLogger builds the logger from config; --verbose forces debug level.
func newLogger(cfg *config.Config) (*logger.Logger, error) {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	return logger.New(cfg.Log.Mode, level)
}

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	return embeddings.NewEmbedder(string(cfg.Embedding.Provider), cfg.Embedding.BaseURL, cfg.Embedding.Model)
}

// createLLMProviderFromConfig creates an LLM provider based on config
// settings. It returns nil when the provider is "none".
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	if cfg.LLM.Provider == config.ProviderNone {
		return nil, nil
	}
	return llm.NewProvider(string(cfg.LLM.Provider), cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.RequestsPerMinute)
}

// openVectorStore creates the policy vector store and loads any persisted
// index. A missing index is not an error; the store is then empty.
func openVectorStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (*vectordb.ChromemStore, error) {
	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	store, err := vectordb.NewChromemStore(embedder)
	if err != nil {
		return nil, fmt.Errorf("creating vector store: %w", err)
	}
	if err := store.Load(ctx, cfg.Policies.VectorDir); err != nil {
		log.Warn("policy index not loaded; run `supportrouter ingest` first", "dir", cfg.Policies.VectorDir, "error", err)
	}
	return store, nil
}

// openSessionStore creates the configured session store.
func openSessionStore(ctx context.Context, cfg *config.Config) (session.Store, func() error, error) {
	switch cfg.Session.Backend {
	case config.SessionRedis:
		rs, err := session.NewRedisStore(ctx, session.RedisOptions{
			Addr:      cfg.Session.Redis.Addr,
			Password:  cfg.Session.Redis.Password,
			DB:        cfg.Session.Redis.DB,
			KeyPrefix: cfg.Session.Redis.KeyPrefix,
			TTL:       cfg.Session.TTL,
		})
		if err != nil {
			return nil, nil, err
		}
		return rs, rs.Close, nil
	default:
		return session.NewMemoryStore(cfg.Session.TTL), func() error { return nil }, nil
	}
}

// app holds every collaborator a command may need.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *db.DB
	orders   *orders.Store
	sessions session.Store
	vectors  *vectordb.ChromemStore
	audit    *audit.Store
	backlog  *backlog.Store
	policy   *responder.PolicyResponder
	router   *orchestrator.Orchestrator

	closers []func() error
}

// newApp loads config and wires the orchestrator with its collaborators.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log}
	if err := a.wire(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context) error {
	cfg := a.cfg

	database, err := db.Open(cfg.Orders.DBPath)
	if err != nil {
		return fmt.Errorf("opening order database: %w", err)
	}
	a.db = database
	a.closers = append(a.closers, database.Close)
	a.orders = orders.NewStore(database)

	sessions, closeSessions, err := openSessionStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}
	a.sessions = sessions
	a.closers = append(a.closers, closeSessions)

	if a.vectors, err = openVectorStore(ctx, cfg, a.log); err != nil {
		return err
	}

	provider, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("creating LLM provider: %w", err)
	}

	var auditLog audit.Logger
	if cfg.Audit.Enabled {
		a.audit = audit.NewStore(database)
		auditLog = a.audit
	}
	if len(cfg.Notifications.Webhooks) > 0 {
		minSeverity, err := notifications.ParseSeverity(cfg.Notifications.MinSeverity)
		if err != nil {
			return err
		}
		dispatcher := notifications.NewDispatcher(cfg.Notifications.Webhooks, minSeverity)
		auditLog = notifications.NewForwarder(auditLog, dispatcher, a.log.With("component", "notifications"))
	}

	var classifier intent.Classifier = intent.NewKeywordClassifier()
	policyOpts := []responder.PolicyOption{responder.WithTopK(cfg.Policies.TopK)}
	if provider != nil {
		classifier = intent.NewLLMClassifier(provider, cfg.LLM.Model)
		policyOpts = append(policyOpts, responder.WithGenerator(provider, cfg.LLM.Model, cfg.LLM.AnswerTemperature))
	}
	if cfg.Policies.GapThreshold > 0 {
		a.backlog = backlog.NewStore(database)
		policyOpts = append(policyOpts, responder.WithGapRecorder(a.backlog, cfg.Policies.GapThreshold, a.log.With("component", "backlog")))
	}
	a.policy = responder.NewPolicyResponder(a.vectors, policyOpts...)

	gate := verify.NewGate(a.orders,
		verify.WithMaxAttempts(cfg.Verification.MaxAttempts),
		verify.WithAudit(auditLog),
		verify.WithLogger(a.log.With("component", "verify")),
	)

	a.router, err = orchestrator.New(orchestrator.Deps{
		Sessions:   a.sessions,
		Classifier: classifier,
		Gate:       gate,
		Policy:     a.policy,
		Orders:     responder.NewOrderResponder(a.orders, a.policy, cfg.Orders.ReturnWindowDays, a.log.With("component", "orders")),
		Identities: a.orders,
	},
		orchestrator.WithHistoryLimit(cfg.Session.HistoryLimit),
		orchestrator.WithCallTimeout(cfg.Router.CallTimeout),
		orchestrator.WithMaxMessageLength(cfg.Router.MaxMessageLength),
		orchestrator.WithReplay(cfg.Router.ReplayAfterVerification),
		orchestrator.WithAudit(auditLog),
		orchestrator.WithLogger(a.log.With("component", "orchestrator")),
	)
	return err
}

// Close releases the database and session store and flushes the logger.
func (a *app) Close() {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	if err := errors.Join(errs...); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: closing resources: %v\n", err)
	}
	a.log.Sync()
}
