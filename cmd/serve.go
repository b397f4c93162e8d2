package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/support-router/internal/audit"
	"github.com/ziadkadry99/support-router/internal/backlog"
	"github.com/ziadkadry99/support-router/internal/bots"
	"github.com/ziadkadry99/support-router/internal/chat"
	"github.com/ziadkadry99/support-router/internal/dashboard"
	"github.com/ziadkadry99/support-router/internal/server"
	"github.com/ziadkadry99/support-router/internal/session"
)

// auditPruneInterval is how often expired audit entries are deleted.
const auditPruneInterval = time.Hour

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP chat server",
	Long: `Starts the support router HTTP server: the operator dashboard, the chat
API and WebSocket, the Slack and Teams webhooks, the session endpoints,
the audit trail and the knowledge backlog. The session sweeper and audit
retention run alongside it until the process is interrupted.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.cfg
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	srv := server.New(server.Config{
		Addr:           cfg.Server.Addr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
	}, a.db, a.log.With("component", "http"))

	registerRoutes(srv, a)

	fmt.Fprintf(os.Stderr, "supportrouter %s starting on %s\n", Version, cfg.Server.Addr)
	fmt.Fprintf(os.Stderr, "  Orders database: %s\n", a.db.Path())
	fmt.Fprintf(os.Stderr, "  Sessions: %s (ttl %s)\n", cfg.Session.Backend, cfg.Session.TTL)
	fmt.Fprintf(os.Stderr, "  Policy passages indexed: %d\n", a.vectors.Count())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		return session.RunSweeper(gctx, a.sessions, cfg.Session.SweepInterval, a.log.With("component", "sweeper"))
	})
	if a.audit != nil {
		g.Go(func() error {
			return audit.RunRetention(gctx, a.audit, cfg.Audit.Retention, auditPruneInterval, a.log.With("component", "audit"))
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		fmt.Fprintln(os.Stderr, "\nShutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// registerRoutes wires up the feature routes.
func registerRoutes(srv *server.Server, a *app) {
	r := srv.Router()

	// Chat API, WebSocket and sessions
	chat.RegisterRoutes(r, chat.NewHandler(a.router, a.sessions, a.log.With("component", "chat")))

	// Bots (Slack & Teams)
	botGateway := bots.NewGateway(bots.NewProcessor(a.router))
	slackHandler := bots.NewSlackHandler(botGateway, a.cfg.Server.SlackSecret)
	teamsHandler := bots.NewTeamsHandler(botGateway)
	bots.RegisterRoutes(r, slackHandler, teamsHandler)

	// Audit Trail
	if a.audit != nil {
		audit.RegisterRoutes(r, a.audit)
	}

	// Knowledge Backlog
	if a.backlog != nil {
		backlog.RegisterRoutes(r, a.backlog)
	}

	// Operator dashboard
	dashboard.New(a.vectors, a.audit, a.backlog).RegisterRoutes(r)
}
