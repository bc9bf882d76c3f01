package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gpuviz/internal/server"
	"github.com/matzehuels/gpuviz/pkg/session"
)

// Session backends accepted by --sessions.
const (
	sessionsMemory = "memory"
	sessionsFile   = "file"
	sessionsRedis  = "redis"
	sessionsMongo  = "mongo"
)

// serveOpts holds the flags of the serve command.
type serveOpts struct {
	addr       string
	sessions   string
	cache      string
	redisAddr  string
	mongoURI   string
	mongoDB    string
	sessionDir string
	sessionTTL time.Duration
	timeout    time.Duration
}

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the diagram and session HTTP API",
		Long: `Serve the diagram and session HTTP API.

Diagrams and rendered artifacts are cached in the backend chosen with --cache.
Collapse sessions live in the backend chosen with --sessions; redis and mongo
share state between several server instances.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().StringVar(&opts.sessions, "sessions", sessionsMemory, "session backend: memory, file, redis, mongo")
	cmd.Flags().StringVar(&opts.cache, "cache", cacheFile, "cache backend: none, file, redis")
	cmd.Flags().StringVar(&opts.redisAddr, "redis-addr", "localhost:6379", "redis address for --cache redis and --sessions redis")
	cmd.Flags().StringVar(&opts.mongoURI, "mongo-uri", "mongodb://localhost:27017", "mongodb URI for --sessions mongo")
	cmd.Flags().StringVar(&opts.mongoDB, "mongo-db", appName, "mongodb database for --sessions mongo")
	cmd.Flags().StringVar(&opts.sessionDir, "session-dir", "", "directory for --sessions file (default: ~/.config/gpuviz/sessions)")
	cmd.Flags().DurationVar(&opts.sessionTTL, "session-ttl", session.DefaultTTL, "idle lifetime of a collapse session")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", server.DefaultTimeout, "per-request timeout")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	runner, err := c.newRunnerWith(ctx, opts.cache, opts.redisAddr)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	defer runner.Close()

	store, err := newSessionStore(ctx, opts)
	if err != nil {
		return fmt.Errorf("initialize sessions: %w", err)
	}
	defer store.Close()

	c.Logger.Info("starting server", "addr", opts.addr, "cache", opts.cache, "sessions", opts.sessions)
	uptime := newProgress(c.Logger)

	srv := server.New(server.Config{
		Addr:       opts.addr,
		Timeout:    opts.timeout,
		SessionTTL: opts.sessionTTL,
	}, runner, store, c.Logger)

	err = srv.ListenAndServe(ctx)
	uptime.done("Server stopped")
	return err
}

func newSessionStore(ctx context.Context, opts serveOpts) (session.Store, error) {
	switch opts.sessions {
	case sessionsMemory, "":
		return session.NewMemoryStore(), nil
	case sessionsFile:
		return session.NewFileStore(opts.sessionDir)
	case sessionsRedis:
		return session.NewRedisStore(ctx, opts.redisAddr)
	case sessionsMongo:
		return session.NewMongoStore(ctx, opts.mongoURI, opts.mongoDB)
	default:
		return nil, fmt.Errorf("unknown session backend %q (want %s, %s, %s or %s)",
			opts.sessions, sessionsMemory, sessionsFile, sessionsRedis, sessionsMongo)
	}
}
