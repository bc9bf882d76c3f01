package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gpuviz/pkg/buildinfo"
	"github.com/matzehuels/gpuviz/pkg/cache"
	"github.com/matzehuels/gpuviz/pkg/core/hierarchy"
	"github.com/matzehuels/gpuviz/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "gpuviz"

	// redisCachePrefix namespaces diagram and artifact entries in Redis.
	redisCachePrefix = "gpuviz:cache:"
)

// Cache backends accepted by --cache.
const (
	cacheNone  = "none"
	cacheFile  = "file"
	cacheRedis = "redis"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "gpuviz lays out GPU allocation hierarchies as diagrams",
		Long: `gpuviz turns a cluster → organization → business unit → project GPU
allocation hierarchy into a positioned diagram. Subtrees can be collapsed into
aggregate group nodes, and borrowing between business units is drawn as
lateral edges.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.summaryCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.sampleCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the local file cache.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	backend := cacheFile
	if noCache {
		backend = cacheNone
	}
	return c.newRunnerWith(context.Background(), backend, "")
}

// newRunnerWith creates a pipeline runner for the named cache backend.
func (c *CLI) newRunnerWith(ctx context.Context, backend, redisAddr string) (*pipeline.Runner, error) {
	store, err := newCache(ctx, backend, redisAddr)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(store, newKeyer(backend), c.Logger), nil
}

func newCache(ctx context.Context, backend, redisAddr string) (cache.Cache, error) {
	switch backend {
	case cacheNone:
		return cache.NewNullCache(), nil
	case cacheFile, "":
		dir, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	case cacheRedis:
		return cache.NewRedisCache(ctx, redisAddr, redisCachePrefix)
	default:
		return nil, fmt.Errorf("unknown cache backend %q (want %s, %s or %s)", backend, cacheNone, cacheFile, cacheRedis)
	}
}

// newKeyer scopes shared cache keys by release so that servers of different
// versions never read each other's diagrams. Local caches use plain keys.
func newKeyer(backend string) cache.Keyer {
	if backend == cacheRedis {
		return cache.NewScopedKeyer(cache.NewDefaultKeyer(), buildinfo.Version+":")
	}
	return cache.NewDefaultKeyer()
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/gpuviz/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// outputPath derives "<input without extension><suffix>" when explicit is empty.
func outputPath(input, explicit, suffix string) string {
	if explicit != "" {
		return explicit
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + suffix
}

// =============================================================================
// Options Helpers
// =============================================================================

// collapseFlag normalizes repeated and comma-separated --collapse values.
func collapseFlag(values []string) []string {
	var ids []string
	for _, v := range values {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// mergeCollapse combines the collapse flags stored in the hierarchy file with
// ids given on the command line.
func mergeCollapse(c *hierarchy.Cluster, flags []string) []string {
	state := hierarchy.InitialCollapse(c)
	for _, id := range collapseFlag(flags) {
		state[id] = true
	}
	return state.IDs()
}
