// Package cli implements the jsonops command-line interface.
//
// Every data command runs the same operation the HTTP service exposes, through
// an [ops.Runner], so results, validation messages and cache entries are
// identical on both surfaces. Inputs are read from files or stdin ("-") in any
// registered codec format and loaded concurrently.
//
// # Commands
//
//   - diff, diff-arrays: compare two documents
//   - map, flatten, group, sort: reshape one array
//   - unzip: list or extract a ZIP archive
//   - convert: translate a document between formats
//   - serve: run the HTTP service
//   - cache: manage the result cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/jsonops/pkg/buildinfo"
	"github.com/matzehuels/jsonops/pkg/cache"
	"github.com/matzehuels/jsonops/pkg/config"
	"github.com/matzehuels/jsonops/pkg/ops"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "jsonops"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogWarn  = log.WarnLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	In     io.Reader // read for the "-" input
	Out    io.Writer // receives command results

	configPath string
	noCache    bool
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		In:     os.Stdin,
		Out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "jsonops compares and reshapes JSON documents",
		Long:          `jsonops diffs objects, compares arrays and reshapes JSON data from the command line or as an HTTP service. Inputs may be JSON, YAML, TOML, MessagePack or BSON.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/jsonops/config.toml)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the result cache")

	// Register all subcommands
	root.AddCommand(c.diffCommand())
	root.AddCommand(c.diffArraysCommand())
	root.AddCommand(c.mapCommand())
	root.AddCommand(c.flattenCommand())
	root.AddCommand(c.groupCommand())
	root.AddCommand(c.sortCommand())
	root.AddCommand(c.unzipCommand())
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig resolves the configuration once. A configured log level only
// applies when --verbose has not already raised the level.
func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	if c.Logger.GetLevel() == log.InfoLevel {
		c.Logger.SetLevel(cfg.LogLevel())
	}
	return nil
}

// config returns the loaded configuration, or the defaults before loading.
func (c *CLI) config() *config.Config {
	if c.cfg == nil {
		return config.Default()
	}
	return c.cfg
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates an operation runner backed by the configured cache. A
// cache that cannot be opened is reported and replaced by no cache.
func (c *CLI) newRunner(ctx context.Context) *ops.Runner {
	cfg := c.config()
	store := c.openCache(ctx)
	r := ops.NewRunner(store, cfg.Keyer(), c.Logger)
	r.TTL = cfg.Cache.TTL.Duration
	return r
}

func (c *CLI) openCache(ctx context.Context) cache.Cache {
	if c.noCache {
		return cache.NewNullCache()
	}
	cfg := c.config()
	store, err := cache.Open(ctx, cfg.CacheOptions())
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without it", "backend", cfg.Cache.Backend, "err", err)
		return cache.NewNullCache()
	}
	return store
}
