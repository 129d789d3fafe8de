package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/jsonops/internal/server"
	"github.com/matzehuels/jsonops/pkg/buildinfo"
	"github.com/matzehuels/jsonops/pkg/config"
	"github.com/matzehuels/jsonops/pkg/observability"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Long: `Serve every operation at POST /api/{operation}.

Request bodies may be sent in any supported format (Content-Type selects it),
and results are encoded in the format named by Accept. The server stops
gracefully on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.config().Server
			if addr != "" {
				cfg.Addr = addr
			}
			return c.runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default from config, :8080)")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, cfg config.ServerConfig) error {
	hooks := &logHooks{logger: c.Logger}
	observability.SetOperationHooks(hooks)
	observability.SetCacheHooks(hooks)

	runner := c.newRunner(ctx)
	defer runner.Close()

	printKeyValue("Version", buildinfo.Short())
	printKeyValue("Address", cfg.Addr)
	printKeyValue("Cache", c.cacheLabel())
	printNextStep("Try", "curl -s localhost"+portOf(cfg.Addr)+"/api")

	return server.New(runner, c.Logger, cfg).ListenAndServe(ctx)
}

// cacheLabel describes the cache backend in use.
func (c *CLI) cacheLabel() string {
	if c.noCache {
		return "disabled"
	}
	return c.config().Cache.Backend
}

// portOf returns the ":port" suffix of a listen address.
func portOf(addr string) string {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[i:]
		}
	}
	return ":" + addr
}

// =============================================================================
// Logging Hooks
// =============================================================================

// slowOperation is the duration above which an operation is logged as slow.
const slowOperation = time.Second

// logHooks logs slow operations and cache activity.
type logHooks struct {
	observability.NoopOperationHooks
	observability.NoopCacheHooks
	logger *log.Logger
}

func (h *logHooks) OnOperationComplete(_ context.Context, op string, cached bool, d time.Duration, err error) {
	if err == nil && d > slowOperation {
		h.logger.Warn("slow operation", "op", op, "cached", cached, "duration", d)
	}
}

func (h *logHooks) OnCacheHit(_ context.Context, op string) {
	h.logger.Debug("cache hit", "op", op)
}

func (h *logHooks) OnCacheSet(_ context.Context, op string, size int) {
	h.logger.Debug("cached result", "op", op, "bytes", size)
}
